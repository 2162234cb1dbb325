package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry keeps the sessions of all connected clients, keyed by workspace id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	load     Loader
	now      func() time.Time
}

func NewRegistry(load Loader) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		load:     load,
		now:      time.Now,
	}
}

// Create starts a new empty session with a random id.
func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString(), r.load, r.now)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	log.Debug().Str("session", s.id).Msg("Session created")
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove closes and forgets a session. Unknown ids are ignored.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close()
}

// Sweep closes sessions that have been inactive for longer than maxIdle and
// returns how many were removed. Sessions in the middle of a load are kept.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.State() == FileLoading || !s.LastActive().Before(cutoff) {
			continue
		}
		expired = append(expired, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range expired {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("Failed to close idle session")
		}
	}

	if len(expired) > 0 {
		log.Info().Int("removed", len(expired)).Int("remaining", r.Len()).Msg("Idle sessions swept")
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("Failed to close session")
		}
	}
}
