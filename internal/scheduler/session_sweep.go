package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper removes sessions idle for longer than maxIdle and reports how many it removed.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a standard five-field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// SessionSweepScheduler periodically releases the databases of idle sessions
// and any other per-client state that expires with them.
type SessionSweepScheduler struct {
	sweepers []Sweeper
	schedule string
	maxIdle  time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewSessionSweepScheduler(schedule string, maxIdle time.Duration, sweepers ...Sweeper) *SessionSweepScheduler {
	return &SessionSweepScheduler{
		sweepers: sweepers,
		schedule: schedule,
		maxIdle:  maxIdle,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start schedules the sweep job. It stops when ctx is cancelled.
func (s *SessionSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.maxIdle <= 0 {
		log.Info().Msg("Session sweep scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Info().
		Str("schedule", s.schedule).
		Dur("max_idle", s.maxIdle).
		Time("next_run", s.cron.Entry(entryID).Next).
		Msg("Session sweep scheduler: started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running sweep to finish.
func (s *SessionSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	s.cancelFunc()
	s.cancelFunc = nil

	log.Info().Msg("Session sweep scheduler: stopped")
}

// RunNow sweeps immediately and returns the total number of removed entries.
func (s *SessionSweepScheduler) RunNow() int {
	removed := 0
	for _, sweeper := range s.sweepers {
		removed += sweeper.Sweep(s.maxIdle)
	}
	log.Debug().Int("removed", removed).Msg("Session sweep finished")
	return removed
}

func (s *SessionSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur, or nil when stopped.
func (s *SessionSweepScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
