package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

const SessionKeyWorkspaceID = "workspace_id"

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	Lifetime      time.Duration
	IdleTimeout   time.Duration
	SecureCookies bool
}

// NewSessionManager creates a session manager backed by an in-memory store.
// Sessions do not survive a restart, matching the workspaces they point to.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()

	sm.Lifetime = cfg.Lifetime
	sm.IdleTimeout = cfg.IdleTimeout

	sm.Cookie.Name = "kobo_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}
}

// WorkspaceID returns the workspace bound to the request session, or "".
func (sm *SessionManager) WorkspaceID(ctx context.Context) string {
	return sm.GetString(ctx, SessionKeyWorkspaceID)
}

// BindWorkspace stores the workspace id in the session under a fresh token.
func (sm *SessionManager) BindWorkspace(ctx context.Context, workspaceID string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyWorkspaceID, workspaceID)
	return nil
}
