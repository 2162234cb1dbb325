package http

import (
	"github.com/mrlokans/kobohighlights/internal/auth"
	"github.com/mrlokans/kobohighlights/internal/session"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Workspaces of connected clients
	Registry *session.Registry

	// Browser session cookies
	SessionManager *auth.SessionManager

	// Upload limits
	UploadLimiter  *auth.IPRateLimiter // nil disables rate limiting
	MaxUploadBytes int64

	// Protection
	CSRFSecret         []byte // empty disables CSRF
	SecureCookies      bool
	CORSAllowedOrigins []string // empty disables CORS

	// Application info
	Version string
}
