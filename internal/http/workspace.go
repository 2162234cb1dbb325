package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobohighlights/internal/auth"
	"github.com/mrlokans/kobohighlights/internal/session"
)

const contextKeyWorkspace = "workspace"

// WorkspaceMiddleware attaches the caller's workspace to the request. A new one
// is created when the cookie is missing or points to a workspace that expired.
// It must run after the session middleware.
func WorkspaceMiddleware(sm *auth.SessionManager, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		ws, ok := registry.Get(sm.WorkspaceID(ctx))
		if !ok {
			ws = registry.Create()
			if err := sm.BindWorkspace(ctx, ws.ID()); err != nil {
				_ = registry.Remove(ws.ID())
				respondInternalError(c, err, "bind workspace")
				c.Abort()
				return
			}
		}

		c.Set(contextKeyWorkspace, ws)
		c.Next()
	}
}

func getWorkspace(c *gin.Context) *session.Session {
	return c.MustGet(contextKeyWorkspace).(*session.Session)
}
