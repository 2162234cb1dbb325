package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kobohighlights/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Content-Type", auth.CSRFTokenHeader},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	health := NewHealthController(cfg.Registry, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		api.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	api.Use(cfg.SessionManager.SessionLoadSave())
	api.Use(WorkspaceMiddleware(cfg.SessionManager, cfg.Registry))

	database := NewDatabaseController(cfg.MaxUploadBytes)
	catalog := NewCatalogController()

	uploadHandlers := []gin.HandlerFunc{database.Upload}
	if cfg.UploadLimiter != nil {
		uploadHandlers = append([]gin.HandlerFunc{cfg.UploadLimiter.Middleware()}, uploadHandlers...)
	}

	api.GET("/session", catalog.Session)
	api.POST("/database", uploadHandlers...)
	api.GET("/books", catalog.Books)
	api.POST("/dialog", catalog.OpenDialog)
	api.GET("/dialog", catalog.GetDialog)
	api.DELETE("/dialog", catalog.CloseDialog)
	api.POST("/dialog/copy", catalog.Copy)
	api.GET("/dialog/download", catalog.Download)

	return router
}
