package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mrlokans/kobohighlights/internal/auth"
	"github.com/mrlokans/kobohighlights/internal/config"
	http_controllers "github.com/mrlokans/kobohighlights/internal/http"
	"github.com/mrlokans/kobohighlights/internal/scheduler"
	"github.com/mrlokans/kobohighlights/internal/session"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired server components.
type App struct {
	Router    *gin.Engine
	Registry  *session.Registry
	Limiter   *auth.IPRateLimiter
	Scheduler *scheduler.SessionSweepScheduler
}

// Build wires the HTTP server from the configuration.
func Build(cfg *config.Config, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry := session.NewRegistry(session.KoboLoader)

	sessionManager := auth.NewSessionManager(auth.SessionConfig{
		Lifetime:      cfg.Session.Lifetime,
		IdleTimeout:   cfg.Session.IdleTimeout,
		SecureCookies: cfg.Security.SecureCookies,
	})

	limiter := auth.NewIPRateLimiter(cfg.Upload.RatePerMinute, cfg.Upload.RateBurst)

	var csrfSecret []byte
	if cfg.Security.CSRFSecret != "" {
		secret, err := hex.DecodeString(cfg.Security.CSRFSecret)
		if err != nil {
			// Not hex, use as raw bytes
			secret = []byte(cfg.Security.CSRFSecret)
		}
		csrfSecret = secret
		log.Info().Msg("CSRF protection enabled")
	}

	if len(cfg.Security.CORSAllowedOrigins) > 0 {
		log.Info().Strs("origins", cfg.Security.CORSAllowedOrigins).Msg("CORS enabled")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Registry:           registry,
		SessionManager:     sessionManager,
		UploadLimiter:      limiter,
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		CSRFSecret:         csrfSecret,
		SecureCookies:      cfg.Security.SecureCookies,
		CORSAllowedOrigins: cfg.Security.CORSAllowedOrigins,
		Version:            version,
	})

	// Rate limiter entries expire together with the sessions.
	sweeper := scheduler.NewSessionSweepScheduler(
		cfg.Session.SweepSchedule,
		cfg.Session.IdleTimeout,
		registry,
		limiter,
	)

	return &App{
		Router:    router,
		Registry:  registry,
		Limiter:   limiter,
		Scheduler: sweeper,
	}, nil
}

// Serve runs the server on ln until ctx is cancelled, then shuts it down
// within timeout and calls onShutdown.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, timeout time.Duration, onShutdown ShutdownFunc) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Msg("Starting server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Dur("timeout", timeout).Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Call shutdown callback first (e.g., to stop the sweeper)
		if onShutdown != nil {
			onShutdown(shutdownCtx)
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Server exiting")
	return nil
}

// Run builds the application and serves it until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	log.Info().Str("version", version).Msg("Starting Kobo highlights server")

	app, err := Build(cfg, version)
	if err != nil {
		return err
	}

	if err := app.Scheduler.Start(ctx); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		app.Scheduler.Stop()
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	return Serve(ctx, ln, app.Router, timeout, func(context.Context) {
		app.Scheduler.Stop()
		app.Registry.CloseAll()
	})
}
