package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/kobohighlights/internal/cli"
	"github.com/mrlokans/kobohighlights/internal/config"
	"github.com/mrlokans/kobohighlights/internal/entrypoint"
	"github.com/mrlokans/kobohighlights/internal/logging"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.NewConfig()
	logging.Setup(cfg.Log)

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(cli.Options{
		Version: fmt.Sprintf("%s (%s)", Version, Commit),
		Serve: func(ctx context.Context) error {
			return entrypoint.Run(ctx, cfg, Version)
		},
	})

	if err := root.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}
