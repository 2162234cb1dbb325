// Package cli implements the command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// Options wires the root command to the rest of the application.
type Options struct {
	Version string
	// Serve runs the HTTP server until ctx is cancelled.
	Serve func(ctx context.Context) error
}

// NewRootCommand builds the command tree. Running it without a subcommand
// starts the server.
func NewRootCommand(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "kobohighlights",
		Short:         "Browse and export highlights from a Kobo e-reader database",
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return serve(c.Context(), opts)
		},
	}

	root.AddCommand(
		newServeCommand(opts),
		NewBooksCommand().Command(),
		NewHighlightsCommand().Command(),
		NewExportAllCommand().Command(),
		NewWatchCommand().Command(),
	)

	return root
}

func newServeCommand(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return serve(c.Context(), opts)
		},
	}
}

func serve(ctx context.Context, opts Options) error {
	if opts.Serve == nil {
		return errors.New("server is not configured")
	}
	return opts.Serve(ctx)
}
