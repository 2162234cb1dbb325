package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/kobohighlights/internal/exporters"
	"github.com/mrlokans/kobohighlights/internal/kobo"
)

const defaultDebounce = 2 * time.Second

// ExportCallback is called after each export triggered by WatchCommand.
type ExportCallback func(fingerprint string, result exporters.ExportResult)

// WatchCommand re-exports the library whenever the database file changes.
// Unchanged contents, detected by fingerprint, are not exported again.
type WatchCommand struct {
	DatabasePath string
	OutputDir    string
	Debounce     time.Duration
	OnExport     ExportCallback

	lastFingerprint string
}

func NewWatchCommand() *WatchCommand {
	return &WatchCommand{Debounce: defaultDebounce}
}

func (cmd *WatchCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:     "watch",
		Short:   "Export highlights every time the database file changes",
		Example: "  kobohighlights watch --db /Volumes/KOBOeReader/.kobo/KoboReader.sqlite --output ~/Obsidian/Highlights",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.Run(c.Context(), c.OutOrStdout())
		},
	}
	flags := c.Flags()
	flags.StringVar(&cmd.DatabasePath, "db", DefaultDatabasePath, "Path to KoboReader.sqlite")
	flags.StringVar(&cmd.OutputDir, "output", "", "Directory for the Markdown files (required)")
	flags.DurationVar(&cmd.Debounce, "debounce", cmd.Debounce, "Quiet period after the last change before exporting")
	_ = c.MarkFlagRequired("output")
	return c
}

// Run blocks until ctx is cancelled.
func (cmd *WatchCommand) Run(ctx context.Context, out io.Writer) error {
	path, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	outputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}
	debounce := cmd.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Copy tools replace the file, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	log.Info().Str("db", path).Str("output", outputDir).Dur("debounce", debounce).Msg("Watching database")

	if err := cmd.export(ctx, path, outputDir, out); err != nil {
		log.Warn().Err(err).Msg("Initial export failed, waiting for changes")
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Info().Msg("Watcher stopped")
			return nil

		case <-fire:
			fire = nil
			if err := cmd.export(ctx, path, outputDir, out); err != nil {
				log.Error().Err(err).Msg("Export failed")
			}

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			log.Debug().Str("op", ev.Op.String()).Msg("Database changed")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Stop()
				timer.Reset(debounce)
			}
			fire = timer.C

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(watchErr).Msg("Watcher error")
		}
	}
}

func (cmd *WatchCommand) export(ctx context.Context, path, outputDir string, out io.Writer) error {
	data, err := readDatabase(path)
	if err != nil {
		return err
	}

	fingerprint := kobo.Fingerprint(data)
	if fingerprint == cmd.lastFingerprint {
		log.Debug().Str("fingerprint", fingerprint).Msg("Database unchanged, skipping export")
		return nil
	}

	db, err := kobo.Load(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	defer db.Close()

	result, err := exporters.ExportLibrary(ctx, db, outputDir)
	if err != nil {
		return err
	}
	cmd.lastFingerprint = fingerprint

	printExportResult(out, result, outputDir)
	if cmd.OnExport != nil {
		cmd.OnExport(fingerprint, result)
	}
	return nil
}
