package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mrlokans/kobohighlights/internal/clipboard"
	"github.com/mrlokans/kobohighlights/internal/exporters"
	"github.com/mrlokans/kobohighlights/internal/session"
)

// HighlightsCommand renders the highlights of one book to stdout or the clipboard.
type HighlightsCommand struct {
	DatabasePath string
	ContentID    string
	Format       string
	Copy         bool

	clipboard clipboard.Writer
}

func NewHighlightsCommand() *HighlightsCommand {
	return &HighlightsCommand{
		Format:    exporters.FormatMarkdown,
		clipboard: clipboard.NewSystem(),
	}
}

func (cmd *HighlightsCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "highlights",
		Short: "Print or copy the highlights of one book",
		Example: "  kobohighlights highlights --db KoboReader.sqlite --book file:///mnt/onboard/dune.epub\n" +
			"  kobohighlights highlights --db KoboReader.sqlite --book <id> --format json --copy",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.Run(c.Context(), c.OutOrStdout())
		},
	}

	flags := c.Flags()
	flags.StringVar(&cmd.DatabasePath, "db", DefaultDatabasePath, "Path to KoboReader.sqlite")
	flags.StringVar(&cmd.ContentID, "book", "", "Content ID of the book, as printed by 'books' (required)")
	flags.StringVar(&cmd.Format, "format", cmd.Format,
		fmt.Sprintf("Output format (%s)", strings.Join(exporters.Names(), ", ")))
	flags.BoolVar(&cmd.Copy, "copy", false, "Copy to the system clipboard instead of printing")
	_ = c.MarkFlagRequired("book")

	return c
}

func (cmd *HighlightsCommand) Run(ctx context.Context, out io.Writer) error {
	if _, ok := exporters.Lookup(cmd.Format); !ok {
		return fmt.Errorf("unknown format %q, expected one of: %s", cmd.Format, strings.Join(exporters.Names(), ", "))
	}

	data, err := readDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}

	ws := session.New("cli", session.KoboLoader)
	defer ws.Close()

	if err := ws.Upload(ctx, data); err != nil {
		return fmt.Errorf("failed to load %s: %w", cmd.DatabasePath, err)
	}

	dialog, err := ws.SelectBook(ctx, cmd.ContentID)
	if err != nil {
		return fmt.Errorf("book %q: %w", cmd.ContentID, err)
	}

	var w clipboard.Writer = clipboard.NewStream(out)
	if cmd.Copy {
		w = cmd.clipboard
	}

	text, err := ws.Copy(ctx, cmd.Format, w)
	if err != nil {
		if cmd.Copy && errors.Is(err, clipboard.ErrUnavailable) {
			log.Warn().Err(err).Msg("Clipboard unavailable, printing highlights instead")
			_, werr := io.WriteString(out, text)
			return werr
		}
		return err
	}

	if cmd.Copy {
		fmt.Fprintf(out, "Copied %d highlights from %q to the clipboard\n", len(dialog.Highlights), dialog.Book.Title)
	}
	return nil
}
