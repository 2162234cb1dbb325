package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrlokans/kobohighlights/internal/exporters"
)

// ExportAllCommand writes a Markdown file for every book with highlights.
type ExportAllCommand struct {
	DatabasePath string
	OutputDir    string
}

func NewExportAllCommand() *ExportAllCommand {
	return &ExportAllCommand{}
}

func (cmd *ExportAllCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:     "export-all",
		Short:   "Export the highlights of every book as Markdown files",
		Example: "  kobohighlights export-all --db KoboReader.sqlite --output ~/Obsidian/Highlights",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.Run(c.Context(), c.OutOrStdout())
		},
	}
	c.Flags().StringVar(&cmd.DatabasePath, "db", DefaultDatabasePath, "Path to KoboReader.sqlite")
	c.Flags().StringVar(&cmd.OutputDir, "output", "", "Directory for the Markdown files (required)")
	_ = c.MarkFlagRequired("output")
	return c
}

func (cmd *ExportAllCommand) Run(ctx context.Context, out io.Writer) error {
	outputDir, err := filepath.Abs(cmd.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for output: %w", err)
	}

	db, err := openDatabase(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := exporters.ExportLibrary(ctx, db, outputDir)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	printExportResult(out, result, outputDir)
	return nil
}

func printExportResult(out io.Writer, result exporters.ExportResult, dir string) {
	fmt.Fprintf(out, "Exported %d books (%d highlights) to %s\n",
		result.BooksProcessed, result.HighlightsProcessed, dir)
	if result.BooksSkipped > 0 {
		fmt.Fprintf(out, "%d books without highlights skipped\n", result.BooksSkipped)
	}
	if result.BooksFailed > 0 {
		fmt.Fprintf(out, "%d books failed to export\n", result.BooksFailed)
	}
}
