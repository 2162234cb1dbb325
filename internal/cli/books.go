package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// BooksCommand prints the catalog of a device database.
type BooksCommand struct {
	DatabasePath string
}

func NewBooksCommand() *BooksCommand {
	return &BooksCommand{}
}

func (cmd *BooksCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:     "books",
		Short:   "List the books of a KoboReader.sqlite file",
		Example: "  kobohighlights books --db /Volumes/KOBOeReader/.kobo/KoboReader.sqlite",
		Args:    cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.Run(c.Context(), c.OutOrStdout())
		},
	}
	c.Flags().StringVar(&cmd.DatabasePath, "db", DefaultDatabasePath, "Path to KoboReader.sqlite")
	return c
}

func (cmd *BooksCommand) Run(ctx context.Context, out io.Writer) error {
	db, err := openDatabase(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	books, err := db.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	if len(books) == 0 {
		fmt.Fprintln(out, "No books found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tAUTHOR\tPUBLISHER\tRELEASED\tREAD\tLAST READ\tCONTENT ID")
	for _, book := range books {
		display := book.Display()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			book.Title, book.Author, book.Publisher,
			display.ReleaseDate, display.ReadPercent, display.LastRead, book.ContentID)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d books\n", len(books))
	return nil
}
