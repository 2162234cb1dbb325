package kobo

import (
	"context"
	"fmt"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

// ResultSet is a query result as returned by the engine: column names plus
// positional rows whose values are strings, numbers or nil.
type ResultSet struct {
	Columns []string
	Values  [][]any
}

// Exec runs a read-only statement and collects every row.
func (d *Database) Exec(ctx context.Context, query string, args ...any) (ResultSet, error) {
	rows, err := d.orm.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to read columns: %w", err)
	}

	result := ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return ResultSet{}, fmt.Errorf("failed to scan row: %w", err)
		}
		result.Values = append(result.Values, values)
	}

	if err := rows.Err(); err != nil {
		return ResultSet{}, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// Catalog returns the owned books of the device, store purchases first.
func (d *Database) Catalog(ctx context.Context) ([]entities.Book, error) {
	result, err := d.Exec(ctx, CatalogQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	return MapCatalogRows(result.Values), nil
}

// Highlights returns the visible highlights of one book in reading order.
func (d *Database) Highlights(ctx context.Context, contentID string) ([]entities.Highlight, error) {
	result, err := d.Exec(ctx, HighlightQuery, contentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highlights for %q: %w", contentID, err)
	}
	return MapHighlightRows(result.Values), nil
}
