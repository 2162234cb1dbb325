package kobo

import (
	"context"
	"fmt"
	"strings"
)

// validateSchema checks that the image is readable SQLite and carries every
// table and column the catalog and highlight queries reference. Names are
// compared case-insensitively, as SQLite resolves them.
func (d *Database) validateSchema(ctx context.Context) error {
	orm := d.orm.WithContext(ctx)

	var tableNames []string
	if err := orm.Raw("SELECT name FROM sqlite_master WHERE type = 'table'").Scan(&tableNames).Error; err != nil {
		return classifyOpenError(err, ErrMalformedFile)
	}
	tables := lowerSet(tableNames)

	for _, table := range requiredTables {
		if !tables[strings.ToLower(table)] {
			return fmt.Errorf("%w: %w", ErrMalformedFile, &SchemaError{Table: table})
		}

		present, err := d.columnNames(ctx, table)
		if err != nil {
			return fmt.Errorf("%w: failed to inspect %s: %v", ErrMalformedFile, table, err)
		}

		for _, column := range requiredColumns[table] {
			if !present[strings.ToLower(column)] {
				return fmt.Errorf("%w: %w", ErrMalformedFile, &SchemaError{Table: table, Column: column})
			}
		}
	}

	return nil
}

// columnNames returns the lower-cased column names of table.
func (d *Database) columnNames(ctx context.Context, table string) (map[string]bool, error) {
	var names []string
	if err := d.orm.WithContext(ctx).Raw("SELECT name FROM pragma_table_info(?)", table).Scan(&names).Error; err != nil {
		return nil, err
	}
	return lowerSet(names), nil
}

func lowerSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return set
}
