package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mrlokans/kobohighlights/internal/kobo"
)

// DefaultDatabasePath is where a mounted Kobo keeps its database on most systems.
const DefaultDatabasePath = "/Volumes/KOBOeReader/.kobo/KoboReader.sqlite"

func readDatabase(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database file: %w", err)
	}
	return data, nil
}

// openDatabase loads the database file into memory. The file itself is never
// opened by the engine, so a mounted device can be ejected right after.
func openDatabase(ctx context.Context, path string) (*kobo.Database, error) {
	data, err := readDatabase(path)
	if err != nil {
		return nil, err
	}

	db, err := kobo.Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return db, nil
}
