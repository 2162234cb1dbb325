package kobo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/kobohighlights/internal/testutil"
)

func TestLoad_ValidDatabase(t *testing.T) {
	data := testutil.KoboDatabase(t, testutil.Fixture{
		Content: []testutil.Content{testutil.OwnedBook("book-1", "Dune", "Frank Herbert")},
	})

	db, err := Load(context.Background(), data)
	require.NoError(t, err)
	defer db.Close()

	assert.Len(t, db.Fingerprint(), 64)
	assert.Equal(t, Fingerprint(data), db.Fingerprint())
	assert.Equal(t, len(data), db.Size())
}

func TestLoad_FreshHandlePerCall(t *testing.T) {
	data := testutil.KoboDatabase(t, testutil.Fixture{
		Content: []testutil.Content{testutil.OwnedBook("book-1", "Dune", "Frank Herbert")},
	})

	first, err := Load(context.Background(), data)
	require.NoError(t, err)
	second, err := Load(context.Background(), data)
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Close())

	books, err := second.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func TestLoad_MalformedInputs(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "plain text", data: []byte("this is not a sqlite database")},
		{name: "truncated header", data: []byte("SQLite format 3\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Load(context.Background(), tt.data)
			assert.Nil(t, db)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedFile), "expected ErrMalformedFile, got %v", err)
			assert.False(t, errors.Is(err, ErrInitialization))
		})
	}
}

func TestLoad_MissingTable(t *testing.T) {
	data := testutil.SQLiteDatabase(t, `CREATE TABLE other_table (id INTEGER PRIMARY KEY)`)

	_, err := Load(context.Background(), data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedFile)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "content", schemaErr.Table)
	assert.Empty(t, schemaErr.Column)
}

func TestLoad_MissingColumn(t *testing.T) {
	data := testutil.SQLiteDatabase(t,
		`CREATE TABLE content (ContentID TEXT, Title TEXT)`,
		`CREATE TABLE bookmark (VolumeID TEXT, Text TEXT)`,
	)

	_, err := Load(context.Background(), data)
	require.Error(t, err)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "content", schemaErr.Table)
	assert.Equal(t, "Subtitle", schemaErr.Column)
	assert.Contains(t, err.Error(), "missing required column: content.Subtitle")
}

func TestLoad_WALImage(t *testing.T) {
	data := testutil.KoboDatabase(t, testutil.Fixture{
		Content: []testutil.Content{testutil.OwnedBook("book-1", "Dune", "Frank Herbert")},
		WAL:     true,
	})
	require.Equal(t, byte(journalVersionWAL), data[writeVersionOffset])

	db, err := Load(context.Background(), data)
	require.NoError(t, err)
	defer db.Close()

	books, err := db.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 1)
	// The caller's bytes are never modified.
	assert.Equal(t, byte(journalVersionWAL), data[writeVersionOffset])
}

func TestLoad_ReadOnly(t *testing.T) {
	data := testutil.KoboDatabase(t, testutil.Fixture{
		Content: []testutil.Content{testutil.OwnedBook("book-1", "Dune", "Frank Herbert")},
	})

	db, err := Load(context.Background(), data)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(context.Background(), "DELETE FROM content")
	assert.Error(t, err)
}

func TestPrepareImage(t *testing.T) {
	t.Run("short input is returned as is", func(t *testing.T) {
		data := []byte("short")
		assert.Equal(t, data, prepareImage(data))
	})

	t.Run("rollback journal image is not copied", func(t *testing.T) {
		data := make([]byte, sqliteHeaderSize)
		data[writeVersionOffset], data[readVersionOffset] = 1, 1
		out := prepareImage(data)
		assert.Same(t, &data[0], &out[0])
	})

	t.Run("wal image is rewritten on a copy", func(t *testing.T) {
		data := make([]byte, sqliteHeaderSize)
		data[writeVersionOffset], data[readVersionOffset] = 2, 2
		out := prepareImage(data)
		assert.Equal(t, byte(1), out[writeVersionOffset])
		assert.Equal(t, byte(1), out[readVersionOffset])
		assert.Equal(t, byte(2), data[writeVersionOffset])
	})
}

func TestLoad_IdentifierCaseInsensitive(t *testing.T) {
	data := testutil.SQLiteDatabase(t,
		`CREATE TABLE content (
			contentID TEXT NOT NULL PRIMARY KEY,
			ContentType INTEGER,
			Title TEXT,
			Subtitle TEXT,
			Attribution TEXT,
			Publisher TEXT,
			ISBN TEXT,
			DateCreated TEXT,
			Series TEXT,
			SeriesNumber TEXT,
			AverageRating REAL,
			___PercentRead INTEGER,
			ReadStatus INTEGER,
			DateLastRead TEXT,
			___FileSize INTEGER,
			Accessibility INTEGER,
			___UserID TEXT
		)`,
		`CREATE TABLE Bookmark (
			BookmarkID TEXT NOT NULL PRIMARY KEY,
			VolumeID TEXT NOT NULL,
			ContentID TEXT NOT NULL,
			Text TEXT,
			Annotation TEXT,
			ContextString TEXT,
			Hidden TEXT DEFAULT 'false',
			ChapterProgress REAL DEFAULT 0
		)`,
		`INSERT INTO content (contentID, ContentType, Title, Attribution, Accessibility, ReadStatus, ___UserID)
			VALUES ('book-1', 6, 'Dune', 'Frank Herbert', 1, 0, 'user-1')`,
		`INSERT INTO Bookmark (BookmarkID, VolumeID, ContentID, Text, ChapterProgress)
			VALUES ('bm-1', 'book-1', 'book-1', 'Fear is the mind-killer.', 0.1)`,
	)

	db, err := Load(context.Background(), data)
	require.NoError(t, err)
	defer db.Close()

	books, err := db.Catalog(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	highlights, err := db.Highlights(context.Background(), "book-1")
	require.NoError(t, err)
	require.Len(t, highlights, 1)
	assert.Equal(t, "Fear is the mind-killer.", highlights[0].HighlightText)
}

func TestLoad_MissingColumnStillRejected(t *testing.T) {
	data := testutil.SQLiteDatabase(t,
		`CREATE TABLE content (ContentID TEXT, ContentType INTEGER)`,
		`CREATE TABLE bookmark (VolumeID TEXT)`,
	)

	_, err := Load(context.Background(), data)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "content", schemaErr.Table)
	assert.Equal(t, "Title", schemaErr.Column)
}

func TestLoad_ReleasesImageAfterConnect(t *testing.T) {
	data := testutil.KoboDatabase(t, testutil.Fixture{
		Content: []testutil.Content{testutil.OwnedBook("book-1", "Dune", "Frank Herbert")},
	})

	db, err := Load(context.Background(), data)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.connector.released())

	// Later queries reuse the connection that owns the engine's copy.
	for i := 0; i < 3; i++ {
		books, err := db.Catalog(context.Background())
		require.NoError(t, err)
		assert.Len(t, books, 1)
	}
	assert.Equal(t, 1, db.sqlDB.Stats().OpenConnections)
}

func TestImageConnector_RefusesSecondConnection(t *testing.T) {
	connector := newImageConnector([]byte("image"))
	connector.release()

	_, err := connector.Connect(context.Background())

	assert.ErrorIs(t, err, errImageReleased)
}
