// Package testutil builds Kobo-shaped SQLite databases for tests.
package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const contentSchema = `CREATE TABLE content (
	ContentID TEXT NOT NULL,
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
	___UserId TEXT,
	PRIMARY KEY (ContentID)
)`

const bookmarkSchema = `CREATE TABLE bookmark (
	BookmarkID TEXT NOT NULL,
	VolumeID TEXT NOT NULL,
	ContentID TEXT NOT NULL,
	Text TEXT,
	Annotation TEXT,
	ContextString TEXT,
	Hidden TEXT DEFAULT 'false',
	ChapterProgress REAL DEFAULT 0,
	PRIMARY KEY (BookmarkID)
)`

// Content is a row of the content table. Nil pointer-like fields (any) are stored as NULL.
type Content struct {
	ContentID     string
	ContentType   int
	Title         any
	Subtitle      any
	Author        any
	Publisher     any
	ISBN          any
	DateCreated   any
	PercentRead   any
	ReadStatus    int
	DateLastRead  any
	Accessibility int
	UserID        any
}

// Bookmark is a row of the bookmark table.
type Bookmark struct {
	ID              string
	VolumeID        string
	ContentID       string
	Text            any
	Annotation      any
	Hidden          string
	ChapterProgress float64
}

// Fixture describes the rows of a generated database.
type Fixture struct {
	Content   []Content
	Bookmarks []Bookmark
	// WAL leaves the file with a WAL journal header, as copied from a device.
	WAL bool
}

// OwnedBook returns a store-bought book owned by a device user.
func OwnedBook(contentID, title, author string) Content {
	return Content{
		ContentID:     contentID,
		ContentType:   6,
		Title:         title,
		Author:        author,
		Publisher:     "Test Publisher",
		ISBN:          "9780000000001",
		DateCreated:   "2021-05-04T00:00:00Z",
		PercentRead:   42,
		ReadStatus:    1,
		DateLastRead:  "2024-03-04T10:11:12Z",
		Accessibility: 1,
		UserID:        "user-1",
	}
}

// KoboDatabasePath writes the fixture to a file in t.TempDir and returns its path.
func KoboDatabasePath(t *testing.T, fixture Fixture) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "KoboReader.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if fixture.WAL {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			t.Fatalf("Failed to enable WAL: %v", err)
		}
	}

	for _, schema := range []string{contentSchema, bookmarkSchema} {
		if _, err := db.Exec(schema); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	for _, c := range fixture.Content {
		_, err := db.Exec(`
			INSERT INTO content (
				ContentID, ContentType, Title, Subtitle, Attribution, Publisher, ISBN,
				DateCreated, ___PercentRead, ReadStatus, DateLastRead, Accessibility, ___UserId
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, c.ContentID, c.ContentType, c.Title, c.Subtitle, c.Author, c.Publisher, c.ISBN,
			c.DateCreated, c.PercentRead, c.ReadStatus, c.DateLastRead, c.Accessibility, c.UserID)
		if err != nil {
			t.Fatalf("Failed to insert content %s: %v", c.ContentID, err)
		}
	}

	for i, b := range fixture.Bookmarks {
		id := b.ID
		if id == "" {
			id = b.VolumeID + "#" + string(rune('a'+i))
		}
		hidden := b.Hidden
		if hidden == "" {
			hidden = "false"
		}
		contentID := b.ContentID
		if contentID == "" {
			contentID = b.VolumeID
		}
		_, err := db.Exec(`
			INSERT INTO bookmark (BookmarkID, VolumeID, ContentID, Text, Annotation, Hidden, ChapterProgress)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, b.VolumeID, contentID, b.Text, b.Annotation, hidden, b.ChapterProgress)
		if err != nil {
			t.Fatalf("Failed to insert bookmark %s: %v", id, err)
		}
	}

	return path
}

// KoboDatabase returns the raw bytes of a database built from fixture.
func KoboDatabase(t *testing.T, fixture Fixture) []byte {
	t.Helper()
	return readFile(t, KoboDatabasePath(t, fixture))
}

// SQLiteDatabase returns the bytes of a database built from arbitrary statements.
func SQLiteDatabase(t *testing.T, statements ...string) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "other.sqlite")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			t.Fatalf("Failed to execute %q: %v", stmt, err)
		}
	}
	// Force the file to exist even without statements.
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}
	db.Close()

	return readFile(t, path)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read database file: %v", err)
	}
	return data
}
