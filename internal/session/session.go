// Package session holds the per-client workspace: the loaded device database,
// its catalog and the currently open highlight dialog.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/kobohighlights/internal/clipboard"
	"github.com/mrlokans/kobohighlights/internal/entities"
	"github.com/mrlokans/kobohighlights/internal/exporters"
	"github.com/mrlokans/kobohighlights/internal/kobo"
)

type State string

const (
	NoFileLoaded        State = "no_file_loaded"
	FileLoading         State = "file_loading"
	CatalogReady        State = "catalog_ready"
	HighlightDialogOpen State = "highlight_dialog_open"
)

// Database is an opened device database owned by a session.
type Database interface {
	exporters.Library
	Close() error
}

// Loader opens a database from uploaded bytes.
type Loader func(ctx context.Context, data []byte) (Database, error)

// KoboLoader loads Kobo device databases.
func KoboLoader(ctx context.Context, data []byte) (Database, error) {
	db, err := kobo.Load(ctx, data)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Dialog is the book whose highlights are currently displayed.
type Dialog struct {
	Book       entities.Book        `json:"book"`
	Highlights []entities.Highlight `json:"highlights"`
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID          string `json:"id"`
	State       State  `json:"state"`
	Books       int    `json:"books"`
	Fingerprint string `json:"fingerprint,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
}

// Session is the state machine for one client. Upload replaces the database
// handle and catalog together. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id    string
	load  Loader
	now   func() time.Time
	state State

	db         Database
	catalog    []entities.Book
	index      map[string]int
	dialog     *Dialog
	lastCopied *string
	lastActive time.Time
	closed     bool
}

func New(id string, load Loader) *Session {
	return newSession(id, load, time.Now)
}

func newSession(id string, load Loader, now func() time.Time) *Session {
	return &Session{
		id:         id,
		load:       load,
		now:        now,
		state:      NoFileLoaded,
		lastActive: now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{ID: s.id, State: s.state, Books: len(s.catalog)}
	if s.db != nil {
		info.Fingerprint = s.db.Fingerprint()
	}
	if s.dialog != nil {
		info.ContentID = s.dialog.Book.ContentID
	}
	return info
}

// Upload loads a new database and installs it with its catalog. On failure the
// previous database is released and the session returns to NoFileLoaded.
// A second upload while one is loading fails with ErrLoadInProgress.
func (s *Session) Upload(ctx context.Context, data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == FileLoading {
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	s.state = FileLoading
	s.lastActive = s.now()
	s.mu.Unlock()

	db, books, err := s.open(ctx, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		if db != nil {
			closeDatabase(db)
		}
		s.state = NoFileLoaded
		return ErrClosed
	}

	s.releaseLocked()
	s.lastActive = s.now()

	if err != nil {
		s.state = NoFileLoaded
		return err
	}

	s.db = db
	s.catalog = books
	s.index = make(map[string]int, len(books))
	for i, book := range books {
		s.index[book.ContentID] = i
	}
	s.state = CatalogReady

	log.Info().
		Str("session", s.id).
		Str("fingerprint", db.Fingerprint()).
		Int("books", len(books)).
		Msg("Database loaded")

	return nil
}

func (s *Session) open(ctx context.Context, data []byte) (Database, []entities.Book, error) {
	db, err := s.load(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	books, err := db.Catalog(ctx)
	if err != nil {
		closeDatabase(db)
		return nil, nil, fmt.Errorf("%w: %v", kobo.ErrMalformedFile, err)
	}
	return db, books, nil
}

// Catalog returns the books of the loaded database.
func (s *Session) Catalog() ([]entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasCatalogLocked() {
		return nil, ErrInvalidState
	}
	s.lastActive = s.now()

	books := make([]entities.Book, len(s.catalog))
	copy(books, s.catalog)
	return books, nil
}

// SelectBook queries the highlights of a catalog book and opens the dialog.
// When the book has no highlights ErrNoHighlights is returned and the current
// catalog and dialog are left untouched. Highlights are never cached per book.
func (s *Session) SelectBook(ctx context.Context, contentID string) (Dialog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasCatalogLocked() {
		return Dialog{}, ErrInvalidState
	}
	s.lastActive = s.now()

	i, ok := s.index[contentID]
	if !ok {
		return Dialog{}, fmt.Errorf("%w: %s", ErrBookNotFound, contentID)
	}
	book := s.catalog[i]

	highlights, err := s.db.Highlights(ctx, contentID)
	if err != nil {
		return Dialog{}, err
	}
	if len(highlights) == 0 {
		return Dialog{}, fmt.Errorf("%w: %s", ErrNoHighlights, book.Title)
	}

	s.dialog = &Dialog{Book: book, Highlights: highlights}
	s.state = HighlightDialogOpen

	return s.dialogLocked(), nil
}

// Highlights returns the open dialog.
func (s *Session) Highlights() (Dialog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != HighlightDialogOpen {
		return Dialog{}, ErrInvalidState
	}
	s.lastActive = s.now()
	return s.dialogLocked(), nil
}

// CloseDialog discards the displayed highlights and returns to the catalog.
// Closing when no dialog is open is a no-op.
func (s *Session) CloseDialog() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case HighlightDialogOpen:
		s.dialog = nil
		s.state = CatalogReady
	case CatalogReady:
	default:
		return ErrInvalidState
	}
	s.lastActive = s.now()
	return nil
}

// Copy renders the open dialog with the named format and hands the text to w.
// The rendered text is returned and kept for LastCopied even when w fails;
// a failed write leaves the state unchanged.
func (s *Session) Copy(ctx context.Context, formatName string, w clipboard.Writer) (string, error) {
	format, ok := exporters.Lookup(formatName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, formatName)
	}

	s.mu.Lock()
	if s.state != HighlightDialogOpen {
		s.mu.Unlock()
		return "", ErrInvalidState
	}
	text := format.Render(s.dialog.Highlights)
	s.lastCopied = &text
	s.lastActive = s.now()
	s.mu.Unlock()

	if err := w.WriteText(ctx, text); err != nil {
		log.Warn().Err(err).Str("session", s.id).Str("format", formatName).Msg("Clipboard write failed")
		return text, err
	}
	return text, nil
}

// LastCopied returns the most recently rendered copy text.
func (s *Session) LastCopied() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastCopied == nil {
		return "", false
	}
	return *s.lastCopied, true
}

// LastActive returns the time of the last action on the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Close releases the database. Later actions fail with ErrClosed or ErrInvalidState.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	s.db = nil
	s.catalog = nil
	s.index = nil
	s.dialog = nil
	if s.state != FileLoading {
		s.state = NoFileLoaded
	}
	return err
}

func (s *Session) hasCatalogLocked() bool {
	return s.state == CatalogReady || s.state == HighlightDialogOpen
}

func (s *Session) dialogLocked() Dialog {
	highlights := make([]entities.Highlight, len(s.dialog.Highlights))
	copy(highlights, s.dialog.Highlights)
	return Dialog{Book: s.dialog.Book, Highlights: highlights}
}

// releaseLocked drops the current database, catalog and dialog.
func (s *Session) releaseLocked() {
	if s.db != nil {
		closeDatabase(s.db)
	}
	s.db = nil
	s.catalog = nil
	s.index = nil
	s.dialog = nil
}

func closeDatabase(db Database) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
