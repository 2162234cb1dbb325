package session

import "errors"

var (
	// ErrNoHighlights is returned when the selected book has no visible highlights.
	ErrNoHighlights = errors.New("book has no highlights")
	// ErrLoadInProgress is returned when a database upload is already being loaded.
	ErrLoadInProgress = errors.New("a database is already being loaded")
	// ErrInvalidState is returned when an action is not allowed in the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrBookNotFound is returned when a content id is not part of the loaded catalog.
	ErrBookNotFound = errors.New("book not found in catalog")
	// ErrUnknownFormat is returned for export formats that are not registered.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrClosed is returned by sessions that were closed or swept.
	ErrClosed = errors.New("session closed")
)
