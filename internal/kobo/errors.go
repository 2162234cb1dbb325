package kobo

import (
	"errors"
	"fmt"
)

// ErrInitialization indicates the query engine could not be started for the upload.
var ErrInitialization = errors.New("database engine initialization failed")

// ErrMalformedFile indicates the uploaded bytes are not a usable Kobo database image.
var ErrMalformedFile = errors.New("file is not a valid Kobo database")

// SchemaError names the table or column missing from an otherwise valid SQLite image.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("missing required table: %s", e.Table)
	}
	return fmt.Sprintf("missing required column: %s.%s", e.Table, e.Column)
}

// Is lets errors.Is(err, ErrMalformedFile) match schema failures.
func (e *SchemaError) Is(target error) bool {
	return target == ErrMalformedFile
}
