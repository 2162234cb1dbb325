// Package clipboard is the boundary through which formatted exports leave the
// process as text.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when the text could not be written to the clipboard.
var ErrUnavailable = errors.New("clipboard unavailable")

// Writer hands a single string to a clipboard-like destination.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// System writes to the operating system clipboard.
type System struct{}

func NewSystem() *System {
	return &System{}
}

func (s *System) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return fmt.Errorf("%w: no clipboard utility found", ErrUnavailable)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Stream writes the text to an io.Writer, typically stdout for piping.
type Stream struct {
	w io.Writer
}

func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

func (s *Stream) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(s.w, text); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Buffer keeps the last written text in memory. The HTTP API uses it to return
// the formatted text to the browser, which owns the real clipboard.
type Buffer struct {
	mu   sync.Mutex
	text string
	set  bool
}

func (b *Buffer) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.set = true
	return nil
}

// Text returns the last written text and whether anything was written.
func (b *Buffer) Text() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.set
}

var (
	_ Writer = (*System)(nil)
	_ Writer = (*Stream)(nil)
	_ Writer = (*Buffer)(nil)
)
