// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	gormlogger "gorm.io/gorm/logger"
)

// Output formats accepted by Setup.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options controls the global logger.
type Options struct {
	Level  string
	Format string
}

// Setup installs the global logger writing to stderr.
func Setup(opts Options) zerolog.Logger {
	return SetupWithWriter(opts, os.Stderr)
}

// SetupWithWriter installs the global logger writing to w. Console output is
// used for FormatConsole, and for FormatAuto when w is a terminal.
func SetupWithWriter(opts Options, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if useConsole(opts.Format, w) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

func useConsole(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case FormatConsole:
		return true
	case FormatJSON:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// gormWriter forwards gorm messages to the global logger.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...any) {
	log.Warn().Str("component", "gorm").Msgf(format, args...)
}

// GormLogger returns a gorm logger that reports slow queries and errors
// through zerolog. Record-not-found is expected for lookups and is not logged.
func GormLogger() gormlogger.Interface {
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
