// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a JSON logger on stdout, or a console logger when env is
// "development". Unknown levels fall back to info.
func New(level, env string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter is New with an explicit writer.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
