// Package logutils builds the zerolog loggers used by the CLI.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// MaxFileSize is the size at which a log file is rotated to "<file>.1" when
// the logger is opened. Only one previous file is kept.
const MaxFileSize = 5 << 20

var isTerminal = func(f *os.File) bool { return term.IsTerminal(int(f.Fd())) }

// New returns a logger at level. With a file the logger appends JSON lines
// to it; otherwise it writes to stderr, in console form when stderr is a
// terminal, so command output on stdout stays clean. The returned func
// closes the file and is safe to call when there is none.
func New(level string, file string) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("parse log level %q: %w", level, err)
	}

	if file == "" {
		var w io.Writer = os.Stderr
		if isTerminal(os.Stderr) {
			w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
		return build(w, lvl), closer, nil
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
	}
	if err := rotate(file, MaxFileSize); err != nil {
		return zerolog.Logger{}, closer, err
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Logger{}, closer, fmt.Errorf("open log file: %w", err)
	}
	return build(f, lvl), func() { _ = f.Close() }, nil
}

func build(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// rotate renames file to file.1 once it reaches limit bytes.
func rotate(file string, limit int64) error {
	info, err := os.Stat(file)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("stat log file: %w", err)
	case info.Size() < limit:
		return nil
	}

	if err := os.Rename(file, file+".1"); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}
