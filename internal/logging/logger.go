// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var logger *zerolog.Logger

// Init builds the global logger. console receives human-readable output and
// may be nil to silence it (while the progress UI owns the terminal). When
// file is set, log lines are also appended to it.
func Init(level string, file string, console io.Writer) (io.Closer, error) {
	var writers []io.Writer
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"})
	}

	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: "2006-01-02 15:04:05"})
		closer = f
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	l := zerolog.New(out).Level(parseLevel(level)).With().Timestamp().Logger()
	logger = &l
	return closer, nil
}

// Get returns the global logger, or a discarding one before Init.
func Get() *zerolog.Logger {
	if logger == nil {
		l := zerolog.New(io.Discard)
		logger = &l
	}
	return logger
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
