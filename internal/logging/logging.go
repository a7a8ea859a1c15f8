// Package logging builds the zerolog loggers used across the build.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Level is a log level name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the log encoding.
type Format string

const (
	// FormatConsole writes human-readable lines, colored on terminals.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON Format = "json"
)

// Defaults applied to empty configuration values.
const (
	DefaultLevel  = LevelWarn
	DefaultFormat = FormatConsole
)

// consoleTimeFormat keeps console lines short.
const consoleTimeFormat = "15:04:05"

// Sentinel errors for logger construction.
var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// ParseLevel maps a level name to its zerolog level. An empty name selects
// DefaultLevel.
func ParseLevel(name string) (zerolog.Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return ParseLevel(string(DefaultLevel))
	case LevelDebug:
		return zerolog.DebugLevel, nil
	case LevelInfo:
		return zerolog.InfoLevel, nil
	case LevelWarn, "warning":
		return zerolog.WarnLevel, nil
	case LevelError:
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("%w: %q (expected debug, info, warn or error)", ErrInvalidLevel, name)
	}
}

// ValidateFormat checks a format name. An empty name is valid.
func ValidateFormat(name string) error {
	switch Format(strings.ToLower(name)) {
	case "", FormatConsole, FormatJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected console or json)", ErrInvalidFormat, name)
	}
}

// New returns a logger writing to w at the given level and format. The
// level is set on the logger itself, never globally, so several loggers
// can coexist in one process.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if err := ValidateFormat(format); err != nil {
		return zerolog.Nop(), err
	}

	out := w
	if Format(strings.ToLower(format)) != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: consoleTimeFormat,
			NoColor:    !isTerminal(w),
		}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Component derives a child logger tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
