// Package logging adapts zerolog to the asyncnet.Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andrei-cloud/asyncnet"
	"github.com/rs/zerolog"
)

// Logger writes asyncnet log events through a zerolog.Logger.
type Logger struct {
	l zerolog.Logger
}

var _ asyncnet.Logger = (*Logger)(nil)

// New returns a timestamped logger writing to w at the given level. An empty
// or unknown level means info. A nil w writes to stderr.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return &Logger{l: zerolog.New(w).Level(lvl).With().Timestamp().Logger()}
}

// Console returns a human-readable logger for interactive use.
func Console(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}

	return New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}, level)
}

// With returns a child logger tagged with component.
func (lg *Logger) With(component string) *Logger {
	return &Logger{l: lg.l.With().Str("component", component).Logger()}
}

func (lg *Logger) Print(v ...any) {
	lg.l.Info().Msg(fmt.Sprint(v...))
}

func (lg *Logger) Printf(format string, v ...any) {
	lg.l.Info().Msgf(format, v...)
}

func (lg *Logger) Debugf(format string, v ...any) {
	lg.l.Debug().Msgf(format, v...)
}

func (lg *Logger) Infof(format string, v ...any) {
	lg.l.Info().Msgf(format, v...)
}

func (lg *Logger) Warnf(format string, v ...any) {
	lg.l.Warn().Msgf(format, v...)
}

func (lg *Logger) Errorf(format string, v ...any) {
	lg.l.Error().Msgf(format, v...)
}
