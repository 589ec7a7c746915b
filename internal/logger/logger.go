// SPDX-License-Identifier: EPL-2.0

// Package logger builds the zerolog logger shared by the backend services.
package logger

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a LOG_LEVEL value to a zerolog level. Unknown or empty
// values fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to w. With asJSON false the output goes
// through a human readable console writer.
func New(w io.Writer, level string, asJSON bool) zerolog.Logger {
	out := w
	if !asJSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}
