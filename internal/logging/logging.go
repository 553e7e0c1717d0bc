// Package logging wraps zerolog with the four levels and colored,
// timestamped texture of the teacher's bare Log(level, msg string)
// function, typed and structured instead of a single switch statement.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-rendered logger. debug controls whether Debug-level
// calls are emitted at all, mirroring the teacher's `config.Debug` gate.
func New(debug bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// Info logs at info level, matching the teacher's Log("info", msg).
func Info(log zerolog.Logger, msg string) { log.Info().Msg(msg) }

// Warn logs at warn level, matching the teacher's Log("warn", msg).
func Warn(log zerolog.Logger, msg string) { log.Warn().Msg(msg) }

// Error logs at error level, matching the teacher's Log("error", msg).
func Error(log zerolog.Logger, msg string) { log.Error().Msg(msg) }

// Debug logs at debug level, suppressed unless the logger was built with
// debug=true, matching the teacher's `if level == "debug" && !config.Debug`
// gate.
func Debug(log zerolog.Logger, msg string) { log.Debug().Msg(msg) }

// init keeps zerolog's global timestamp format aligned with the console
// writer above when a caller builds a bare zerolog.Logger elsewhere (e.g.
// in tests) without going through New.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
