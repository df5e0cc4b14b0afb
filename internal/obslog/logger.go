// Package obslog wires the process-wide structured logger.
package obslog

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the zerolog logger used across the bridge. level accepts the
// usual zerolog names (debug, info, warn, error); anything else falls back
// to info.
func New(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("LOG_FORMAT")), "json") {
		return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
}
