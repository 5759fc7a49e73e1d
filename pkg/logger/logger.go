// Package logger builds the process-wide zerolog logger. Output is JSON
// lines by default; dev mode switches to the human-readable console
// writer. Caller annotation stays on in both modes so warnings from the
// pipeline stages point at their source.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects log level and output format.
type Config struct {
	Level  string // debug, info, warn, error; anything else means info
	Pretty bool
}

// New creates the root logger and sets the global level.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetGlobalLogger replaces zerolog's package-level logger, so code using
// the log.X shortcuts writes through the configured root.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
