// Package logger configures the process-wide zerolog logger. All other
// packages log through zerolog's global instance.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	// Level is a zerolog level name: debug, info, warn, error.
	Level string
	// Pretty switches to the human-readable console writer. JSON
	// otherwise.
	Pretty bool
	Output io.Writer
}

// Setup installs the global logger. Unknown level names fall back to
// info.
func Setup(cfg Config) {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	log.Logger = zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}
