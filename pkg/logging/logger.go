// Package logging provides structured logging for brickpick using zerolog.
// It supports human-readable console output for interactive use and JSON
// output for scripted runs, with logger propagation through context.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("set", "60393-1").Msg("fetching inventory")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	logging.Ctx(ctx).Debug().Msg("using logger from context")
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var (
	mu            sync.RWMutex
	defaultLogger zerolog.Logger

	// Nop discards all output.
	Nop = zerolog.Nop()
)

func init() {
	defaultLogger = NewLoggerFromConfig(DefaultConfig())
}

// Default returns the process-wide default logger.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	logger := defaultLogger
	return &logger
}

// SetDefault replaces the process-wide default logger.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Configure rebuilds the default logger from the given configuration.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// isTerminal reports whether stderr is attached to a terminal, which selects
// console output over JSON.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// consoleWriter returns a human-readable writer for terminal sessions.
func consoleWriter(out io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}
}
