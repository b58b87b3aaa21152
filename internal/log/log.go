// Package log provides the application's structured logging surface: a
// small leveled API over zerolog with key-value pairs.
package log

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
)

// SetLevel sets the minimum level from a config string ("debug", "info",
// "warn", "error"). Unknown values fall back to info.
func SetLevel(s string) {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	mu.Lock()
	logger = logger.Level(lvl)
	mu.Unlock()
}

func Debug(msg string, kv ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Debug().Fields(kv).Msg(msg)
}

func Info(msg string, kv ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Fields(kv).Msg(msg)
}

func Warn(msg string, kv ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Warn().Fields(kv).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Error().Err(err).Fields(kv).Msg(msg)
}
