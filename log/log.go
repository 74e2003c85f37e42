// Package log wraps zerolog with a small, level-based API for host code.
// No other package of this module logs through it: rejected fragments and
// certificates are reported only as returned errors.
package log

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var (
	logger   zerolog.Logger
	loggerMu sync.RWMutex
)

func init() {
	// Always have a usable logger, even if Init is never called, so
	// library code (and tests that don't care about log output) can log
	// freely without nil-checking.
	Init(cmp.Or(os.Getenv("BALLOTCORE_LOG_LEVEL"), LevelError), "stderr")
}

var testWriter io.Writer // overridden by tests that want to capture output

const testWriterName = "test"

// Init (re)configures the global logger. output is "stdout", "stderr", or
// the sentinel "test" used by this package's own tests.
func Init(level, output string) {
	var out io.Writer
	switch output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	case testWriterName:
		out = testWriter
	default:
		out = os.Stderr
	}

	l := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}).
		With().Timestamp().Logger()

	switch level {
	case LevelDebug:
		l = l.Level(zerolog.DebugLevel)
	case LevelInfo:
		l = l.Level(zerolog.InfoLevel)
	case LevelWarn:
		l = l.Level(zerolog.WarnLevel)
	case LevelError:
		l = l.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("log: invalid level %q", level))
	}

	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

func current() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { current().Debug().Msgf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { current().Info().Msgf(format, args...) }

// Warnf logs a formatted message at warn level.
func Warnf(format string, args ...any) { current().Warn().Msgf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { current().Error().Msgf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits the process.
func Fatalf(format string, args ...any) { current().Fatal().Msgf(format, args...) }

// Debugw logs a message at debug level with structured key-value pairs.
func Debugw(msg string, keyvals ...any) { current().Debug().Fields(keyvals).Msg(msg) }

// Infow logs a message at info level with structured key-value pairs.
func Infow(msg string, keyvals ...any) { current().Info().Fields(keyvals).Msg(msg) }

// Warnw logs a message at warn level with structured key-value pairs.
func Warnw(msg string, keyvals ...any) { current().Warn().Fields(keyvals).Msg(msg) }

// Errorw logs an error with a message at error level.
func Errorw(err error, msg string) { current().Error().Err(err).Msg(msg) }
