// internal/logger/logger.go
package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"time"
)

var globalLogger *slog.Logger // The globally accessible logger

// InitLogger configures the global slog logger for the given APP_ENV.
// debug forces the debug level regardless of environment.
func InitLogger(env string, debug bool) {
	globalLogger = slog.New(newHandler(os.Stdout, env, debug))
	slog.SetDefault(globalLogger)
}

func newHandler(w io.Writer, env string, debug bool) slog.Handler {
	var opts slog.HandlerOptions

	opts.AddSource = true
	opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
		}
		return a
	}

	var handler slog.Handler
	switch env {
	case "development":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, &opts)
	case "development-json":
		opts.Level = slog.LevelDebug
		handler = slog.NewJSONHandler(w, &opts)
	case "production", "staging":
		opts.Level = slog.LevelInfo
		opts.AddSource = false
		if debug {
			opts.Level = slog.LevelDebug
		}
		handler = slog.NewJSONHandler(w, &opts)
	default:
		log.Printf("WARNING: Unknown APP_ENV '%s'. Defaulting to production logging.\n", env)
		opts.Level = slog.LevelInfo
		if debug {
			opts.Level = slog.LevelDebug
		}
		handler = slog.NewJSONHandler(w, &opts)
	}
	return handler
}

// L returns the global slog logger instance.
// Falls back to a development logger if called before InitLogger.
func L() *slog.Logger {
	if globalLogger == nil {
		InitLogger("development", true)
		log.Println("WARNING: Logger accessed before explicit initialization. Using default development logger.")
	}
	return globalLogger
}

// SetOutput redirects the global logger, keeping its environment settings. Used by tests.
func SetOutput(w io.Writer, env string, debug bool) {
	globalLogger = slog.New(newHandler(w, env, debug))
	slog.SetDefault(globalLogger)
}
