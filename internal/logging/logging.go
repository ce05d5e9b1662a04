package logging

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type Config struct {
	Level  string // trace, debug, info, warn, error
	Pretty bool
}

// New builds the application logger. Pretty output is meant for local
// development; everything else gets one JSON object per line.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Middleware attaches the logger to every request context and writes one
// access log line per request.
func Middleware(log zerolog.Logger) func(http.Handler) http.Handler {
	withLogger := hlog.NewHandler(log)
	withRequestID := hlog.RequestIDHandler("request_id", "X-Request-Id")
	access := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})

	return func(next http.Handler) http.Handler {
		return withLogger(withRequestID(access(next)))
	}
}
