package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// LoggingMiddlewareResponseWriter wraps http.ResponseWriter to capture response metrics.
type LoggingMiddlewareResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	BytesSent  int
}

func (w *LoggingMiddlewareResponseWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
	w.StatusCode = code
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *LoggingMiddlewareResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *LoggingMiddlewareResponseWriter) Write(b []byte) (int, error) {
	w.BytesSent += len(b)

	n, err := w.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}

	return n, nil
}

// LoggingMiddleware logs every request at DEBUG and its response at a level
// derived from the status code: ERROR for 5xx, WARN for 4xx, INFO otherwise.
func LoggingMiddleware(log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		//nolint:varnamelen
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			log.DebugContext(r.Context(), "request", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
			))

			mw := &LoggingMiddlewareResponseWriter{
				ResponseWriter: w,
				StatusCode:     http.StatusOK, // This is default if no response code is written
				BytesSent:      0,
			}

			next.ServeHTTP(mw, r)

			var level logging.Level

			switch {
			case mw.StatusCode >= http.StatusInternalServerError:
				level = logging.LevelError
			case mw.StatusCode >= http.StatusBadRequest:
				level = logging.LevelWarn
			default:
				level = logging.LevelInfo
			}

			log.Log(r.Context(), level, "response", slog.Group("http",
				"uri", r.RequestURI,
				"method", r.Method,
				"status", mw.StatusCode,
				"bytes_sent", mw.BytesSent,
				"duration", time.Since(start).String(),
			))
		})
	}
}
