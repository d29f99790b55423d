package http

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// RescueingMiddleware recovers from panics in HTTP handlers. It logs the panic
// and stack trace, then answers 500 with the JSON error envelope.
func RescueingMiddleware(log logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}

				if p == http.ErrAbortHandler { //nolint:errorlint,err113
					panic(p)
				}

				log.ErrorContext(r.Context(), "request panic", slog.Group("http",
					"uri", r.RequestURI,
					"method", r.Method,
				), slog.Group("error",
					"panic", p,
					"stack", string(debug.Stack()),
				))

				WriteErrorMessage(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
