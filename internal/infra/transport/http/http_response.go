package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// MaxBodySize caps JSON request bodies.
const MaxBodySize = 1 << 20

// ErrorBody is the payload of the error envelope.
type ErrorBody struct {
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// ErrorResponse is the error envelope: {"error":{"message":"..."}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// HandlerFunc is an HTTP handler that reports failures as errors. Use Handle to
// turn it into an http.HandlerFunc.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn: a returned error is logged and written as the error
// envelope with the status derived from its category. msg names the operation
// in the log.
func Handle(log logging.Logger, msg string, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			log.DebugContext(r.Context(), msg)

			return
		}

		status := StatusFromError(err)

		if status >= http.StatusInternalServerError {
			log.ErrorContext(r.Context(), msg+" failed", "error", err)
		} else {
			log.WarnContext(r.Context(), msg+" rejected", "error", err)
		}

		WriteError(w, err)
	}
}

// StatusFromError maps an error's category to an HTTP status code.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as the error envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteErrorMessage(w, StatusFromError(err), domain.Message(err))
}

// WriteErrorMessage writes the error envelope with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{Message: message}})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v. An empty body leaves v untouched;
// malformed JSON is an ErrInvalidInput.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodySize))

	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errors.Join(domain.Invalid("invalid JSON body"), err)
	}

	return nil
}

// PathID parses the named chi URL parameter as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("invalid %s %q", name, raw)
	}

	return id, nil
}

// IsTruthy reports whether a query flag is set to 1, true or yes.
func IsTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// QueryInt parses an optional non-negative integer query parameter.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Invalid("invalid %s %q", name, raw)
	}

	return n, nil
}
