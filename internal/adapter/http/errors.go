package http

import (
	"fmt"
	"net/http"
	"runtime/debug"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

type errorDetail struct {
	Error string `json:"error"`
	Trace string `json:"trace,omitempty"`
}

// writeError maps domain errors to status codes: validation 400,
// unavailable 503, anything else 500 with an error/trace detail object.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		s.logger.Warn("request rejected", "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	case domain.IsUnavailable(err):
		s.logger.Warn("capability unavailable", "path", r.URL.Path, "error", err)
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": err.Error()})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.writeInternal(w, err.Error(), debug.Stack())
	}
}

func (s *Server) writeInternal(w http.ResponseWriter, msg string, stack []byte) {
	detail := errorDetail{Error: msg}
	if s.exposeTrace {
		detail.Trace = string(stack)
	}
	sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]errorDetail{"detail": detail})
}

// recoverPanics turns a handler panic into a 500 instead of a dropped connection.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := debug.Stack()
			s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec, "stack", string(stack))
			s.writeInternal(w, fmt.Sprint(rec), stack)
		}()
		next.ServeHTTP(w, r)
	})
}
