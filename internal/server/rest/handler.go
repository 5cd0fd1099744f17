package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// appHandler is a handler that reports failure by returning an error
// instead of writing it.
type appHandler func(w http.ResponseWriter, r *http.Request) error

// makeHandler adapts an appHandler to http.HandlerFunc, turning a returned
// error into a JSON error response.
func (s *HTTPServer) makeHandler(h appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		err := h(ww, r)
		if err == nil {
			return
		}

		if ww.Status() != 0 {
			s.logger.Warn(r.Context(), "handler returned error after writing response",
				"path", r.URL.Path, "method", r.Method, "error", err)
			return
		}

		s.writeError(ww, r, err)
	}
}

// writeError logs err and sends the matching error response. Client errors
// get {"msg": ...} unless the HTTPError names another key; server errors get
// a generic {"error": ...}.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	he := toHTTPError(err)
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	if he.Code >= http.StatusInternalServerError {
		s.logger.Error(ctx, "unhandled internal error",
			"path", r.URL.Path, "method", r.Method, "request_id", reqID, "error", err)
		respondJSON(w, he.Code, map[string]string{"error": msgInternalServer})
		return
	}

	args := []any{"code", he.Code, "msg", he.Message, "path", r.URL.Path, "method", r.Method, "request_id", reqID}
	if cause := he.Unwrap(); cause != nil && cause.Error() != he.Message {
		args = append(args, "cause", cause)
	}
	s.logger.Warn(ctx, "client error response", args...)

	respondJSON(w, he.Code, map[string]string{he.bodyKey(): he.Message})
}
