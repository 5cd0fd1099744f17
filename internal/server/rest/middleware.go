package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgMissingAuthHeader = "Missing Authorization Header"
	msgBadAuthHeader     = "Bad Authorization header. Expected 'Authorization: Bearer <JWT>'"
)

// accessLog logs one line per request once it completes.
func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// authenticate requires a valid bearer token and stores its identity in the
// request context.
func (s *HTTPServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" {
			s.writeError(w, r, errUnauthorized(msgMissingAuthHeader))
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || strings.TrimSpace(token) == "" {
			s.writeError(w, r, errUnauthorized(msgBadAuthHeader))
			return
		}

		id, err := s.issuer.Verify(strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// currentUserID returns the authenticated user's id. Identities of any role
// other than user are refused.
func currentUserID(r *http.Request) (int64, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		return 0, errUnauthorized(msgUnauthorized)
	}
	if id.Role != auth.RoleUser {
		return 0, common.ErrorForbidden
	}
	return id.SubjectID, nil
}
