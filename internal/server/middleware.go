package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hirepipe/internal/logging"
	"hirepipe/internal/services"
	"hirepipe/internal/workflow"
)

const (
	headerRequestID = "X-Request-ID"
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"
)

// authMiddleware validates bearer tokens. If token is empty, no
// authentication is required and all requests pass through.
func authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		presented, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || presented != token {
			writeError(w, r, nil, services.Wrap(services.ErrUnauthorized, "server", "auth", "missing or invalid bearer token", nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestIDMiddleware tags the request context with a correlation id, reusing
// the caller's X-Request-ID when present.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func accessLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.WithContext(r.Context(), logger).Debug("api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)),
		)
	})
}

// actorFromRequest reads the authenticated caller. Unknown roles are treated
// as recruiters.
func actorFromRequest(r *http.Request) workflow.Actor {
	actor := workflow.Actor{Role: workflow.RoleRecruiter}
	if id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(headerActorID)), 10, 64); err == nil {
		actor.ID = id
	}
	if strings.EqualFold(strings.TrimSpace(r.Header.Get(headerActorRole)), string(workflow.RoleAdmin)) {
		actor.Role = workflow.RoleAdmin
	}
	return actor
}
