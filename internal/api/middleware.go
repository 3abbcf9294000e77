package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/metrics"
	"estate-admin/internal/models"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// actorHandler is a route that runs for an authenticated caller. A returned
// error is rendered as the JSON error body.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor models.Actor) error

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// instrument assigns a request id, attaches a request-scoped logger and
// records per-route metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()

		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		log := s.logger.WithFields(map[string]interface{}{
			"request_id": reqID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		r = r.WithContext(logger.IntoContext(r.Context(), log))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		// ServeMux stores the matched pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := s.now().Sub(start)

		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
		s.obs.RecordOperation(r.Context(), route, statusClass(rec.status), elapsed)

		fields := map[string]interface{}{
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
		}
		if rec.status >= http.StatusInternalServerError {
			log.Error("request failed", fields)
		} else {
			log.Debug("request served", fields)
		}
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log := logger.FromContext(r.Context(), s.logger)
				log.Error("handler panic", map[string]interface{}{"panic": fmt.Sprint(p)})
				writeError(w, r, s.logger, stderrors.NewInternalError(fmt.Errorf("panic: %v", p)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authed resolves the bearer token into an Actor before calling h.
func (s *Server) authed(h actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, s.logger, stderrors.NewUnauthorizedError("missing bearer token"))
			return
		}
		actor, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		log := logger.FromContext(r.Context(), s.logger).WithFields(map[string]interface{}{
			"actor_id":   actor.UserID,
			"actor_role": string(actor.Role),
		})
		r = r.WithContext(logger.IntoContext(r.Context(), log))

		if err := h(w, r, actor); err != nil {
			writeError(w, r, s.logger, err)
		}
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "rejected"
	default:
		return "ok"
	}
}
