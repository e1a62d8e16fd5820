// Package handlers exposes the research and matching services over HTTP.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"govcon/research/internal/logging"
	"govcon/research/internal/models"
)

// UserHeader carries the authenticated user id, set by the gateway in front of the API.
const UserHeader = "X-User-ID"

type RouterConfig struct {
	// DefaultUserID is used when a request carries no user header.
	DefaultUserID string
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(researchSvc ResearchService, matchingSvc MatchingService, cfg RouterConfig, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)
	users := userResolver{fallback: cfg.DefaultUserID}
	rh := &ResearchHandler{service: researchSvc, users: users, logger: logger}
	mh := &MatchingHandler{service: matchingSvc, users: users, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/solicitations/{id}", func(r chi.Router) {
		r.Use(validSolicitationID)
		r.Post("/research", rh.HandleStart)
		r.Get("/research", rh.HandleGet)
		r.Post("/match", mh.HandleCalculate)
		r.Get("/match", mh.HandleCached)
	})

	r.Route("/matching", func(r chi.Router) {
		r.Post("/batch-calculate", mh.HandleBatchCalculate)
		r.Get("/batch-calculate", mh.HandleList)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func validSolicitationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !models.ValidSolicitationID(chi.URLParam(r, "id")) {
			WriteError(w, http.StatusBadRequest, "invalid solicitation id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userResolver struct {
	fallback string
}

func (u userResolver) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
		return id
	}
	return u.fallback
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// corsMiddleware adds CORS headers for browser clients
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+UserHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
