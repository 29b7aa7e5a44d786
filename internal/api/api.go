// Package api serves the read-only treaty API over the ingested store.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/windwalker/windwalker/internal/cache"
	"github.com/windwalker/windwalker/internal/model"
)

// Reader is the store surface the API reads from.
type Reader interface {
	ListSources(ctx context.Context) ([]model.DataSource, error)
	ListTreaties(ctx context.Context, filter model.TreatyFilter) ([]model.TreatyRecord, error)
	GetTreaty(ctx context.Context, id int64) (*model.TreatyDetail, error)
	SearchTreaties(ctx context.Context, query string, limit int) ([]model.TreatyRecord, error)
	Ping(ctx context.Context) error
}

// SearchLimit caps search results.
const SearchLimit = 10

// Server holds the handler dependencies.
type Server struct {
	store      Reader
	boundaries *cache.Slot[any]
}

// NewServer creates a Server. boundaries may be nil, in which case the
// boundaries endpoint answers 404.
func NewServer(store Reader, boundaries *cache.Slot[any]) *Server {
	return &Server{store: store, boundaries: boundaries}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/treaties", s.listTreaties)
		r.Get("/treaties/{id}", s.getTreaty)
		r.Get("/search", s.search)
		r.Get("/sources", s.listSources)
		if s.boundaries != nil {
			r.Get("/boundaries", s.getBoundaries)
		}
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, "Not found")
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs err and answers 500 with its message.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("api: handler failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, err.Error())
}
