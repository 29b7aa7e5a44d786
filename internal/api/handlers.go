package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/windwalker/windwalker/internal/model"
	"github.com/windwalker/windwalker/internal/store"
)

const healthTimeout = 3 * time.Second

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

func (s *Server) listTreaties(w http.ResponseWriter, r *http.Request) {
	var filter model.TreatyFilter
	var err error
	if filter.YearFrom, err = yearParam(r, "year"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.YearTo, err = yearParam(r, "year_end"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := s.store.ListTreaties(r.Context(), filter)
	if err != nil {
		internalError(w, r, err)
		return
	}

	treaties := make([]treatySummary, 0, len(recs))
	for _, rec := range recs {
		treaties = append(treaties, toSummary(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"treaties": treaties,
		"total":    len(treaties),
	})
}

// yearParam reads an optional integer query parameter.
func yearParam(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, eris.Errorf("invalid %s: %q", name, raw)
	}
	return &n, nil
}

func (s *Server) getTreaty(w http.ResponseWriter, r *http.Request) {
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Treaty not found")
		return
	}

	detail, err := s.store.GetTreaty(r.Context(), id)
	if err != nil {
		internalError(w, r, err)
		return
	}
	if detail == nil {
		writeError(w, http.StatusNotFound, "Treaty not found")
		return
	}
	writeJSON(w, http.StatusOK, toDetail(*detail))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"query":   "",
			"results": []searchResult{},
			"total":   0,
		})
		return
	}

	recs, err := s.store.SearchTreaties(r.Context(), q, SearchLimit)
	if err != nil {
		internalError(w, r, err)
		return
	}

	results := make([]searchResult, 0, len(recs))
	for _, rec := range recs {
		results = append(results, toSearchResult(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}
