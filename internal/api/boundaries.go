package api

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/windwalker/windwalker/internal/cache"
	"github.com/windwalker/windwalker/internal/fetcher"
)

// BoundariesOptions configures the cached boundaries document.
type BoundariesOptions struct {
	URL string
	TTL time.Duration
	// RefreshPerMinute caps upstream refreshes; 0 disables the cap.
	RefreshPerMinute int
	Clock            func() time.Time
}

// NewBoundaries returns a slot cache over the upstream GeoJSON document.
func NewBoundaries(f fetcher.JSONFetcher, o BoundariesOptions) *cache.Slot[any] {
	opts := []cache.Option{cache.WithName("boundaries")}
	if o.RefreshPerMinute > 0 {
		opts = append(opts, cache.WithRefreshLimiter(
			rate.NewLimiter(rate.Every(time.Minute/time.Duration(o.RefreshPerMinute)), 1),
		))
	}
	if o.Clock != nil {
		opts = append(opts, cache.WithClock(o.Clock))
	}
	return cache.NewSlot(o.TTL, func(ctx context.Context) (any, error) {
		return f.FetchJSON(ctx, o.URL)
	}, opts...)
}

func (s *Server) getBoundaries(w http.ResponseWriter, r *http.Request) {
	entry, err := s.boundaries.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch boundaries: "+err.Error())
		return
	}
	if entry.Stale {
		w.Header().Set("Warning", `110 - "Response is Stale"`)
	}
	writeJSON(w, http.StatusOK, entry.Value)
}
