// Package cache holds long-lived, single-slot values refreshed on a TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FetchFunc loads a fresh value for the slot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Entry is a value served from the slot.
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time
	// Stale is set when the value is past its TTL and was served because a
	// refresh failed or was not permitted.
	Stale bool
}

// ErrRefreshDenied is returned when the slot is empty and the refresh gate
// refuses another upstream attempt.
var ErrRefreshDenied = eris.New("cache: refresh rate limited")

// Option configures a Slot.
type Option func(*options)

type options struct {
	now     func() time.Time
	limiter *rate.Limiter
	name    string
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithRefreshLimiter gates upstream refreshes. Tokens are taken at the
// injected clock's time.
func WithRefreshLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithName labels log lines.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Slot caches one value. A read within ttl of the last successful fetch is
// served from memory; otherwise the value is refetched, falling back to the
// previous value if the refetch fails. Safe for concurrent use; concurrent
// readers of an expired slot share one refresh.
type Slot[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	fetch FetchFunc[T]
	opts  options

	value     T
	fetchedAt time.Time
	has       bool
}

// NewSlot creates an empty Slot.
func NewSlot[T any](ttl time.Duration, fetch FetchFunc[T], opts ...Option) *Slot[T] {
	o := options{now: time.Now, name: "slot"}
	for _, fn := range opts {
		fn(&o)
	}
	return &Slot[T]{ttl: ttl, fetch: fetch, opts: o}
}

// Get returns the cached value, refreshing it if expired.
func (s *Slot[T]) Get(ctx context.Context) (Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	if s.has && now.Sub(s.fetchedAt) < s.ttl {
		return Entry[T]{Value: s.value, FetchedAt: s.fetchedAt}, nil
	}

	log := zap.L().With(zap.String("component", "cache"), zap.String("slot", s.opts.name))

	if s.opts.limiter != nil && !s.opts.limiter.AllowN(now, 1) {
		if s.has {
			log.Debug("refresh denied, serving stale value")
			return Entry[T]{Value: s.value, FetchedAt: s.fetchedAt, Stale: true}, nil
		}
		return Entry[T]{}, ErrRefreshDenied
	}

	v, err := s.fetch(ctx)
	if err != nil {
		if s.has {
			log.Warn("refresh failed, serving stale value",
				zap.Time("fetched_at", s.fetchedAt),
				zap.Error(err),
			)
			return Entry[T]{Value: s.value, FetchedAt: s.fetchedAt, Stale: true}, nil
		}
		return Entry[T]{}, eris.Wrapf(err, "cache: fetch %s", s.opts.name)
	}

	s.value = v
	s.fetchedAt = now
	s.has = true
	return Entry[T]{Value: v, FetchedAt: now}, nil
}
