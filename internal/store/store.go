// Package store persists data sources and treaty records.
package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/windwalker/windwalker/internal/model"
)

// DefaultListLimit caps treaty listings when the filter sets no limit.
const DefaultListLimit = 500

// Store defines the persistence interface for treaty ingestion and reads.
type Store interface {
	// Sources
	UpsertSource(ctx context.Context, src model.DataSource) (int64, error)
	ListSources(ctx context.Context) ([]model.DataSource, error)

	// Treaties
	ClearTreaties(ctx context.Context, sourceID int64) (int64, error)
	InsertTreaty(ctx context.Context, rec model.TreatyRecord) (int64, error)
	CountTreaties(ctx context.Context, sourceID int64) (int64, error)
	ListTreaties(ctx context.Context, filter model.TreatyFilter) ([]model.TreatyRecord, error)
	GetTreaty(ctx context.Context, id int64) (*model.TreatyDetail, error)
	SearchTreaties(ctx context.Context, query string, limit int) ([]model.TreatyRecord, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

func marshalTribes(tribes []string) ([]byte, error) {
	if tribes == nil {
		tribes = []string{}
	}
	b, err := json.Marshal(tribes)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal tribal parties")
	}
	return b, nil
}

func unmarshalTribes(b []byte) []string {
	tribes := make([]string, 0)
	if len(b) == 0 {
		return tribes
	}
	_ = json.Unmarshal(b, &tribes)
	return tribes
}

func listLimit(limit int) int {
	if limit <= 0 || limit > DefaultListLimit {
		return DefaultListLimit
	}
	return limit
}

// ParseID parses a treaty id from its text form.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("store: invalid treaty id %q", s)
	}
	return id, nil
}
