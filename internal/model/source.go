package model

import "time"

// SourceType tags the provenance category of a DataSource.
type SourceType string

const (
	SourceTypeKappler SourceType = "kappler"
)

// DataSource is one external provenance of treaty records. Rows are keyed by
// SourceID, the stable external key, and are never duplicated.
type DataSource struct {
	ID          int64      `json:"-"`
	SourceID    string     `json:"id"`
	Name        string     `json:"name"`
	SourceType  SourceType `json:"type"`
	BaseURL     string     `json:"base_url"`
	Reliability float64    `json:"reliability"`
	LastScraped *time.Time `json:"last_scraped"`
}
