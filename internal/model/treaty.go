package model

import "time"

// LeafRecord is a single treaty entry flattened out of the archive's
// collection index, before any normalization. Never persisted.
type LeafRecord struct {
	Title   string `json:"title"`
	Pointer string `json:"pointer"`
	File    string `json:"file,omitempty"`
}

// TreatyRecord is a normalized treaty row owned by exactly one DataSource.
// Records are inserted once and replaced wholesale by the next full refresh.
type TreatyRecord struct {
	ID             int64      `json:"id"`
	SourceID       int64      `json:"source_id"`
	SourceURL      string     `json:"source_url"`
	Title          string     `json:"title"`
	DateSignedText *string    `json:"date_signed_text,omitempty"`
	DateSigned     *time.Time `json:"date_signed,omitempty"`
	TribalParties  []string   `json:"tribal_parties"`
	KapplerVolume  *int       `json:"kappler_volume,omitempty"`
	KapplerPage    *int       `json:"kappler_page,omitempty"`
	RawHTML        string     `json:"-"`
	IsValidated    bool       `json:"is_validated"`
	ScrapedAt      time.Time  `json:"scraped_at"`
}

// TreatyDetail is a TreatyRecord joined with its owning source.
type TreatyDetail struct {
	TreatyRecord
	SourceName        string  `json:"source_name"`
	SourceReliability float64 `json:"source_reliability"`
}

// TreatyFilter narrows a treaty listing by signing year (inclusive bounds).
type TreatyFilter struct {
	YearFrom *int
	YearTo   *int
	Limit    int
}

// DateLayout is the civil-date text form used for date_signed.
const DateLayout = "2006-01-02"

// FormatDate renders a nullable civil date, or nil when absent.
func FormatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(DateLayout)
	return &s
}
