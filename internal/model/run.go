package model

import "time"

// RunSummary aggregates the outcome of one ingestion run.
type RunSummary struct {
	RunID    string    `json:"run_id"`
	SourceID int64     `json:"source_id"`
	Total    int       `json:"total"`
	Success  int       `json:"success"`
	Errors   int       `json:"errors"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Duration is the wall time of the run.
func (s RunSummary) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}
