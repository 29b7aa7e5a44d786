package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/windwalker/windwalker/internal/model"
)

func TestFormatSources(t *testing.T) {
	scraped := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	sources := []model.DataSource{
		{ID: 1, SourceID: "kappler", Name: "Kappler's Indian Affairs: Laws and Treaties", SourceType: model.SourceTypeKappler, Reliability: 0.98, LastScraped: &scraped},
		{ID: 2, SourceID: "manual", Name: "Manual entry", SourceType: "manual", Reliability: 0.5},
	}

	var buf bytes.Buffer
	formatSources(&buf, sources, map[int64]int64{1: 375})
	out := buf.String()

	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "kappler")
	assert.Contains(t, out, "0.98")
	assert.Contains(t, out, "375")
	assert.Contains(t, out, "2026-02-14T09:30:00Z")
	assert.Contains(t, out, "never")
}
