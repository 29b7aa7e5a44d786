package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceTypeValues(t *testing.T) {
	assert.Equal(t, "kappler", string(SourceTypeKappler))
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FormatDate(nil))

	d := time.Date(1851, time.September, 17, 0, 0, 0, 0, time.UTC)
	got := FormatDate(&d)
	require.NotNil(t, got)
	assert.Equal(t, "1851-09-17", *got)
}

func TestRunSummary_Duration(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := RunSummary{Started: start}
	assert.Zero(t, s.Duration())

	s.Finished = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, s.Duration())
}
