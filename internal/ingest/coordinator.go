// Package ingest runs a full-refresh import of one archive source: upsert the
// source row, clear its previous treaties, then fetch, normalize and insert
// every leaf of the collection index.
package ingest

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/windwalker/windwalker/internal/contentdm"
	"github.com/windwalker/windwalker/internal/fetcher"
	"github.com/windwalker/windwalker/internal/model"
	"github.com/windwalker/windwalker/internal/normalize"
)

// Writer is the storage the coordinator writes through.
type Writer interface {
	UpsertSource(ctx context.Context, src model.DataSource) (int64, error)
	ClearTreaties(ctx context.Context, sourceID int64) (int64, error)
	InsertTreaty(ctx context.Context, rec model.TreatyRecord) (int64, error)
}

// Stage names a step of a run, for logs.
type Stage string

const (
	StageSourceUpserted Stage = "source_upserted"
	StagePriorCleared   Stage = "prior_cleared"
	StageIndexFetched   Stage = "index_fetched"
	StageDone           Stage = "done"
)

// DefaultValidationThreshold is the source reliability at or above which
// inserted records are flagged as validated.
const DefaultValidationThreshold = 0.9

// Options configures a Coordinator.
type Options struct {
	Archive      contentdm.Archive
	IndexPointer string
	Source       model.DataSource
	// Volume is the Kappler volume number recorded on each treaty.
	Volume              int
	ValidationThreshold float64
	// FetchItemInfo consults dmGetItemInfo when a title carries no date.
	FetchItemInfo bool
	// Progress, if set, is called after each record is attempted.
	Progress func(done, total int)
}

// Coordinator runs ingestion sequentially on one goroutine.
type Coordinator struct {
	store   Writer
	fetcher fetcher.JSONFetcher
	opts    Options
	now     func() time.Time
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(store Writer, f fetcher.JSONFetcher, opts Options) *Coordinator {
	if opts.ValidationThreshold == 0 {
		opts.ValidationThreshold = DefaultValidationThreshold
	}
	return &Coordinator{
		store:   store,
		fetcher: f,
		opts:    opts,
		now:     time.Now,
	}
}

// Run performs one full refresh. Only a failed source upsert or clear is
// returned as an error; per-record failures are counted in the summary.
func (c *Coordinator) Run(ctx context.Context) (*model.RunSummary, error) {
	summary := &model.RunSummary{
		RunID:   uuid.New().String(),
		Started: c.now().UTC(),
	}
	log := zap.L().With(
		zap.String("component", "ingest"),
		zap.String("run_id", summary.RunID),
		zap.String("source", c.opts.Source.SourceID),
	)

	sourceID, err := c.store.UpsertSource(ctx, c.opts.Source)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: upsert source")
	}
	summary.SourceID = sourceID
	log.Info("source ready", zap.String("stage", string(StageSourceUpserted)), zap.Int64("source_id", sourceID))

	cleared, err := c.store.ClearTreaties(ctx, sourceID)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: clear prior treaties")
	}
	log.Info("cleared existing treaties", zap.String("stage", string(StagePriorCleared)), zap.Int64("deleted", cleared))

	leaves := c.FetchLeaves(ctx)
	summary.Total = len(leaves)
	log.Info("fetched treaty index", zap.String("stage", string(StageIndexFetched)), zap.Int("treaties", len(leaves)))

	if len(leaves) == 0 {
		log.Warn("no treaties found")
		summary.Finished = c.now().UTC()
		return summary, nil
	}

	validated := c.opts.Source.Reliability >= c.opts.ValidationThreshold

	for i, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			summary.Finished = c.now().UTC()
			return summary, eris.Wrapf(err, "ingest: stopped after %d of %d treaties", i, len(leaves))
		}

		rec := c.BuildRecord(ctx, sourceID, leaf)
		rec.IsValidated = validated

		rLog := log.With(
			zap.Int("index", i+1),
			zap.Int("total", len(leaves)),
			zap.String("title", truncate(rec.Title, 60)),
		)

		if _, err := c.store.InsertTreaty(ctx, rec); err != nil {
			rLog.Error("insert failed", zap.Error(err))
			summary.Errors++
		} else {
			summary.Success++
			rLog.Info("saved", zap.Strings("tribes", head(rec.TribalParties, 3)))
		}
		if c.opts.Progress != nil {
			c.opts.Progress(i+1, len(leaves))
		}
	}

	summary.Finished = c.now().UTC()
	log.Info("ingest complete",
		zap.String("stage", string(StageDone)),
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("errors", summary.Errors),
		zap.Duration("elapsed", summary.Duration()),
	)
	return summary, nil
}

// FetchLeaves fetches the collection index and flattens it. A failed fetch
// yields no leaves.
func (c *Coordinator) FetchLeaves(ctx context.Context) []model.LeafRecord {
	doc, err := c.fetcher.FetchJSON(ctx, c.opts.Archive.IndexURL(c.opts.IndexPointer))
	if err != nil {
		return nil
	}
	return contentdm.Flatten(doc)
}

// BuildRecord normalizes one leaf into an unsaved TreatyRecord.
func (c *Coordinator) BuildRecord(ctx context.Context, sourceID int64, leaf model.LeafRecord) model.TreatyRecord {
	title := normalize.CleanTitle(leaf.Title)

	rec := model.TreatyRecord{
		SourceID:      sourceID,
		SourceURL:     c.opts.Archive.ItemPageURL(leaf.Pointer),
		Title:         title,
		TribalParties: normalize.ExtractTribes(title),
		KapplerPage:   pageNumber(leaf.Pointer),
	}
	if c.opts.Volume > 0 {
		vol := c.opts.Volume
		rec.KapplerVolume = &vol
	}

	dateText, ok := normalize.DateText(title)
	if !ok && c.opts.FetchItemInfo {
		dateText, ok = c.itemDate(ctx, leaf.Pointer)
	}
	if ok {
		rec.DateSignedText = &dateText
		if d, ok := normalize.ParseDate(dateText); ok {
			rec.DateSigned = &d
		}
	}
	return rec
}

func (c *Coordinator) itemDate(ctx context.Context, pointer string) (string, bool) {
	doc, err := c.fetcher.FetchJSON(ctx, c.opts.Archive.ItemInfoURL(pointer))
	if err != nil {
		return "", false
	}
	info := contentdm.ParseItemInfo(doc)
	return info.Date, info.Date != ""
}

// pageNumber returns the pointer as an int when it is all digits.
func pageNumber(pointer string) *int {
	if pointer == "" || strings.IndexFunc(pointer, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return nil
	}
	n, err := strconv.Atoi(pointer)
	if err != nil {
		return nil
	}
	return &n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
