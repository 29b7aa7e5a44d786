package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/windwalker/windwalker/internal/db"
	"github.com/windwalker/windwalker/internal/model"
)

// PostgresStore implements Store over the data_sources and raw_treaties
// tables. The schema is managed outside this program.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects a pool and wraps it in a PostgresStore.
func NewPostgres(ctx context.Context, connString string, maxConns int32) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, maxConns)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. The caller owns its lifetime.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ db.Pool = (*pgxpool.Pool)(nil)

const treatyColumns = `t.id, t.source_id, t.source_url, t.title, t.date_signed_text, t.date_signed,
	t.tribal_parties_text, t.kappler_volume, t.kappler_page, t.is_validated, t.scraped_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertSource(ctx context.Context, src model.DataSource) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO data_sources (source_id, name, source_type, base_url, reliability, last_scraped)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (source_id) DO UPDATE SET
			name = EXCLUDED.name,
			base_url = EXCLUDED.base_url,
			reliability = EXCLUDED.reliability,
			last_scraped = now()
		 RETURNING id`,
		src.SourceID, src.Name, string(src.SourceType), src.BaseURL, src.Reliability,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert source %s", src.SourceID)
	}
	return id, nil
}

func (s *PostgresStore) ListSources(ctx context.Context) ([]model.DataSource, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, source_id, name, source_type::text, base_url, reliability::float8, last_scraped
		 FROM data_sources ORDER BY reliability DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	sources := make([]model.DataSource, 0)
	for rows.Next() {
		var src model.DataSource
		var sourceType string
		if err := rows.Scan(&src.ID, &src.SourceID, &src.Name, &sourceType, &src.BaseURL, &src.Reliability, &src.LastScraped); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		src.SourceType = model.SourceType(sourceType)
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "postgres: iterate sources")
}

// ClearTreaties deletes every treaty of a source in its own transaction.
func (s *PostgresStore) ClearTreaties(ctx context.Context, sourceID int64) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear treaties: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `DELETE FROM raw_treaties WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: clear treaties for source %d", sourceID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: clear treaties: commit tx")
	}
	return tag.RowsAffected(), nil
}

// InsertTreaty inserts one record in its own transaction; a failure leaves
// nothing behind.
func (s *PostgresStore) InsertTreaty(ctx context.Context, rec model.TreatyRecord) (int64, error) {
	tribes, err := marshalTribes(rec.TribalParties)
	if err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert treaty: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO raw_treaties (
			source_id, source_url, title,
			date_signed_text, date_signed,
			tribal_parties_text,
			kappler_volume, kappler_page,
			raw_html, is_validated, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10, now())
		RETURNING id`,
		rec.SourceID, rec.SourceURL, rec.Title,
		rec.DateSignedText, rec.DateSigned,
		string(tribes),
		rec.KapplerVolume, rec.KapplerPage,
		rec.RawHTML, rec.IsValidated,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert treaty %q", rec.Title)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: insert treaty: commit tx")
	}
	return id, nil
}

func (s *PostgresStore) CountTreaties(ctx context.Context, sourceID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM raw_treaties WHERE source_id = $1`, sourceID).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: count treaties for source %d", sourceID)
	}
	return n, nil
}

func (s *PostgresStore) ListTreaties(ctx context.Context, filter model.TreatyFilter) ([]model.TreatyRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+treatyColumns+`
		 FROM raw_treaties t
		 WHERE ($1::int IS NULL OR EXTRACT(YEAR FROM t.date_signed) >= $1)
		   AND ($2::int IS NULL OR EXTRACT(YEAR FROM t.date_signed) <= $2)
		 ORDER BY t.date_signed ASC NULLS LAST, t.id ASC
		 LIMIT $3`,
		filter.YearFrom, filter.YearTo, listLimit(filter.Limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list treaties")
	}
	return collectTreaties(rows)
}

func (s *PostgresStore) SearchTreaties(ctx context.Context, query string, limit int) ([]model.TreatyRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+treatyColumns+`
		 FROM raw_treaties t
		 WHERE t.title ILIKE '%' || $1 || '%'
		 ORDER BY t.id ASC
		 LIMIT $2`,
		query, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search treaties")
	}
	return collectTreaties(rows)
}

// GetTreaty returns nil, nil when no treaty has the id.
func (s *PostgresStore) GetTreaty(ctx context.Context, id int64) (*model.TreatyDetail, error) {
	var d model.TreatyDetail
	var tribes []byte
	err := s.pool.QueryRow(ctx,
		`SELECT `+treatyColumns+`, ds.name, ds.reliability::float8
		 FROM raw_treaties t
		 JOIN data_sources ds ON t.source_id = ds.id
		 WHERE t.id = $1`,
		id,
	).Scan(
		&d.ID, &d.SourceID, &d.SourceURL, &d.Title, &d.DateSignedText, &d.DateSigned,
		&tribes, &d.KapplerVolume, &d.KapplerPage, &d.IsValidated, &d.ScrapedAt,
		&d.SourceName, &d.SourceReliability,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get treaty %d", id)
	}
	d.TribalParties = unmarshalTribes(tribes)
	d.DateSigned = civilDate(d.DateSigned)
	return &d, nil
}

func collectTreaties(rows pgx.Rows) ([]model.TreatyRecord, error) {
	defer rows.Close()

	out := make([]model.TreatyRecord, 0)
	for rows.Next() {
		var r model.TreatyRecord
		var tribes []byte
		if err := rows.Scan(
			&r.ID, &r.SourceID, &r.SourceURL, &r.Title, &r.DateSignedText, &r.DateSigned,
			&tribes, &r.KapplerVolume, &r.KapplerPage, &r.IsValidated, &r.ScrapedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan treaty")
		}
		r.TribalParties = unmarshalTribes(tribes)
		r.DateSigned = civilDate(r.DateSigned)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate treaties")
}

// civilDate pins a scanned DATE to UTC midnight.
func civilDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
