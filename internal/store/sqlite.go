package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/windwalker/windwalker/internal/model"
)

// SQLiteStore implements Store on an embedded SQLite file, for local runs
// without a Postgres server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and creates the
// tables if they do not exist.
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps pragmas and :memory: databases consistent.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: create tables")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS data_sources (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id    TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	source_type  TEXT NOT NULL,
	base_url     TEXT,
	reliability  REAL NOT NULL DEFAULT 0 CHECK (reliability BETWEEN 0 AND 1),
	last_scraped TEXT
);

CREATE TABLE IF NOT EXISTS raw_treaties (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id           INTEGER NOT NULL REFERENCES data_sources(id),
	source_url          TEXT,
	title               TEXT NOT NULL CHECK (length(title) <= 1024),
	date_signed_text    TEXT,
	date_signed         TEXT,
	tribal_parties_text TEXT NOT NULL DEFAULT '[]',
	kappler_volume      INTEGER,
	kappler_page        INTEGER,
	raw_html            TEXT NOT NULL DEFAULT '',
	is_validated        INTEGER NOT NULL DEFAULT 0,
	scraped_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_raw_treaties_source_id ON raw_treaties(source_id);
CREATE INDEX IF NOT EXISTS idx_raw_treaties_date_signed ON raw_treaties(date_signed);
`

const sqliteTreatyColumns = `t.id, t.source_id, t.source_url, t.title, t.date_signed_text, t.date_signed,
	t.tribal_parties_text, t.kappler_volume, t.kappler_page, t.is_validated, t.scraped_at`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteStore) UpsertSource(ctx context.Context, src model.DataSource) (int64, error) {
	var id int64
	now := nowText()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO data_sources (source_id, name, source_type, base_url, reliability, last_scraped)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (source_id) DO UPDATE SET
			name = excluded.name,
			base_url = excluded.base_url,
			reliability = excluded.reliability,
			last_scraped = excluded.last_scraped
		 RETURNING id`,
		src.SourceID, src.Name, string(src.SourceType), src.BaseURL, src.Reliability, now,
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert source %s", src.SourceID)
	}
	return id, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context) ([]model.DataSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, name, source_type, COALESCE(base_url, ''), reliability, last_scraped
		 FROM data_sources ORDER BY reliability DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close() //nolint:errcheck

	sources := make([]model.DataSource, 0)
	for rows.Next() {
		var src model.DataSource
		var sourceType string
		var lastScraped sql.NullString
		if err := rows.Scan(&src.ID, &src.SourceID, &src.Name, &sourceType, &src.BaseURL, &src.Reliability, &lastScraped); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		src.SourceType = model.SourceType(sourceType)
		if lastScraped.Valid {
			if t, err := time.Parse(time.RFC3339Nano, lastScraped.String); err == nil {
				src.LastScraped = &t
			}
		}
		sources = append(sources, src)
	}
	return sources, eris.Wrap(rows.Err(), "sqlite: iterate sources")
}

func (s *SQLiteStore) ClearTreaties(ctx context.Context, sourceID int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear treaties: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM raw_treaties WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: clear treaties for source %d", sourceID)
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear treaties: commit tx")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteStore) InsertTreaty(ctx context.Context, rec model.TreatyRecord) (int64, error) {
	tribes, err := marshalTribes(rec.TribalParties)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert treaty: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO raw_treaties (
			source_id, source_url, title,
			date_signed_text, date_signed,
			tribal_parties_text,
			kappler_volume, kappler_page,
			raw_html, is_validated, scraped_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SourceID, rec.SourceURL, rec.Title,
		rec.DateSignedText, model.FormatDate(rec.DateSigned),
		string(tribes),
		rec.KapplerVolume, rec.KapplerPage,
		rec.RawHTML, rec.IsValidated, nowText(),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert treaty %q", rec.Title)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert treaty: last insert id")
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: insert treaty: commit tx")
	}
	return id, nil
}

func (s *SQLiteStore) CountTreaties(ctx context.Context, sourceID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM raw_treaties WHERE source_id = ?`, sourceID).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: count treaties for source %d", sourceID)
	}
	return n, nil
}

func (s *SQLiteStore) ListTreaties(ctx context.Context, filter model.TreatyFilter) ([]model.TreatyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteTreatyColumns+`
		 FROM raw_treaties t
		 WHERE (? IS NULL OR CAST(substr(t.date_signed, 1, 4) AS INTEGER) >= ?)
		   AND (? IS NULL OR CAST(substr(t.date_signed, 1, 4) AS INTEGER) <= ?)
		 ORDER BY t.date_signed IS NULL, t.date_signed ASC, t.id ASC
		 LIMIT ?`,
		filter.YearFrom, filter.YearFrom, filter.YearTo, filter.YearTo, listLimit(filter.Limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list treaties")
	}
	return collectSQLiteTreaties(rows)
}

func (s *SQLiteStore) SearchTreaties(ctx context.Context, query string, limit int) ([]model.TreatyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteTreatyColumns+`
		 FROM raw_treaties t
		 WHERE t.title LIKE '%' || ? || '%'
		 ORDER BY t.id ASC
		 LIMIT ?`,
		query, listLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search treaties")
	}
	return collectSQLiteTreaties(rows)
}

func (s *SQLiteStore) GetTreaty(ctx context.Context, id int64) (*model.TreatyDetail, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteTreatyColumns+`, ds.name, ds.reliability
		 FROM raw_treaties t
		 JOIN data_sources ds ON t.source_id = ds.id
		 WHERE t.id = ?`,
		id,
	)

	var d model.TreatyDetail
	sc := sqliteTreatyScan{}
	err := row.Scan(append(sc.dest(&d.TreatyRecord), &d.SourceName, &d.SourceReliability)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get treaty %d", id)
	}
	sc.apply(&d.TreatyRecord)
	return &d, nil
}

// sqliteTreatyScan holds the columns that need conversion after Scan.
type sqliteTreatyScan struct {
	sourceURL  sql.NullString
	dateText   sql.NullString
	dateSigned sql.NullString
	tribes     string
	volume     sql.NullInt64
	page       sql.NullInt64
	scrapedAt  string
}

func (sc *sqliteTreatyScan) dest(r *model.TreatyRecord) []any {
	return []any{
		&r.ID, &r.SourceID, &sc.sourceURL, &r.Title, &sc.dateText, &sc.dateSigned,
		&sc.tribes, &sc.volume, &sc.page, &r.IsValidated, &sc.scrapedAt,
	}
}

func (sc *sqliteTreatyScan) apply(r *model.TreatyRecord) {
	r.SourceURL = sc.sourceURL.String
	if sc.dateText.Valid {
		s := sc.dateText.String
		r.DateSignedText = &s
	}
	if sc.dateSigned.Valid {
		if t, err := time.Parse(model.DateLayout, sc.dateSigned.String); err == nil {
			r.DateSigned = &t
		}
	}
	r.TribalParties = unmarshalTribes([]byte(sc.tribes))
	r.KapplerVolume = nullInt(sc.volume)
	r.KapplerPage = nullInt(sc.page)
	if t, err := time.Parse(time.RFC3339Nano, sc.scrapedAt); err == nil {
		r.ScrapedAt = t
	}
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func collectSQLiteTreaties(rows *sql.Rows) ([]model.TreatyRecord, error) {
	defer rows.Close() //nolint:errcheck

	out := make([]model.TreatyRecord, 0)
	for rows.Next() {
		var r model.TreatyRecord
		sc := sqliteTreatyScan{}
		if err := rows.Scan(sc.dest(&r)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan treaty")
		}
		sc.apply(&r)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate treaties")
}
