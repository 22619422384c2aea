package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/feature"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	boundary_path   TEXT NOT NULL,
	occurrence_path TEXT NOT NULL,
	started_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS occurrences (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	species   TEXT,
	longitude REAL NOT NULL,
	latitude  REAL NOT NULL,
	geom      BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS state_counts (
	run_id       TEXT NOT NULL REFERENCES runs(id),
	state        TEXT NOT NULL,
	records      INTEGER NOT NULL,
	records_sqrt REAL NOT NULL,
	geom         BLOB NOT NULL,
	PRIMARY KEY (run_id, state)
);

CREATE INDEX IF NOT EXISTS idx_occurrences_run_id ON occurrences(run_id);
CREATE INDEX IF NOT EXISTS idx_occurrences_species ON occurrences(species);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, boundary_path, occurrence_path, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.BoundaryPath, run.OccurrencePath, run.StartedAt)
	return eris.Wrap(err, "sqlite: insert run")
}

// SaveOccurrences inserts the point features of a run in one transaction.
func (s *SQLiteStore) SaveOccurrences(ctx context.Context, runID string, points *feature.Collection, speciesCol string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO occurrences (run_id, species, longitude, latitude, geom) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare occurrence insert")
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for _, f := range points.Features {
		pt, lon, lat, ok := pointCoords(f)
		if !ok {
			continue
		}
		wkb, err := encodeEWKB(pt, points.SRID)
		if err != nil {
			return n, err
		}
		if _, err := stmt.ExecContext(ctx, runID, f.String(speciesCol), lon, lat, wkb); err != nil {
			return n, eris.Wrap(err, "sqlite: insert occurrence")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}

// SaveStateCounts upserts the aggregated per-state summaries of a run.
func (s *SQLiteStore) SaveStateCounts(ctx context.Context, runID string, states *feature.Collection, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer func() { _ = tx.Rollback() }()

	var n int64
	for _, f := range states.Features {
		records, _ := f.Float(aggregate.FieldRecords)
		recordsSqrt, _ := f.Float(aggregate.FieldRecordsSqrt)
		wkb, err := encodeEWKB(f.Geom, states.SRID)
		if err != nil {
			return n, err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO state_counts (run_id, state, records, records_sqrt, geom)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (run_id, state) DO UPDATE SET
				records = excluded.records,
				records_sqrt = excluded.records_sqrt,
				geom = excluded.geom`,
			runID, f.String(key), int64(records), recordsSqrt, wkb)
		if err != nil {
			return n, eris.Wrap(err, "sqlite: insert state count")
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return n, eris.Wrap(err, "sqlite: commit")
	}
	return n, nil
}
