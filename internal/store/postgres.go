package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/atlasbio/occmap/internal/aggregate"
	"github.com/atlasbio/occmap/internal/feature"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// PostgresStore implements Store against Postgres with PostGIS.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a pgx pool to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id              UUID PRIMARY KEY,
		boundary_path   TEXT NOT NULL,
		occurrence_path TEXT NOT NULL,
		started_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS occurrences (
		run_id    UUID NOT NULL REFERENCES runs(id),
		species   TEXT,
		longitude DOUBLE PRECISION NOT NULL,
		latitude  DOUBLE PRECISION NOT NULL,
		geom      geometry(Point, 4326)
	)`,
	`CREATE TABLE IF NOT EXISTS state_counts (
		run_id       UUID NOT NULL REFERENCES runs(id),
		state        TEXT NOT NULL,
		records      INTEGER NOT NULL,
		records_sqrt DOUBLE PRECISION NOT NULL,
		geom         geometry(MultiPolygon, 4326),
		PRIMARY KEY (run_id, state)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_occurrences_geom ON occurrences USING gist (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_state_counts_geom ON state_counts USING gist (geom)`,
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresMigrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "postgres: migrate")
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, boundary_path, occurrence_path, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.BoundaryPath, run.OccurrencePath, run.StartedAt)
	return eris.Wrap(err, "postgres: insert run")
}

// SaveOccurrences bulk-loads the point features of a run via COPY.
func (s *PostgresStore) SaveOccurrences(ctx context.Context, runID string, points *feature.Collection, speciesCol string) (int64, error) {
	rows := make([][]any, 0, points.Len())
	for _, f := range points.Features {
		pt, lon, lat, ok := pointCoords(f)
		if !ok {
			continue
		}
		wkb, err := encodeEWKB(pt, points.SRID)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{runID, f.String(speciesCol), lon, lat, wkb})
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"occurrences"},
		[]string{"run_id", "species", "longitude", "latitude", "geom"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: copy occurrences")
	}
	return n, nil
}

// SaveStateCounts upserts the aggregated per-state summaries of a run.
func (s *PostgresStore) SaveStateCounts(ctx context.Context, runID string, states *feature.Collection, key string) (int64, error) {
	var n int64
	for _, f := range states.Features {
		records, _ := f.Float(aggregate.FieldRecords)
		recordsSqrt, _ := f.Float(aggregate.FieldRecordsSqrt)
		wkb, err := encodeEWKB(f.Geom, states.SRID)
		if err != nil {
			return n, err
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO state_counts (run_id, state, records, records_sqrt, geom)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (run_id, state) DO UPDATE SET
				records = EXCLUDED.records,
				records_sqrt = EXCLUDED.records_sqrt,
				geom = EXCLUDED.geom`,
			runID, f.String(key), int64(records), recordsSqrt, wkb)
		if err != nil {
			return n, eris.Wrap(err, "postgres: insert state count")
		}
		n++
	}
	return n, nil
}
