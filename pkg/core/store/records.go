// Package store persists extraction records. Hybrid Vault: Postgres when
// DATABASE_URL is configured, file system fallback for local runs. The
// prior-year totals used by the reconciler's relative plausibility band
// come from here.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pension_extraction/pkg/core/extract"
)

var (
	pool     *pgxpool.Pool
	poolOnce sync.Once
)

// InitDB initializes the database connection pool using the DATABASE_URL
// environment variable.
func InitDB(ctx context.Context) error {
	var err error
	poolOnce.Do(func() {
		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			err = fmt.Errorf("DATABASE_URL environment variable not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
	})
	return err
}

// GetPool returns the database connection pool, nil when InitDB was never
// called or failed.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool.
func Close() {
	if pool != nil {
		pool.Close()
	}
}

// =============================================================================
// RECORD STORE - Hybrid persistence for extraction records
// =============================================================================

// RecordStore persists one extraction record per reporting year. With a
// pool it reads and writes Postgres; without one it keeps JSON files under
// fileDir. A store with neither is a no-op.
type RecordStore struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewRecordStore creates a store. If pool is nil and dir is empty, a local
// default directory is used.
func NewRecordStore(pool *pgxpool.Pool, dir string) *RecordStore {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "extraction_records")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check RecordStore dir: %v\n", err)
		}
	}
	return &RecordStore{pool: pool, fileDir: dir}
}

// Save upserts a record keyed by reporting year.
func (s *RecordStore) Save(ctx context.Context, rec extract.Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if s.pool != nil {
		query := `
			INSERT INTO extraction_records (reporting_year, status, source_digest, data, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (reporting_year)
			DO UPDATE SET status = $2, source_digest = $3, data = $4, updated_at = NOW()
		`
		_, err := s.pool.Exec(ctx, query, rec.ReportingYear, string(rec.Status), rec.SourceDigest, data)
		if err != nil {
			return fmt.Errorf("failed to save record for %d: %w", rec.ReportingYear, err)
		}
		return nil
	}

	if s.fileDir != "" {
		return os.WriteFile(s.recordPath(rec.ReportingYear), data, 0644)
	}
	return nil
}

// Load retrieves the record for a reporting year. A missing record is
// (nil, nil), not an error.
func (s *RecordStore) Load(ctx context.Context, year int) (*extract.Record, error) {
	if s.pool != nil {
		query := `
			SELECT data
			FROM extraction_records
			WHERE reporting_year = $1
			LIMIT 1
		`
		var data []byte
		err := s.pool.QueryRow(ctx, query, year).Scan(&data)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load record for %d: %w", year, err)
		}
		var rec extract.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stored record: %w", err)
		}
		return &rec, nil
	}

	if s.fileDir != "" {
		data, err := os.ReadFile(s.recordPath(year))
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		var rec extract.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached record: %w", err)
		}
		return &rec, nil
	}

	return nil, nil
}

// PriorTotal returns the stored total-assets figure for the year preceding
// the given one, or 0 when unknown. Lookup failures degrade to 0: the
// relative band check is advisory and must never block extraction.
func (s *RecordStore) PriorTotal(ctx context.Context, year int) float64 {
	rec, err := s.Load(ctx, year-1)
	if err != nil || rec == nil || rec.TotalAssets.Value == nil {
		return 0
	}
	return *rec.TotalAssets.Value
}

func (s *RecordStore) recordPath(year int) string {
	return filepath.Join(s.fileDir, fmt.Sprintf("record_%d.json", year))
}
