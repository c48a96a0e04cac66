package repository

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/openshelf/reportgen/internal/config"
	"github.com/openshelf/reportgen/internal/domain"
)

// RunRecord is one completed report run as persisted in the history table.
type RunRecord struct {
	ID              int64     `db:"id" json:"id"`
	ProjectID       string    `db:"project_id" json:"project_id"`
	Filename        string    `db:"filename" json:"filename"`
	StorageKey      string    `db:"storage_key" json:"storage_key"`
	ProductCount    int       `db:"product_count" json:"product_count"`
	UserCount       int       `db:"user_count" json:"user_count"`
	PricingIncluded bool      `db:"pricing_included" json:"pricing_included"`
	DatasetSizeMode string    `db:"dataset_size_mode" json:"dataset_size_mode"`
	DurationSeconds float64   `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// NewDB opens the run-history database. Callers should skip construction
// entirely when cfg.Host is empty; history is optional.
func NewDB(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// RunHistoryRepository stores completed run manifests.
type RunHistoryRepository struct {
	db *sqlx.DB
}

func NewRunHistoryRepository(db *sqlx.DB) *RunHistoryRepository {
	return &RunHistoryRepository{db: db}
}

// EnsureSchema creates the history table if it does not exist.
func (r *RunHistoryRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS report_runs (
            id BIGSERIAL PRIMARY KEY,
            project_id TEXT NOT NULL,
            filename TEXT NOT NULL,
            storage_key TEXT NOT NULL,
            product_count INT NOT NULL,
            user_count INT NOT NULL,
            pricing_included BOOLEAN NOT NULL,
            dataset_size_mode TEXT NOT NULL,
            duration_seconds DOUBLE PRECISION NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure report_runs schema: %w", err)
	}
	return nil
}

// RecordRun persists one successful run's manifest.
func (r *RunHistoryRepository) RecordRun(ctx context.Context, projectID string, m *domain.Manifest) error {
	const query = `
        INSERT INTO report_runs (
            project_id, filename, storage_key, product_count, user_count,
            pricing_included, dataset_size_mode, duration_seconds, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		projectID,
		m.Filename,
		m.StorageKey,
		m.Counts.ProductCount,
		m.Counts.UserCount,
		m.PricingIncluded,
		m.DatasetSizeMode,
		m.DurationSeconds,
		m.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecentRuns returns the newest runs for a project, newest first.
func (r *RunHistoryRepository) RecentRuns(ctx context.Context, projectID string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `
        SELECT id, project_id, filename, storage_key, product_count, user_count,
               pricing_included, dataset_size_mode, duration_seconds, created_at
        FROM report_runs
        WHERE project_id = $1
        ORDER BY created_at DESC
        LIMIT $2`

	var records []RunRecord
	if err := r.db.SelectContext(ctx, &records, query, projectID, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	return records, nil
}
