package migration

import (
	"context"
	"crypto/sha256"
	"fmt"

	"fraudscore/internal"
	"fraudscore/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// step is one versioned schema change. Statements must be valid on both sqlite and postgres.
type step struct {
	version    string
	statements []string
}

var steps = []step{
	{
		version: "001_training_runs",
		statements: []string{`
			CREATE TABLE IF NOT EXISTS training_runs (
				id TEXT PRIMARY KEY,
				dataset_fingerprint TEXT NOT NULL,
				target_column TEXT NOT NULL,
				split_strategy TEXT NOT NULL,
				train_rows INTEGER NOT NULL,
				eval_rows INTEGER NOT NULL,
				class_weight DOUBLE PRECISION NOT NULL,
				best_iteration INTEGER NOT NULL,
				roc_auc DOUBLE PRECISION NOT NULL,
				precision_score DOUBLE PRECISION NOT NULL,
				recall_score DOUBLE PRECISION NOT NULL,
				f1_score DOUBLE PRECISION NOT NULL,
				artifact_path TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		version: "002_training_runs_indexes",
		statements: []string{
			"CREATE INDEX IF NOT EXISTS idx_training_runs_created_at ON training_runs(created_at DESC)",
			"CREATE INDEX IF NOT EXISTS idx_training_runs_fingerprint ON training_runs(dataset_fingerprint)",
		},
	},
}

// MigrationRunner applies the pending schema steps and records them in schema_migrations
type MigrationRunner struct {
	logger *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{logger: logger.WithComponent("Migration")}
}

// Version returns the latest schema version this runner knows
func (r *MigrationRunner) Version() string {
	return steps[len(steps)-1].version
}

// Run executes all pending migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return errors.Wrap(err, "failed to create schema_migrations table")
	}

	applied, err := r.applied(ctx, db)
	if err != nil {
		return errors.Wrap(err, "failed to read applied migrations")
	}

	for _, s := range steps {
		sum := checksum(s)
		if prev, ok := applied[s.version]; ok {
			if prev != sum {
				r.logger.Warn("migration %s changed since it was applied", s.version)
			}
			continue
		}
		if err := r.apply(ctx, db, s, sum); err != nil {
			return errors.Wrapf(err, "failed to run migration %s", s.version)
		}
		r.logger.Info("applied migration %s", s.version)
	}
	return nil
}

func (r *MigrationRunner) applied(ctx context.Context, db *sqlx.DB) (map[string]string, error) {
	var rows []struct {
		Version  string `db:"version"`
		Checksum string `db:"checksum"`
	}
	if err := db.SelectContext(ctx, &rows, "SELECT version, checksum FROM schema_migrations"); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Version] = row.Checksum
	}
	return out, nil
}

func (r *MigrationRunner) apply(ctx context.Context, db *sqlx.DB, s step, sum string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range s.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO schema_migrations (version, checksum) VALUES (?, ?)"), s.version, sum); err != nil {
		return err
	}
	return tx.Commit()
}

func checksum(s step) string {
	h := sha256.New()
	for _, stmt := range s.statements {
		h.Write([]byte(stmt))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
