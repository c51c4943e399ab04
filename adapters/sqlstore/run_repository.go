package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"fraudscore/domain/core"
	apperrors "fraudscore/internal/errors"
	"fraudscore/ports"
)

const runColumns = `id, dataset_fingerprint, target_column, split_strategy, train_rows, eval_rows,
	class_weight, best_iteration, roc_auc, precision_score, recall_score, f1_score,
	artifact_path, created_at`

// RunRepository implements ports.RunRepository with sqlx
type RunRepository struct {
	db *sqlx.DB
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a run repository on an open, migrated database
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record inserts one training run
func (r *RunRepository) Record(ctx context.Context, run *ports.TrainingRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO training_runs (
			id, dataset_fingerprint, target_column, split_strategy, train_rows, eval_rows,
			class_weight, best_iteration, roc_auc, precision_score, recall_score, f1_score,
			artifact_path, created_at
		) VALUES (
			:id, :dataset_fingerprint, :target_column, :split_strategy, :train_rows, :eval_rows,
			:class_weight, :best_iteration, :roc_auc, :precision_score, :recall_score, :f1_score,
			:artifact_path, :created_at
		)
	`, run)
	if err != nil {
		return apperrors.Wrap(apperrors.WithCode(apperrors.CodeDatabaseError, err), "failed to record training run")
	}
	return nil
}

// Get loads one run by id
func (r *RunRepository) Get(ctx context.Context, id core.RunID) (*ports.TrainingRun, error) {
	var run ports.TrainingRun
	err := r.db.GetContext(ctx, &run, r.db.Rebind("SELECT "+runColumns+" FROM training_runs WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("training run " + id.String())
	}
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return &run, nil
}

// Latest returns the most recent run
func (r *RunRepository) Latest(ctx context.Context) (*ports.TrainingRun, error) {
	runs, err := r.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, apperrors.NotFound("training run")
	}
	return &runs[0], nil
}

// List returns up to limit runs, newest first
func (r *RunRepository) List(ctx context.Context, limit int) ([]ports.TrainingRun, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := []ports.TrainingRun{}
	err := r.db.SelectContext(ctx, &runs, r.db.Rebind("SELECT "+runColumns+" FROM training_runs ORDER BY created_at DESC, id DESC LIMIT ?"), limit)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeDatabaseError, err)
	}
	return runs, nil
}
