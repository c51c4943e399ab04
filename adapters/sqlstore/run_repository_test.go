package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudscore/domain/core"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/migration"
	"fraudscore/ports"
)

func openTestRepo(t *testing.T) *RunRepository {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, ":memory:", internal.NewLogger(internal.LogLevelError))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunRepository(db)
}

func sampleRun(id string, at time.Time) *ports.TrainingRun {
	return &ports.TrainingRun{
		ID:                 core.RunID(id),
		DatasetFingerprint: "abc123",
		TargetColumn:       "is_fraud",
		SplitStrategy:      "stratified",
		TrainRows:          800,
		EvalRows:           200,
		ClassWeight:        11.5,
		BestIteration:      87,
		ROCAUC:             0.91,
		Precision:          0.4,
		Recall:             0.8,
		F1:                 0.5333,
		ArtifactPath:       "outputs/fraud_model.bin",
		CreatedAt:          at,
	}
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record(ctx, sampleRun("run-1", base)))
	require.NoError(t, repo.Record(ctx, sampleRun("run-2", base.Add(time.Hour))))

	got, err := repo.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "is_fraud", got.TargetColumn)
	assert.Equal(t, 87, got.BestIteration)
	assert.InDelta(t, 0.91, got.ROCAUC, 1e-12)
	assert.True(t, base.Equal(got.CreatedAt))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.RunID("run-2"), latest.ID)

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, core.RunID("run-2"), runs[0].ID)

	assert.Error(t, repo.Record(ctx, sampleRun("run-1", base)), "duplicate ids are rejected")
}

func TestRunRepositoryNotFound(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
	_, err = repo.Latest(ctx)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))

	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	repo := openTestRepo(t)
	runner := migration.NewRunner(internal.NewLogger(internal.LogLevelError))
	require.NoError(t, runner.Run(context.Background(), repo.db))

	var count int
	require.NoError(t, repo.db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 2, count)
	assert.Equal(t, "002_training_runs_indexes", runner.Version())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "", nil)
	assert.Error(t, err)
}
