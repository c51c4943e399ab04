package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudscore/adapters/artifacts"
	"fraudscore/adapters/boost"
	"fraudscore/adapters/sqlstore"
	"fraudscore/adapters/tabular"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/pipeline"
	"fraudscore/internal/testkit"
)

type recordingNarrator struct {
	text     string
	payloads []scoring.ExplanationPayload
}

func (n *recordingNarrator) Narrate(_ context.Context, payload scoring.ExplanationPayload) string {
	n.payloads = append(n.payloads, payload)
	return n.text
}

type fixture struct {
	pipeline *pipeline.Pipeline
	training *TrainingService
	scoring  *ScoringService
	narrator *recordingNarrator
	data     *dataset.Dataset
	dir      string
}

func fastPipeline(logger *internal.Logger) *pipeline.Pipeline {
	c := pipeline.DefaultConfig()
	c.Training.Iterations = 120
	c.Training.LearningRate = 0.1
	c.Training.Depth = 4
	c.Training.EarlyStoppingRounds = 30
	c.Training.BorderCount = 64
	return pipeline.New(c, boost.NewBooster(logger), boost.NewExplainer, logger)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	dir := t.TempDir()

	store, err := artifacts.NewLocalStore(filepath.Join(dir, "outputs"))
	require.NoError(t, err)
	db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	data, err := testkit.FraudDataset(1000, 42)
	require.NoError(t, err)

	p := fastPipeline(logger)
	booster := boost.NewBooster(logger)
	training := NewTrainingService(p, booster, tabular.NewDataReader(tabular.DefaultReaderConfig()), store, sqlstore.NewRunRepository(db), logger)
	training.UseDataset(data)

	narrator := &recordingNarrator{text: "**High** risk: the amount is unusual."}
	return &fixture{
		pipeline: p,
		training: training,
		scoring:  NewScoringService(p, narrator, training, 42, logger),
		narrator: narrator,
		data:     data,
		dir:      dir,
	}
}

func TestTrainPersistsAndRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.training.Retrain(ctx)
	require.NoError(t, err)
	assert.True(t, f.pipeline.Ready())

	metrics, err := f.training.Metrics()
	require.NoError(t, err)
	assert.InDelta(t, result.Evaluation.Metrics.ROCAUC, metrics.ROCAUC, 1e-12)

	runs, err := f.training.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, "is_fraud", runs[0].TargetColumn)
	assert.Equal(t, filepath.Join(f.dir, "outputs", artifacts.ModelFile), runs[0].ArtifactPath)
}

func TestRestoreServesTheSameModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.training.Train(ctx, f.data)
	require.NoError(t, err)

	record := scoring.Record{"amount": 420.0, "hour": 3.0, "merchant_category": "online", "is_international": 1.0}
	want, err := f.scoring.Predict(ctx, PredictRequest{Data: record})
	require.NoError(t, err)

	logger := internal.NewLogger(internal.LogLevelError)
	restored := fastPipeline(logger)
	store, err := artifacts.NewLocalStore(filepath.Join(f.dir, "outputs"))
	require.NoError(t, err)
	svc := NewTrainingService(restored, boost.NewBooster(logger), nil, store, nil, logger)
	require.NoError(t, svc.Restore(ctx))

	got, _, err := restored.Predict(record, pipeline.DefaultThreshold)
	require.NoError(t, err)
	assert.InDelta(t, want.RiskScore, got.RiskScore, 1e-12)

	runs, err := svc.Runs(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRestoreWithoutArtifacts(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)
	store, err := artifacts.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := NewTrainingService(fastPipeline(logger), boost.NewBooster(logger), nil, store, nil, logger)

	err = svc.Restore(context.Background())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}

func TestRetrainFromFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.dir, "transactions.csv")
	require.NoError(t, tabular.NewDataWriter().Write(path, f.data))

	ds, err := f.training.LoadDataset(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, ds.NumRows())

	result, err := f.training.Retrain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 800, result.TrainRows)
}

func TestRetrainIgnoresIdentifierColumn(t *testing.T) {
	f := newFixture(t)
	withID := f.data.Clone()
	ids := make([]dataset.Value, withID.NumRows())
	for i := range ids {
		ids[i] = dataset.NewNumericValue(float64(i))
	}
	require.NoError(t, withID.AddColumn("id", ids))
	path := filepath.Join(f.dir, "transactions_with_id.csv")
	require.NoError(t, tabular.NewDataWriter().Write(path, withID))

	ds, err := f.training.LoadDataset(path)
	require.NoError(t, err)
	assert.NotContains(t, ds.Columns(), "id")

	result, err := f.training.Retrain(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, result.Schema.FeatureColumns, "id")
	assert.Contains(t, result.Schema.FeatureColumns, "amount")
}

func TestRetrainWithoutDataset(t *testing.T) {
	logger := internal.NewLogger(internal.LogLevelError)
	store, err := artifacts.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := NewTrainingService(fastPipeline(logger), boost.NewBooster(logger), nil, store, nil, logger)

	_, err = svc.Retrain(context.Background())
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestPredictAndExplain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.training.Train(ctx, f.data)
	require.NoError(t, err)

	threshold := 0.9
	record := scoring.Record{"amount": 12.0, "hour": 14.0, "merchant_category": "grocery", "is_international": 0.0, "device": "ios"}
	resp, err := f.scoring.Predict(ctx, PredictRequest{Data: record, Threshold: &threshold})
	require.NoError(t, err)
	assert.Equal(t, 0.9, resp.Threshold)
	require.NotNil(t, resp.Alignment)
	assert.Equal(t, []string{"device"}, resp.Alignment.Unknown)

	score, prediction := 0.82, 1
	explained, err := f.scoring.Explain(ctx, ExplainRequest{Data: record, RiskScore: &score, Prediction: &prediction})
	require.NoError(t, err)
	assert.Len(t, explained.TopFeatures, 4)
	assert.Equal(t, f.narrator.text, explained.Explanation)
	assert.Contains(t, explained.ExplanationHTML, "<strong>High</strong>")

	require.Len(t, f.narrator.payloads, 1)
	payload := f.narrator.payloads[0]
	assert.Equal(t, scoring.SeverityHigh, payload.Severity)
	assert.Equal(t, scoring.DecisionFraud, payload.Decision)
	assert.Equal(t, explained.TopFeatures, payload.TopFeatures)
}

func TestExplainRecomputesMissingScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.training.Train(ctx, f.data)
	require.NoError(t, err)

	record := scoring.Record{"amount": 900.0, "hour": 2.0, "merchant_category": "online", "is_international": 1.0}
	predicted, err := f.scoring.Predict(ctx, PredictRequest{Data: record})
	require.NoError(t, err)

	_, err = f.scoring.Explain(ctx, ExplainRequest{Data: record})
	require.NoError(t, err)
	require.Len(t, f.narrator.payloads, 1)
	assert.InDelta(t, predicted.RiskScore, f.narrator.payloads[0].RiskScore, 1e-12)

	bad := 1.5
	_, err = f.scoring.Explain(ctx, ExplainRequest{Data: record, RiskScore: &bad})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestListTransactionsMixesPositives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.training.Train(ctx, f.data)
	require.NoError(t, err)

	txs, err := f.scoring.ListTransactions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 10)

	frauds := 0
	for _, tx := range txs {
		if tx.Data["is_fraud"] == 1.0 {
			frauds++
		}
		assert.GreaterOrEqual(t, tx.RiskScore, 0.0)
		assert.LessOrEqual(t, tx.RiskScore, 1.0)
		assert.GreaterOrEqual(t, tx.DeviationIndex, 0.0)
		assert.NotEmpty(t, tx.ConfidenceLabel)
	}
	assert.Equal(t, 5, frauds)
	assert.Equal(t, 1000, f.scoring.DatasetRows())
}

func TestListTransactionsNeedsModel(t *testing.T) {
	f := newFixture(t)
	_, err := f.scoring.ListTransactions(context.Background(), 10)
	assert.Equal(t, apperrors.CodeModelNotReady, apperrors.GetCode(err))

	empty := NewScoringService(f.pipeline, f.narrator, nil, 42, nil)
	txs, err := empty.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("Risk is **high**.\n\n<script>alert(1)</script>")
	assert.Contains(t, out, "<strong>high</strong>")
	assert.NotContains(t, out, "<script>")
}
