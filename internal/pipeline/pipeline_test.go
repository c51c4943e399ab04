package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudscore/adapters/boost"
	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/serving"
	"fraudscore/internal/testkit"
)

func fastConfig() Config {
	c := DefaultConfig()
	c.Training.Iterations = 150
	c.Training.LearningRate = 0.1
	c.Training.Depth = 4
	c.Training.EarlyStoppingRounds = 40
	c.Training.BorderCount = 64
	return c
}

func newPipeline(config Config) *Pipeline {
	logger := internal.NewLogger(internal.LogLevelError)
	return New(config, boost.NewBooster(logger), boost.NewExplainer, logger)
}

func trainedPipeline(t *testing.T) (*Pipeline, *TrainingOutcome, *dataset.Dataset) {
	t.Helper()
	ds, err := testkit.FraudDataset(1000, 42)
	require.NoError(t, err)
	p := newPipeline(fastConfig())
	outcome, err := p.Train(ds)
	require.NoError(t, err)
	return p, outcome, ds
}

func TestEndToEndTraining(t *testing.T) {
	p, outcome, ds := trainedPipeline(t)
	result := outcome.Result

	assert.Equal(t, "is_fraud", result.Schema.TargetColumn)
	assert.Equal(t, []string{"merchant_category"}, result.Schema.CategoricalColumns)
	assert.Equal(t, scoring.SplitStratified, result.Strategy)
	assert.Equal(t, 800, result.TrainRows)
	assert.Equal(t, 200, result.EvalRows)
	assert.Greater(t, result.ClassWeight, 1.0)

	m := result.Evaluation.Metrics
	assert.Greater(t, m.ROCAUC, 0.6)
	for _, v := range []float64{m.ROCAUC, m.Precision, m.Recall, m.F1} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	require.NotEmpty(t, result.GlobalImportance)
	assert.Equal(t, "amount", result.GlobalImportance[0].Feature)
	require.Len(t, result.ShapSummary, 4)
	assert.Equal(t, uint64(1), result.Generation)

	assert.True(t, p.Ready())
	assert.Equal(t, 1000, ds.NumRows())
	assert.Len(t, ds.Columns(), 5, "training must not add columns to the caller's dataset")
}

func TestAllZeroRecordScoresConsistently(t *testing.T) {
	p, _, _ := trainedPipeline(t)

	record := scoring.Record{"amount": 0.0, "hour": 0.0, "merchant_category": 0.0, "is_international": 0.0}
	scored, report, err := p.Predict(record, DefaultThreshold)
	require.NoError(t, err)
	assert.True(t, report.Clean())

	assert.GreaterOrEqual(t, scored.RiskScore, 0.0)
	assert.LessOrEqual(t, scored.RiskScore, 1.0)
	assert.Equal(t, serving.ConfidenceLabel(scored.RiskScore), scored.ConfidenceLabel)
	assert.Equal(t, boolToInt(scored.RiskScore >= DefaultThreshold), scored.Prediction)
	assert.Equal(t, 0.0, scored.DeviationIndex)
	assert.False(t, scored.Timestamp.IsZero())
}

func TestPredictIsPermissive(t *testing.T) {
	p, _, _ := trainedPipeline(t)

	scored, report, err := p.Predict(scoring.Record{"amount": 900, "typo_field": 1}, 0.3)
	require.NoError(t, err)
	assert.Equal(t, []string{"typo_field"}, report.Unknown)
	assert.ElementsMatch(t, []string{"hour", "merchant_category", "is_international"}, report.Missing)
	assert.Equal(t, 0.3, scored.Threshold)

	_, _, err = p.Predict(scoring.Record{}, 1.5)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestHighAmountScoresAboveLowAmount(t *testing.T) {
	p, _, _ := trainedPipeline(t)

	low, _, err := p.Predict(scoring.Record{"amount": 20, "hour": 12, "merchant_category": "food", "is_international": 0}, 0.5)
	require.NoError(t, err)
	high, _, err := p.Predict(scoring.Record{"amount": 900, "hour": 12, "merchant_category": "food", "is_international": 0}, 0.5)
	require.NoError(t, err)
	assert.Greater(t, high.RiskScore, low.RiskScore)
}

func TestExplainTopFeatures(t *testing.T) {
	p, _, _ := trainedPipeline(t)

	attr, _, err := p.Explain(scoring.Record{"amount": 900, "hour": 3, "merchant_category": "online", "is_international": 1})
	require.NoError(t, err)
	require.Len(t, attr, 4)
	for i := 1; i < len(attr); i++ {
		assert.GreaterOrEqual(t, abs(attr[i-1].Value), abs(attr[i].Value))
	}
	assert.Equal(t, "amount", attr[0].Feature)
	assert.Greater(t, attr[0].Value, 0.0)
}

func TestRetrainInvalidatesAttributionEngine(t *testing.T) {
	p, _, ds := trainedPipeline(t)
	record := scoring.Record{"amount": 300}

	_, _, err := p.Explain(record)
	require.NoError(t, err)
	_, _, err = p.Explain(record)
	require.NoError(t, err)
	builds := p.explainer.Builds()

	outcome, err := p.Train(ds)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), outcome.Result.Generation)

	_, _, err = p.Explain(record)
	require.NoError(t, err)
	assert.Equal(t, builds+1, p.explainer.Builds(), "the new generation gets its own engine")
	assert.Equal(t, uint64(2), p.Snapshot().Generation)
}

func TestActivateRestoresServing(t *testing.T) {
	p, outcome, _ := trainedPipeline(t)
	blob, err := outcome.Model.MarshalBinary()
	require.NoError(t, err)

	logger := internal.NewLogger(internal.LogLevelError)
	booster := boost.NewBooster(logger)
	model, err := booster.Load(blob)
	require.NoError(t, err)

	restored := newPipeline(fastConfig())
	require.NoError(t, restored.Activate(model, outcome.Bundle))

	record := scoring.Record{"amount": 410, "hour": 2, "merchant_category": "travel", "is_international": 1}
	want, _, err := p.Predict(record, 0.5)
	require.NoError(t, err)
	got, _, err := restored.Predict(record, 0.5)
	require.NoError(t, err)
	assert.Equal(t, want.RiskScore, got.RiskScore)

	bad := *outcome.Bundle
	bad.Schema.FeatureColumns = []string{"amount"}
	assert.Error(t, restored.Activate(model, &bad))
}

func TestNotReady(t *testing.T) {
	p := newPipeline(fastConfig())
	assert.False(t, p.Ready())

	_, _, err := p.Predict(scoring.Record{}, 0.5)
	assert.Equal(t, apperrors.CodeModelNotReady, apperrors.GetCode(err))
	assert.True(t, core.IsFatal(err))
	_, _, err = p.Explain(scoring.Record{})
	assert.Equal(t, apperrors.CodeModelNotReady, apperrors.GetCode(err))
	_, err = p.GlobalImportance()
	assert.Equal(t, apperrors.CodeModelNotReady, apperrors.GetCode(err))
}

func TestTrainSchemaError(t *testing.T) {
	ds, err := dataset.New([]string{"only"})
	require.NoError(t, err)
	require.NoError(t, ds.Append([]dataset.Value{dataset.NewNumericValue(1)}))

	_, err = newPipeline(fastConfig()).Train(ds)
	assert.Equal(t, apperrors.CodeSchemaError, apperrors.GetCode(err))
}

func TestTrainNonBinaryTarget(t *testing.T) {
	ds, err := dataset.New([]string{"amount", "fraud"})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, ds.Append([]dataset.Value{dataset.NewNumericValue(float64(i)), dataset.NewNumericValue(float64(i % 3))}))
	}
	_, err = newPipeline(fastConfig()).Train(ds)
	assert.Equal(t, apperrors.CodeTrainingError, apperrors.GetCode(err))
}

func TestTrainSingleClassIsFatal(t *testing.T) {
	ds, err := dataset.New([]string{"amount", "fraud"})
	require.NoError(t, err)
	for i := 0; i < 40; i++ {
		require.NoError(t, ds.Append([]dataset.Value{dataset.NewNumericValue(float64(i)), dataset.NewNumericValue(0)}))
	}
	_, err = newPipeline(fastConfig()).Train(ds)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTrainingError, apperrors.GetCode(err))
	assert.True(t, core.IsTrainingError(err))
	assert.True(t, core.IsFatal(err))
	assert.False(t, core.IsRecoverable(err))
}

func TestScoreDataset(t *testing.T) {
	p, _, ds := trainedPipeline(t)

	batch := ds.Head(20)
	amount, _ := batch.ColumnIndex("amount")
	batch.Set(0, amount, dataset.NewMissingValue())

	scored, records, err := p.ScoreDataset(batch, 0.5)
	require.NoError(t, err)
	require.Len(t, records, 20)
	assert.True(t, batch.Value(0, amount).IsMissing(), "input batch must not be modified")

	scores, err := scored.Column("risk_score")
	require.NoError(t, err)
	preds, err := scored.Column("prediction")
	require.NoError(t, err)
	for i := range records {
		assert.Equal(t, records[i].RiskScore, scores[i].Num)
		assert.Equal(t, float64(records[i].Prediction), preds[i].Num)
	}
	c, _ := scored.ColumnIndex("amount")
	assert.False(t, scored.Value(0, c).IsMissing())
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
