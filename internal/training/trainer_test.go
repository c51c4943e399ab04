package training

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/ports"
)

type mockBooster struct {
	mock.Mock
}

func (m *mockBooster) Fit(train, eval ports.TrainingMatrix, params ports.BoostParams) (ports.Model, error) {
	args := m.Called(train, eval, params)
	if model := args.Get(0); model != nil {
		return model.(ports.Model), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBooster) Load(data []byte) (ports.Model, error) {
	args := m.Called(data)
	return nil, args.Error(1)
}

func tinyDataset(t *testing.T) *dataset.Dataset {
	ds, err := dataset.New([]string{"amount", "merchant", "fraud"})
	require.NoError(t, err)
	require.NoError(t, ds.Append([]dataset.Value{dataset.NewNumericValue(10), dataset.NewStringValue("a"), dataset.NewNumericValue(0)}))
	require.NoError(t, ds.Append([]dataset.Value{dataset.NewNumericValue(900), dataset.NewStringValue("b"), dataset.NewNumericValue(1)}))
	return ds
}

func TestParamsCarryClassWeight(t *testing.T) {
	p := DefaultConfig().Params(19)
	assert.Equal(t, 19.0, p.ScalePosWeight)
	assert.Equal(t, 2000, p.Iterations)
	assert.Equal(t, 0.03, p.LearningRate)
	assert.Equal(t, 8, p.Depth)
	assert.Equal(t, 100, p.EarlyStoppingRounds)
	assert.Equal(t, "AUC", p.EvalMetric)
	assert.True(t, p.UseBestModel)
}

func TestTrainWrapsBoosterFailure(t *testing.T) {
	ds := tinyDataset(t)
	schema := &scoring.Schema{TargetColumn: "fraud", FeatureColumns: []string{"amount", "merchant"}, CategoricalColumns: []string{"merchant"}}

	booster := new(mockBooster)
	booster.On("Fit", mock.MatchedBy(func(m ports.TrainingMatrix) bool {
		return len(m.Rows) == 2 && m.Categorical[1] && !m.Categorical[0]
	}), mock.Anything, mock.MatchedBy(func(p ports.BoostParams) bool {
		return p.ScalePosWeight == 1
	})).Return(nil, errors.New("incompatible dtypes"))

	trainer := NewTrainer(booster, DefaultConfig(), internal.NewLogger(internal.LogLevelError))
	_, err := trainer.Train(ds, ds, schema, []float64{0, 1}, []float64{0, 1}, 1)

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTrainingError, apperrors.GetCode(err))
	assert.Contains(t, err.Error(), "incompatible dtypes")
	booster.AssertExpectations(t)
}

func TestTrainRejectsMissingFeature(t *testing.T) {
	ds := tinyDataset(t)
	schema := &scoring.Schema{TargetColumn: "fraud", FeatureColumns: []string{"amount", "nope"}}
	trainer := NewTrainer(new(mockBooster), DefaultConfig(), internal.NewLogger(internal.LogLevelError))

	_, err := trainer.Train(ds, ds, schema, []float64{0, 1}, []float64{0, 1}, 1)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTrainingError, apperrors.GetCode(err))
}
