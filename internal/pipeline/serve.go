package pipeline

import (
	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/features"
	"fraudscore/internal/serving"
)

// Predict scores one raw record. Alignment problems never fail the request; they are
// returned in the report.
func (p *Pipeline) Predict(record scoring.Record, threshold float64) (*scoring.ScoredRecord, scoring.AlignmentReport, error) {
	if err := validThreshold(threshold); err != nil {
		return nil, scoring.AlignmentReport{}, err
	}
	st, err := p.current()
	if err != nil {
		return nil, scoring.AlignmentReport{}, err
	}

	row, report := p.adapter.Align(record, &st.schema)
	probs, err := st.model.PredictProba([][]dataset.Value{row})
	if err != nil {
		return nil, report, apperrors.Wrap(err, "prediction failed")
	}
	return p.scored(st, row, probs[0], threshold), report, nil
}

func (p *Pipeline) scored(st *active, row []dataset.Value, score, threshold float64) *scoring.ScoredRecord {
	return &scoring.ScoredRecord{
		RiskScore:       score,
		Prediction:      boolToInt(score >= threshold),
		Threshold:       threshold,
		ConfidenceLabel: serving.ConfidenceLabel(score),
		DeviationIndex:  serving.DeviationIndex(row, &st.schema, st.reference),
		Timestamp:       core.Now(),
	}
}

// Explain returns the top attributions of one raw record under the active model
func (p *Pipeline) Explain(record scoring.Record) (scoring.Attribution, scoring.AlignmentReport, error) {
	st, err := p.current()
	if err != nil {
		return nil, scoring.AlignmentReport{}, err
	}
	row, report := p.adapter.Align(record, &st.schema)
	attr, err := p.explainer.Instance(st.model, st.generation, row)
	if err != nil {
		return nil, report, apperrors.Wrap(err, "explanation failed")
	}
	return attr, report, nil
}

// ScoreDataset scores every row of ds. It returns a cleaned copy of ds with the risk_score
// and prediction columns added, and the per-row serving view. Numeric gaps are filled with
// medians of ds itself; a column ds cannot fill falls back to the training median.
func (p *Pipeline) ScoreDataset(ds *dataset.Dataset, threshold float64) (*dataset.Dataset, []scoring.ScoredRecord, error) {
	if err := validThreshold(threshold); err != nil {
		return nil, nil, err
	}
	st, err := p.current()
	if err != nil {
		return nil, nil, err
	}

	work := ds.Clone()
	p.preprocessor.CleanWithFallback(work, st.schema.FeatureColumns, st.medians)
	rows, err := features.Rows(work, &st.schema)
	if err != nil {
		return nil, nil, apperrors.InvalidInput(err.Error())
	}
	probs, err := st.model.PredictProba(rows)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "batch prediction failed")
	}

	scores := make([]dataset.Value, len(probs))
	preds := make([]dataset.Value, len(probs))
	out := make([]scoring.ScoredRecord, len(probs))
	for i, score := range probs {
		rec := p.scored(st, rows[i], score, threshold)
		out[i] = *rec
		scores[i] = dataset.NewNumericValue(score)
		preds[i] = dataset.NewNumericValue(float64(rec.Prediction))
	}
	if err := work.AddColumn("risk_score", scores); err != nil {
		return nil, nil, apperrors.Wrap(err, "add risk_score")
	}
	if err := work.AddColumn("prediction", preds); err != nil {
		return nil, nil, apperrors.Wrap(err, "add prediction")
	}
	p.logger.Info("scored %d rows at threshold %.2f", len(probs), threshold)
	return work, out, nil
}
