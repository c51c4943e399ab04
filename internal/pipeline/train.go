package pipeline

import (
	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/features"
	"fraudscore/internal/prep"
	"fraudscore/internal/schema"
	"fraudscore/internal/serving"
	"fraudscore/ports"
)

// Train runs the full training flow on ds and activates the resulting model. ds itself is
// not modified; the flow works on a cleaned copy.
func (p *Pipeline) Train(ds *dataset.Dataset) (*TrainingOutcome, error) {
	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	if ds == nil || ds.NumRows() == 0 {
		return nil, apperrors.SchemaError("dataset is empty", core.ErrInsufficientData)
	}

	s, err := schema.InferWithTarget(ds, p.config.TargetColumn)
	if err != nil {
		return nil, apperrors.SchemaError("schema inference failed", err)
	}
	if p.config.TargetColumn == "" && schema.IsFallbackTarget(ds.Columns(), s.TargetColumn) {
		p.logger.Warn("no canonical target column found, falling back to last column %q", s.TargetColumn)
	}
	p.logger.Info("target column: %s | %d features (%d categorical)", s.TargetColumn, len(s.FeatureColumns), len(s.CategoricalColumns))

	work := ds.Clone()
	medians := p.preprocessor.Clean(work, s.FeatureColumns)

	labels, err := prep.TargetLabels(work, s.TargetColumn)
	if err != nil {
		return nil, apperrors.TrainingError("target column is not binary", err)
	}
	dist := prep.Distribution(labels)
	classWeight := prep.ClassWeight(labels)
	p.logger.Info("class distribution: %d negatives, %d positives (rate %.4f), class weight %.4f",
		dist.Negatives, dist.Positives, dist.PositiveRate, classWeight)
	if dist.Positives == 0 {
		p.logger.Warn("no positive examples, imbalance correction disabled")
	}

	sp, err := p.splitter.Split(work, s)
	if err != nil {
		return nil, apperrors.TrainingError("split failed", err)
	}
	trainLabels, err := prep.TargetLabels(sp.Train, s.TargetColumn)
	if err != nil {
		return nil, apperrors.TrainingError("train labels", err)
	}
	evalLabels, err := prep.TargetLabels(sp.Eval, s.TargetColumn)
	if err != nil {
		return nil, apperrors.TrainingError("eval labels", err)
	}

	model, err := p.trainer.Train(sp.Train, sp.Eval, s, trainLabels, evalLabels, classWeight)
	if err != nil {
		return nil, err
	}

	evalRows, err := features.Rows(sp.Eval, s)
	if err != nil {
		return nil, apperrors.TrainingError("eval rows", err)
	}
	eval, err := p.evaluator.Evaluate(model, evalRows, evalLabels, p.config.Threshold)
	if err != nil {
		return nil, apperrors.TrainingError("evaluation failed", err)
	}

	st := &active{
		runID:       core.NewRunID(),
		schema:      *s,
		model:       model,
		reference:   serving.BuildReference(work, s, p.config.DeviationPrefix, p.config.ReferenceRows),
		medians:     medians,
		threshold:   p.config.Threshold,
		importance:  p.explainer.Global(model),
		trainedAt:   core.Now(),
		fingerprint: core.ComputeDatasetFingerprint(ds.Columns(), ds.NumRows()).String(),
	}
	gen := p.swap(st)

	summaryInput := evalRows
	if len(summaryInput) > summaryRows {
		summaryInput = summaryInput[:summaryRows]
	}
	summary, err := p.explainer.Summary(model, gen, summaryInput)
	if err != nil {
		p.logger.Warn("shap summary unavailable: %v", err)
	}

	result := &scoring.TrainingResult{
		RunID:            st.runID,
		Schema:           *s,
		Strategy:         sp.Strategy,
		TimeColumn:       sp.TimeColumn,
		TrainRows:        sp.Train.NumRows(),
		EvalRows:         sp.Eval.NumRows(),
		ClassWeight:      classWeight,
		BestIteration:    model.BestIteration(),
		Evaluation:       *eval,
		GlobalImportance: st.importance,
		ShapSummary:      summary,
		Fingerprint:      st.fingerprint,
		TrainedAt:        st.trainedAt,
		Generation:       gen,
	}
	p.logger.Info("run %s active as generation %d (roc_auc %.4f)", st.runID, gen, eval.Metrics.ROCAUC)

	return &TrainingOutcome{Result: result, Model: model, Bundle: st.bundle()}, nil
}

// Record converts a training result into its registry row
func Record(result *scoring.TrainingResult, artifactPath string) *ports.TrainingRun {
	m := result.Evaluation.Metrics
	return &ports.TrainingRun{
		ID:                 result.RunID,
		DatasetFingerprint: result.Fingerprint,
		TargetColumn:       result.Schema.TargetColumn,
		SplitStrategy:      string(result.Strategy),
		TrainRows:          result.TrainRows,
		EvalRows:           result.EvalRows,
		ClassWeight:        result.ClassWeight,
		BestIteration:      result.BestIteration,
		ROCAUC:             m.ROCAUC,
		Precision:          m.Precision,
		Recall:             m.Recall,
		F1:                 m.F1,
		ArtifactPath:       artifactPath,
		CreatedAt:          result.TrainedAt.Time(),
	}
}
