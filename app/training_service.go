package app

import (
	"context"
	"sync"
	"time"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/pipeline"
	"fraudscore/internal/telemetry"
	"fraudscore/ports"
)

// TrainingService trains the pipeline, persists the artifacts and records each run
type TrainingService struct {
	pipeline *pipeline.Pipeline
	booster  ports.Booster
	reader   ports.TableReader
	store    ports.ArtifactStore
	runs     ports.RunRepository // optional
	logger   *internal.Logger

	mu       sync.RWMutex
	data     *dataset.Dataset
	dataPath string
}

// NewTrainingService creates a training service. runs may be nil to skip the registry.
func NewTrainingService(
	p *pipeline.Pipeline,
	booster ports.Booster,
	reader ports.TableReader,
	store ports.ArtifactStore,
	runs ports.RunRepository,
	logger *internal.Logger,
) *TrainingService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TrainingService{
		pipeline: p,
		booster:  booster,
		reader:   reader,
		store:    store,
		runs:     runs,
		logger:   logger.WithComponent("TrainingService"),
	}
}

// LoadDataset reads the table at path and keeps it as the service dataset
func (s *TrainingService) LoadDataset(path string) (*dataset.Dataset, error) {
	ds, err := s.reader.Read(path)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.WithCode(apperrors.CodeInvalidInput, err), "failed to read %s", path)
	}
	s.mu.Lock()
	s.data, s.dataPath = ds, path
	s.mu.Unlock()
	s.logger.Info("loaded %d rows x %d columns from %s", ds.NumRows(), ds.NumColumns(), path)
	return ds, nil
}

// UseDataset sets an in-memory dataset, e.g. the synthetic one
func (s *TrainingService) UseDataset(ds *dataset.Dataset) {
	s.mu.Lock()
	s.data, s.dataPath = ds, ""
	s.mu.Unlock()
}

// Dataset returns the service dataset, or nil
func (s *TrainingService) Dataset() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Retrain reloads the dataset from its file when there is one, then trains on it
func (s *TrainingService) Retrain(ctx context.Context) (*scoring.TrainingResult, error) {
	s.mu.RLock()
	path, ds := s.dataPath, s.data
	s.mu.RUnlock()

	if path != "" {
		var err error
		if ds, err = s.LoadDataset(path); err != nil {
			return nil, err
		}
	}
	if ds == nil {
		return nil, apperrors.InvalidInput("no dataset loaded")
	}
	return s.Train(ctx, ds)
}

// Train fits a new model on ds, makes it active, writes the artifacts and records the run
func (s *TrainingService) Train(ctx context.Context, ds *dataset.Dataset) (*scoring.TrainingResult, error) {
	start := time.Now()
	outcome, err := s.pipeline.Train(ds)
	telemetry.ObserveTraining(time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	telemetry.ModelGeneration.Set(float64(outcome.Result.Generation))

	path, err := s.persist(outcome)
	if err != nil {
		return nil, err
	}

	if s.runs != nil {
		if err := s.runs.Record(ctx, pipeline.Record(outcome.Result, path)); err != nil {
			// the model is already active and on disk
			s.logger.Error("failed to record run %s: %v", outcome.Result.RunID, err)
		}
	}
	return outcome.Result, nil
}

func (s *TrainingService) persist(outcome *pipeline.TrainingOutcome) (string, error) {
	blob, err := outcome.Model.MarshalBinary()
	if err != nil {
		return "", apperrors.Wrap(err, "failed to serialize model")
	}
	path, err := s.store.SaveModel(blob)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to save model")
	}
	if err := s.store.SaveMetrics(outcome.Result.Evaluation.Metrics); err != nil {
		return "", apperrors.Wrap(err, "failed to save metrics")
	}
	if err := s.store.SaveBundle(outcome.Bundle); err != nil {
		return "", apperrors.Wrap(err, "failed to save serving bundle")
	}
	s.logger.Info("artifacts of run %s written to %s", outcome.Result.RunID, s.store.Dir())
	return path, nil
}

// Restore activates the model persisted in the artifact store
func (s *TrainingService) Restore(ctx context.Context) error {
	blob, err := s.store.LoadModel()
	if err != nil {
		return err
	}
	model, err := s.booster.Load(blob)
	if err != nil {
		return apperrors.Wrap(err, "failed to decode persisted model")
	}
	bundle, err := s.store.LoadBundle()
	if err != nil {
		return err
	}
	if err := s.pipeline.Activate(model, bundle); err != nil {
		return err
	}
	telemetry.ModelGeneration.Set(float64(s.pipeline.Snapshot().Generation))
	return nil
}

// Metrics returns the persisted metrics of the last training run
func (s *TrainingService) Metrics() (scoring.Metrics, error) {
	return s.store.LoadMetrics()
}

// Runs lists the recorded training runs, newest first
func (s *TrainingService) Runs(ctx context.Context, limit int) ([]ports.TrainingRun, error) {
	if s.runs == nil {
		return []ports.TrainingRun{}, nil
	}
	return s.runs.List(ctx, limit)
}
