package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	apperrors "fraudscore/internal/errors"
	"fraudscore/ports"
)

// TestKit bundles in-memory adapters and the synthetic dataset for tests and demo runs
type TestKit struct {
	runs      *InMemoryRunRepository
	artifacts *InMemoryArtifactStore
	config    FraudGeneratorConfig
}

// NewTestKit creates a test kit with the default synthetic dataset
func NewTestKit() *TestKit {
	return NewTestKitWithConfig(DefaultFraudConfig())
}

// NewTestKitWithConfig creates a test kit with a custom generator configuration
func NewTestKitWithConfig(config FraudGeneratorConfig) *TestKit {
	return &TestKit{
		runs:      NewInMemoryRunRepository(),
		artifacts: NewInMemoryArtifactStore(),
		config:    config,
	}
}

// Dataset generates the synthetic transaction table
func (t *TestKit) Dataset() (*dataset.Dataset, error) {
	return NewFraudDataGenerator(t.config).Generate()
}

// RunRepository returns the shared in-memory run registry
func (t *TestKit) RunRepository() *InMemoryRunRepository {
	return t.runs
}

// ArtifactStore returns the shared in-memory artifact store
func (t *TestKit) ArtifactStore() *InMemoryArtifactStore {
	return t.artifacts
}

// InMemoryRunRepository implements ports.RunRepository with in-memory storage
type InMemoryRunRepository struct {
	runs  map[core.RunID]ports.TrainingRun
	order []core.RunID
	mu    sync.RWMutex
}

var _ ports.RunRepository = (*InMemoryRunRepository)(nil)

func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{runs: make(map[core.RunID]ports.TrainingRun)}
}

func (s *InMemoryRunRepository) Record(ctx context.Context, run *ports.TrainingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return apperrors.DatabaseError(fmt.Sprintf("training run %s already recorded", run.ID))
	}
	s.runs[run.ID] = *run
	s.order = append(s.order, run.ID)
	return nil
}

func (s *InMemoryRunRepository) Get(ctx context.Context, id core.RunID) (*ports.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, apperrors.NotFound("training run " + id.String())
	}
	return &run, nil
}

func (s *InMemoryRunRepository) Latest(ctx context.Context) (*ports.TrainingRun, error) {
	runs, _ := s.List(ctx, 1)
	if len(runs) == 0 {
		return nil, apperrors.NotFound("training run")
	}
	return &runs[0], nil
}

// List returns newest first, ties broken by insertion order
func (s *InMemoryRunRepository) List(ctx context.Context, limit int) ([]ports.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.TrainingRun, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InMemoryArtifactStore implements ports.ArtifactStore without touching the filesystem
type InMemoryArtifactStore struct {
	model   []byte
	metrics *scoring.Metrics
	bundle  *ports.ServingBundle
	mu      sync.RWMutex
}

var _ ports.ArtifactStore = (*InMemoryArtifactStore)(nil)

func NewInMemoryArtifactStore() *InMemoryArtifactStore {
	return &InMemoryArtifactStore{}
}

func (s *InMemoryArtifactStore) Dir() string { return "memory://artifacts" }

func (s *InMemoryArtifactStore) SaveModel(blob []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = append([]byte(nil), blob...)
	return s.Dir() + "/model", nil
}

func (s *InMemoryArtifactStore) LoadModel() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, apperrors.NotFound("artifact model")
	}
	return append([]byte(nil), s.model...), nil
}

func (s *InMemoryArtifactStore) SaveMetrics(metrics scoring.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = &metrics
	return nil
}

func (s *InMemoryArtifactStore) LoadMetrics() (scoring.Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.metrics == nil {
		return scoring.Metrics{}, apperrors.NotFound("artifact metrics")
	}
	return *s.metrics, nil
}

func (s *InMemoryArtifactStore) SaveBundle(bundle *ports.ServingBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *bundle
	s.bundle = &copied
	return nil
}

func (s *InMemoryArtifactStore) LoadBundle() (*ports.ServingBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bundle == nil {
		return nil, apperrors.NotFound("artifact bundle")
	}
	copied := *s.bundle
	return &copied, nil
}
