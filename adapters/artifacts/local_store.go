// Package artifacts persists trained models and their serving metadata on the local filesystem.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"fraudscore/domain/scoring"
	apperrors "fraudscore/internal/errors"
	"fraudscore/ports"
)

// File names inside the artifacts directory
const (
	ModelFile   = "fraud_model.bin"
	MetricsFile = "metrics.json"
	BundleFile  = "bundle.json"
)

// LocalStore implements ports.ArtifactStore on a directory
type LocalStore struct {
	basePath string
}

var _ ports.ArtifactStore = (*LocalStore)(nil)

// NewLocalStore creates the directory if needed
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Dir returns the artifacts directory
func (s *LocalStore) Dir() string {
	return s.basePath
}

// SaveModel writes the model blob and returns its path
func (s *LocalStore) SaveModel(blob []byte) (string, error) {
	path := filepath.Join(s.basePath, ModelFile)
	if err := writeFile(path, blob); err != nil {
		return "", err
	}
	return path, nil
}

// LoadModel reads the model blob
func (s *LocalStore) LoadModel() ([]byte, error) {
	return s.read(ModelFile)
}

// SaveMetrics writes the four metrics as a flat name to value mapping
func (s *LocalStore) SaveMetrics(metrics scoring.Metrics) error {
	data, err := json.MarshalIndent(metrics.AsMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}
	return writeFile(filepath.Join(s.basePath, MetricsFile), data)
}

// LoadMetrics reads the metrics written by SaveMetrics
func (s *LocalStore) LoadMetrics() (scoring.Metrics, error) {
	data, err := s.read(MetricsFile)
	if err != nil {
		return scoring.Metrics{}, err
	}
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return scoring.Metrics{}, fmt.Errorf("failed to decode %s: %w", MetricsFile, err)
	}
	return scoring.Metrics{
		ROCAUC:    m["roc_auc"],
		Precision: m["precision"],
		Recall:    m["recall"],
		F1:        m["f1"],
	}, nil
}

// SaveBundle writes the serving bundle
func (s *LocalStore) SaveBundle(bundle *ports.ServingBundle) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return writeFile(filepath.Join(s.basePath, BundleFile), data)
}

// LoadBundle reads the serving bundle
func (s *LocalStore) LoadBundle() (*ports.ServingBundle, error) {
	data, err := s.read(BundleFile)
	if err != nil {
		return nil, err
	}
	var bundle ports.ServingBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", BundleFile, err)
	}
	return &bundle, nil
}

func (s *LocalStore) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if os.IsNotExist(err) {
		return nil, apperrors.NotFound("artifact " + name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// writeFile replaces path through a rename so readers never see a partial file
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
