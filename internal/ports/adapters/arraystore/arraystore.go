// Package arraystore implements the SensorStore port over a JSON document
// that maps hierarchical dataset paths to numeric arrays. The production
// recordings live in HDF5; this adapter consumes the flat array export of
// those files, which carries the same paths and the same data.
package arraystore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/emedialab/sioviz/internal/types"
)

type Store struct {
	path     string
	datasets map[string]json.RawMessage
}

// Open reads and indexes the whole document. Arrays are decoded lazily per
// dataset on first access by the typed getters.
func Open(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open array store: %w", err)
	}
	var datasets map[string]json.RawMessage
	if err := json.Unmarshal(b, &datasets); err != nil {
		return nil, fmt.Errorf("parse array store %s: %w", path, err)
	}
	return &Store{path: path, datasets: datasets}, nil
}

func (s *Store) Floats(path string) ([]float64, error) {
	raw, ok := s.datasets[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", types.ErrMissingData, path, s.path)
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return out, nil
}

func (s *Store) Ints(path string) ([]int64, error) {
	raw, ok := s.datasets[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", types.ErrMissingData, path, s.path)
	}
	var out []int64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return out, nil
}

func (s *Store) Matrix(path string) ([][]float64, error) {
	raw, ok := s.datasets[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", types.ErrMissingData, path, s.path)
	}
	var out [][]float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	for i := 1; i < len(out); i++ {
		if len(out[i]) != len(out[0]) {
			return nil, fmt.Errorf("dataset %s: ragged rows (%d vs %d)", path, len(out[i]), len(out[0]))
		}
	}
	return out, nil
}
