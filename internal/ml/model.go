package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/f1-predictor/internal/models"
)

// Node is one node of a regression tree. Leaves have Feature == -1.
// Rows with value <= Threshold go left.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Value     float64 `json:"value,omitempty"`
}

// Tree is a regression tree stored as a flat node list rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a gradient-boosted tree ensemble over a fixed feature subset.
type Model struct {
	Info         models.ModelInfo `json:"info"`
	BaseScore    float64          `json:"base_score"`
	LearningRate float64          `json:"learning_rate" validate:"gt=0,lte=1"`
	Trees        []Tree           `json:"trees"`
}

var _ Scorer = (*Model)(nil)

// Session returns the session the model was trained for
func (m *Model) Session() models.SessionType {
	return m.Info.Session
}

// Score returns the ensemble output for a row.
func (m *Model) Score(row *models.FeatureVector) float64 {
	x := row.Values(m.Info.Features)
	score := m.BaseScore
	for i := range m.Trees {
		score += m.LearningRate * m.Trees[i].predict(x)
	}
	return score
}

var modelValidator = validator.New()

// Validate checks that the model can be evaluated without panicking.
func (m *Model) Validate() error {
	if err := modelValidator.Struct(m); err != nil {
		return err
	}
	want, err := FeatureSet(m.Info.Session)
	if err != nil {
		return err
	}
	if len(want) != len(m.Info.Features) {
		return fmt.Errorf("%s model uses %d features, want %d", m.Info.Session, len(m.Info.Features), len(want))
	}
	for i, f := range m.Info.Features {
		if f != want[i] {
			return fmt.Errorf("feature %d is %s, want %s", i, f, want[i])
		}
	}
	for ti, t := range m.Trees {
		if err := validateTree(t, len(m.Info.Features)); err != nil {
			return fmt.Errorf("tree %d: %w", ti, err)
		}
	}
	return nil
}

func validateTree(t Tree, features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Feature < 0 {
			continue
		}
		if n.Feature >= features {
			return fmt.Errorf("node %d splits on feature %d of %d", i, n.Feature, features)
		}
		// Children always follow their parent, which also rules out cycles.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// Load reads and validates a model artifact. Every failure wraps
// models.ErrModelUnavailable.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s is corrupt: %v", models.ErrModelUnavailable, path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s is invalid: %v", models.ErrModelUnavailable, path, err)
	}
	return &m, nil
}

// Save writes the model to path, replacing any previous artifact atomically.
func Save(path string, m *Model) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	return os.Rename(tmp, path)
}
