package models

import "time"

// ModelInfo describes a trained model artifact
type ModelInfo struct {
	Session   SessionType        `json:"session" validate:"required"`
	Version   string             `json:"version" validate:"required"`
	Features  []FeatureName      `json:"features" validate:"required,min=1"`
	Seasons   []int              `json:"seasons"`
	Rows      int                `json:"rows"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	TrainedAt time.Time          `json:"trained_at"`
}

// GetMetric returns a training metric and whether it was recorded.
func (m *ModelInfo) GetMetric(name string) (float64, bool) {
	v, ok := m.Metrics[name]
	return v, ok
}
