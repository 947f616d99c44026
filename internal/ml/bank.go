package ml

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/models"
)

// Bank loads session models from a directory on first use.
type Bank struct {
	dir string
	log *logger.MLLogger

	mu      sync.Mutex
	scorers map[models.SessionType]Scorer
}

// NewBank creates a bank reading <dir>/<session>_model.json
func NewBank(dir string, log *logger.MLLogger) *Bank {
	return &Bank{
		dir:     dir,
		log:     log,
		scorers: make(map[models.SessionType]Scorer),
	}
}

// Dir returns the models directory
func (b *Bank) Dir() string {
	return b.dir
}

// Path returns the artifact path of a session's model
func (b *Bank) Path(session models.SessionType) string {
	return filepath.Join(b.dir, FileName(session))
}

// Get returns the scorer of a session, loading it if needed.
// A missing or corrupt artifact returns an error wrapping models.ErrModelUnavailable.
func (b *Bank) Get(session models.SessionType) (Scorer, error) {
	if _, err := FeatureSet(session); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.scorers[session]; ok {
		return s, nil
	}

	path := b.Path(session)
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	if m.Session() != session {
		return nil, fmt.Errorf("%w: %s holds a %s model", models.ErrModelUnavailable, path, m.Session())
	}
	if b.log != nil {
		b.log.LogModelLoaded(string(session), path, m.Info.Version, len(m.Trees))
	}
	b.scorers[session] = m
	return m, nil
}

// Info returns the metadata of every model artifact present in the directory.
func (b *Bank) Info() []models.ModelInfo {
	var out []models.ModelInfo
	for _, session := range Sessions {
		m, err := Load(b.Path(session))
		if err != nil || m.Session() != session {
			continue
		}
		out = append(out, m.Info)
	}
	return out
}
