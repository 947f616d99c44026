package ml

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/f1-predictor/internal/config"
	"github.com/yourusername/f1-predictor/internal/logger"
	"github.com/yourusername/f1-predictor/internal/metrics"
	"github.com/yourusername/f1-predictor/internal/models"
)

// ErrInsufficientData is returned when a dataset is too small to split.
var ErrInsufficientData = errors.New("insufficient training data")

// Dataset is a labelled feature table for one session.
type Dataset struct {
	Rows    []models.FeatureVector
	Targets []float64
	Seasons []int
}

// Trainer fits gradient-boosted regression trees with squared loss.
// Training is deterministic: the same dataset always yields the same model.
type Trainer struct {
	cfg config.TrainingConfig
	log *logger.MLLogger
	now func() time.Time
}

// NewTrainer creates a trainer with the given hyperparameters
func NewTrainer(cfg config.TrainingConfig, log *logger.MLLogger) *Trainer {
	return &Trainer{cfg: cfg, log: log, now: time.Now}
}

// Train fits a model for a session.
func (t *Trainer) Train(session models.SessionType, ds Dataset) (*Model, error) {
	start := t.now()
	features, err := FeatureSet(session)
	if err != nil {
		return nil, err
	}
	if len(ds.Rows) != len(ds.Targets) {
		return nil, fmt.Errorf("%d rows but %d targets", len(ds.Rows), len(ds.Targets))
	}
	minLeaf := max(t.cfg.MinSamplesLeaf, 1)
	if len(ds.Rows) < 2*minLeaf {
		return nil, fmt.Errorf("%w: %d rows for %s", ErrInsufficientData, len(ds.Rows), session)
	}

	x := make([][]float64, len(ds.Rows))
	for i := range ds.Rows {
		x[i] = ds.Rows[i].Values(features)
	}
	y := ds.Targets

	base := stat.Mean(y, nil)
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = base
	}

	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}

	residual := make([]float64, len(y))
	trees := make([]Tree, 0, t.cfg.Estimators)
	for e := 0; e < t.cfg.Estimators; e++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		b := &treeBuilder{x: x, y: residual, maxDepth: t.cfg.MaxDepth, minLeaf: minLeaf, features: len(features)}
		b.build(all, 0)
		tree := Tree{Nodes: b.nodes}
		for i := range pred {
			pred[i] += t.cfg.LearningRate * tree.predict(x[i])
		}
		trees = append(trees, tree)
	}

	rmse := rootMeanSquaredError(y, pred)
	finished := t.now()
	m := &Model{
		Info: models.ModelInfo{
			Session:   session,
			Version:   fmt.Sprintf("%s-%s", session, finished.UTC().Format("20060102T150405")),
			Features:  features,
			Seasons:   append([]int(nil), ds.Seasons...),
			Rows:      len(y),
			Metrics:   map[string]float64{"train_rmse": rmse},
			TrainedAt: finished.UTC(),
		},
		BaseScore:    base,
		LearningRate: t.cfg.LearningRate,
		Trees:        trees,
	}

	duration := finished.Sub(start).Seconds()
	metrics.UpdateTrainingResult(string(session), len(y), rmse, duration)
	if t.log != nil {
		t.log.LogModelTraining(string(session), duration, m.Info.Metrics, map[string]interface{}{
			"estimators":       t.cfg.Estimators,
			"learning_rate":    t.cfg.LearningRate,
			"max_depth":        t.cfg.MaxDepth,
			"min_samples_leaf": minLeaf,
		})
	}
	return m, nil
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	maxDepth int
	minLeaf  int
	features int
	nodes    []Node
}

// build appends the subtree for idx and returns the index of its root.
func (b *treeBuilder) build(idx []int, depth int) int {
	node := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.mean(idx)})
	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf {
		return node
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[node] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return node
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += b.y[i]
	}
	return sum / float64(len(idx))
}

// bestSplit maximises the reduction in squared error. Ties keep the first
// candidate in feature then threshold order.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	total := 0.0
	for _, i := range idx {
		total += b.y[i]
	}
	n := float64(len(idx))
	bestGain := total * total / n
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, len(idx))
	for f := 0; f < b.features; f++ {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})

		leftSum := 0.0
		for k := 1; k < len(sorted); k++ {
			leftSum += b.y[sorted[k-1]]
			if k < b.minLeaf || len(sorted)-k < b.minLeaf {
				continue
			}
			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(len(sorted)-k)
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func rootMeanSquaredError(y, pred []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		d := y[i] - pred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(y)))
}
