// Package ml implements the unsupervised anomaly model and its lifecycle.
package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Verdict is the per-vector classification produced by the model.
type Verdict int

const (
	VerdictNormal Verdict = iota
	VerdictAnomalous
)

func (v Verdict) String() string {
	if v == VerdictAnomalous {
		return "anomalous"
	}
	return "normal"
}

var (
	// ErrNotTrained is returned when Predict is called before Fit.
	ErrNotTrained = errors.New("ml: model not trained")
	// ErrEmptyTrainingSet is returned when Fit receives no vectors.
	ErrEmptyTrainingSet = errors.New("ml: empty training set")
	// ErrDimensionMismatch is returned when a vector's width does not match
	// the trained dimensionality.
	ErrDimensionMismatch = errors.New("ml: feature dimension mismatch")
)

// IsolationForest scores feature vectors by isolation path length across an
// ensemble of randomized binary-partition trees. The decision threshold is
// fitted from the training distribution at the (1-contamination) quantile.
//
// A trained forest is never mutated: Fit is called exactly once by the
// lifecycle manager before the model is published, so Predict needs no
// locking.
type IsolationForest struct {
	nTrees        int
	sampleSize    int
	contamination float64
	maxDepth      int
	rng           *rand.Rand

	trees     []*iTree
	threshold float64
	norm      float64 // average path length normalizer c(sampleSize)
	dim       int
	trained   bool
}

type iTree struct {
	root *treeNode
}

type treeNode struct {
	splitFeature int
	splitValue   float64
	left         *treeNode
	right        *treeNode
	size         int
}

// Option configures an IsolationForest.
type Option func(*IsolationForest)

// WithTrees sets the ensemble size.
func WithTrees(n int) Option {
	return func(f *IsolationForest) { f.nTrees = n }
}

// WithSampleSize sets the per-tree subsample size.
func WithSampleSize(n int) Option {
	return func(f *IsolationForest) { f.sampleSize = n }
}

// WithContamination sets the expected outlier fraction used to fit the
// decision threshold.
func WithContamination(c float64) Option {
	return func(f *IsolationForest) { f.contamination = c }
}

// WithSeed seeds the forest's random source so repeated training on the same
// data yields the same ensemble structure.
func WithSeed(seed int64) Option {
	return func(f *IsolationForest) { f.rng = rand.New(rand.NewSource(seed)) }
}

// NewIsolationForest creates an untrained forest. Defaults match the
// production model: 100 trees, 256-sample subsampling, 10% contamination,
// seed 42.
func NewIsolationForest(opts ...Option) *IsolationForest {
	f := &IsolationForest{
		nTrees:        100,
		sampleSize:    256,
		contamination: 0.10,
		rng:           rand.New(rand.NewSource(42)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit builds the ensemble from the given training vectors and fits the
// anomaly threshold. It fails only on malformed input: an empty set or
// vectors of inconsistent width.
func (f *IsolationForest) Fit(data [][]float64) error {
	if len(data) == 0 {
		return ErrEmptyTrainingSet
	}
	dim := len(data[0])
	if dim == 0 {
		return fmt.Errorf("%w: zero-width vector at index 0", ErrDimensionMismatch)
	}
	for i, row := range data {
		if len(row) != dim {
			return fmt.Errorf("%w: vector %d has %d features, want %d", ErrDimensionMismatch, i, len(row), dim)
		}
	}

	sampleSize := f.sampleSize
	if sampleSize > len(data) {
		sampleSize = len(data)
	}
	f.maxDepth = int(math.Ceil(math.Log2(float64(sampleSize))))
	if f.maxDepth < 1 {
		f.maxDepth = 1
	}

	f.trees = make([]*iTree, f.nTrees)
	for i := 0; i < f.nTrees; i++ {
		indices := f.rng.Perm(len(data))[:sampleSize]
		sample := make([][]float64, sampleSize)
		for j, idx := range indices {
			sample[j] = data[idx]
		}
		f.trees[i] = &iTree{root: f.buildNode(sample, dim, 0)}
	}

	f.norm = averagePathLength(float64(sampleSize))
	f.dim = dim
	f.trained = true

	// Threshold at the (1-contamination) quantile of training scores: about
	// contamination of the training distribution lands on the anomalous side.
	scores := make([]float64, len(data))
	for i, row := range data {
		scores[i] = f.score(row)
	}
	f.threshold = quantile(scores, 1-f.contamination)

	return nil
}

func (f *IsolationForest) buildNode(data [][]float64, dim, depth int) *treeNode {
	n := len(data)
	if depth >= f.maxDepth || n <= 1 {
		return &treeNode{size: n}
	}

	feature := f.rng.Intn(dim)
	minVal, maxVal := data[0][feature], data[0][feature]
	for _, row := range data[1:] {
		if row[feature] < minVal {
			minVal = row[feature]
		}
		if row[feature] > maxVal {
			maxVal = row[feature]
		}
	}
	if minVal == maxVal {
		return &treeNode{size: n}
	}

	splitValue := minVal + f.rng.Float64()*(maxVal-minVal)

	var left, right [][]float64
	for _, row := range data {
		if row[feature] < splitValue {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	return &treeNode{
		splitFeature: feature,
		splitValue:   splitValue,
		left:         f.buildNode(left, dim, depth+1),
		right:        f.buildNode(right, dim, depth+1),
	}
}

// Predict classifies each vector against the fitted threshold, one verdict
// per input in order. The model must be trained and every vector must match
// the trained dimensionality; violations are precondition failures.
func (f *IsolationForest) Predict(data [][]float64) ([]Verdict, error) {
	if !f.trained {
		return nil, ErrNotTrained
	}
	for i, row := range data {
		if len(row) != f.dim {
			return nil, fmt.Errorf("%w: vector %d has %d features, want %d", ErrDimensionMismatch, i, len(row), f.dim)
		}
	}

	verdicts := make([]Verdict, len(data))
	for i, row := range data {
		if f.score(row) >= f.threshold {
			verdicts[i] = VerdictAnomalous
		}
	}
	return verdicts, nil
}

// Score returns the raw anomaly score for a single vector. Higher means more
// anomalous; the range is (0, 1].
func (f *IsolationForest) Score(sample []float64) (float64, error) {
	if !f.trained {
		return 0, ErrNotTrained
	}
	if len(sample) != f.dim {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(sample), f.dim)
	}
	return f.score(sample), nil
}

func (f *IsolationForest) score(sample []float64) float64 {
	var total float64
	for _, tree := range f.trees {
		total += pathLength(sample, tree.root, 0)
	}
	avgPath := total / float64(len(f.trees))
	if f.norm == 0 {
		// degenerate single-sample training set: every point isolates at the root
		return 1
	}
	return math.Pow(2, -avgPath/f.norm)
}

// Dim returns the trained input dimensionality, or zero before training.
func (f *IsolationForest) Dim() int {
	return f.dim
}

// Threshold returns the fitted decision boundary.
func (f *IsolationForest) Threshold() float64 {
	return f.threshold
}

func pathLength(sample []float64, n *treeNode, depth int) float64 {
	if n.left == nil && n.right == nil {
		return float64(depth) + averagePathLength(float64(n.size))
	}
	if sample[n.splitFeature] < n.splitValue {
		return pathLength(sample, n.left, depth+1)
	}
	return pathLength(sample, n.right, depth+1)
}

// averagePathLength is c(n), the expected path length of an unsuccessful BST
// search: 2*H(n-1) - 2*(n-1)/n with H approximated via the Euler-Mascheroni
// constant.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}

func quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)-1) * q)
	return sorted[idx]
}
