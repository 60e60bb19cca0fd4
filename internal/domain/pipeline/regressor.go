package pipeline

import (
	"fmt"
	"math"
)

// Regressor kinds understood by the artifact loader.
const (
	KindRandomForest = "random_forest"
	KindLinear       = "linear"
)

// Regressor maps a reduced vector to a scalar estimate.
type Regressor interface {
	Kind() string
	Validate() error
	Predict(x []float64) (float64, error)
}

// leafChild marks the absence of a child node.
const leafChild = -1

// Node is one split or leaf of a fitted decision tree. A node whose
// children are both -1 is a leaf returning Value; otherwise the walk goes
// Left when float32(x[Feature]) <= Threshold and Right otherwise.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

func (n Node) leaf() bool { return n.Left == leafChild && n.Right == leafChild }

// Tree is a fitted decision tree rooted at node 0.
type Tree struct {
	Nodes []Node
}

func (t Tree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidArtifact)
	}
	for i, n := range t.Nodes {
		if n.leaf() {
			if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
				return fmt.Errorf("%w: leaf %d has a non-finite value", ErrInvalidArtifact, i)
			}
			continue
		}
		// Children always follow their parent, so every walk terminates.
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has children (%d, %d) out of order", ErrInvalidArtifact, i, n.Left, n.Right)
		}
		if n.Feature < 0 {
			return fmt.Errorf("%w: node %d splits on feature %d", ErrInvalidArtifact, i, n.Feature)
		}
		if math.IsNaN(n.Threshold) {
			return fmt.Errorf("%w: node %d has a NaN threshold", ErrInvalidArtifact, i)
		}
	}
	return nil
}

func (t Tree) maxFeature() int {
	maxF := -1
	for _, n := range t.Nodes {
		if !n.leaf() && n.Feature > maxF {
			maxF = n.Feature
		}
	}
	return maxF
}

func (t Tree) predict(x []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("%w: node index %d", ErrInvalidArtifact, i)
		}
		n := t.Nodes[i]
		if n.leaf() {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, shapeError("tree split", n.Feature+1, len(x))
		}
		// Fitted trees see their inputs as float32.
		if float64(float32(x[n.Feature])) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, fmt.Errorf("%w: tree walk did not reach a leaf", ErrInvalidArtifact)
}

// RandomForest averages the predictions of its trees.
type RandomForest struct {
	Trees []Tree
}

// Kind implements Regressor.
func (f *RandomForest) Kind() string { return KindRandomForest }

// Validate implements Regressor.
func (f *RandomForest) Validate() error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	for i, t := range f.Trees {
		if err := t.validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// Features returns the smallest input width every split can address.
func (f *RandomForest) Features() int {
	maxF := -1
	for _, t := range f.Trees {
		if m := t.maxFeature(); m > maxF {
			maxF = m
		}
	}
	return maxF + 1
}

// Predict implements Regressor.
func (f *RandomForest) Predict(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("%w: forest has no trees", ErrInvalidArtifact)
	}
	if need := f.Features(); len(x) < need {
		return 0, shapeError("forest", need, len(x))
	}
	var sum float64
	for i, t := range f.Trees {
		v, err := t.predict(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	out := sum / float64(len(f.Trees))
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, ErrNonFinite
	}
	return out, nil
}

// Linear is an ordinary least squares model: y = coefficients . x + intercept.
type Linear struct {
	Coefficients []float64
	Intercept    float64
}

// Kind implements Regressor.
func (l *Linear) Kind() string { return KindLinear }

// Validate implements Regressor.
func (l *Linear) Validate() error {
	if len(l.Coefficients) == 0 {
		return fmt.Errorf("%w: linear model has no coefficients", ErrInvalidArtifact)
	}
	if err := allFinite(append([]float64{l.Intercept}, l.Coefficients...)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	return nil
}

// Predict implements Regressor.
func (l *Linear) Predict(x []float64) (float64, error) {
	if len(x) != len(l.Coefficients) {
		return 0, shapeError("linear model", len(l.Coefficients), len(x))
	}
	out := l.Intercept
	for i, c := range l.Coefficients {
		out += c * x[i]
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, ErrNonFinite
	}
	return out, nil
}
