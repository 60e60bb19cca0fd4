package artifacts

import (
	"fmt"

	"github.com/okian/wattcast/internal/domain/pipeline"
)

const (
	kindStandard = "standard"
	kindPCA      = "pca"
)

type scalerDoc struct {
	Kind  string    `json:"kind" yaml:"kind"`
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

func (d scalerDoc) build() (*pipeline.StandardScaler, error) {
	if d.Kind != "" && d.Kind != kindStandard {
		return nil, fmt.Errorf("%w: scaler %q", ErrUnknownKind, d.Kind)
	}
	return &pipeline.StandardScaler{Mean: d.Mean, Scale: d.Scale}, nil
}

type projectorDoc struct {
	Kind              string      `json:"kind" yaml:"kind"`
	Mean              []float64   `json:"mean" yaml:"mean"`
	Components        [][]float64 `json:"components" yaml:"components"`
	ExplainedVariance []float64   `json:"explained_variance" yaml:"explained_variance"`
	Whiten            bool        `json:"whiten" yaml:"whiten"`
}

func (d projectorDoc) build() (*pipeline.PCAProjector, error) {
	if d.Kind != "" && d.Kind != kindPCA {
		return nil, fmt.Errorf("%w: projector %q", ErrUnknownKind, d.Kind)
	}
	return &pipeline.PCAProjector{
		Mean:              d.Mean,
		Components:        d.Components,
		ExplainedVariance: d.ExplainedVariance,
		Whiten:            d.Whiten,
	}, nil
}

type nodeDoc struct {
	Feature   int     `json:"feature" yaml:"feature"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
	Left      int     `json:"left" yaml:"left"`
	Right     int     `json:"right" yaml:"right"`
	Value     float64 `json:"value" yaml:"value"`
}

type treeDoc struct {
	Nodes []nodeDoc `json:"nodes" yaml:"nodes"`
}

type regressorDoc struct {
	Kind         string    `json:"kind" yaml:"kind"`
	Trees        []treeDoc `json:"trees" yaml:"trees"`
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
}

func (d regressorDoc) build() (pipeline.Regressor, error) {
	switch d.Kind {
	case pipeline.KindRandomForest:
		trees := make([]pipeline.Tree, len(d.Trees))
		for i, t := range d.Trees {
			nodes := make([]pipeline.Node, len(t.Nodes))
			for j, n := range t.Nodes {
				nodes[j] = pipeline.Node(n)
			}
			trees[i] = pipeline.Tree{Nodes: nodes}
		}
		return &pipeline.RandomForest{Trees: trees}, nil
	case pipeline.KindLinear:
		return &pipeline.Linear{Coefficients: d.Coefficients, Intercept: d.Intercept}, nil
	default:
		return nil, fmt.Errorf("%w: regressor %q", ErrUnknownKind, d.Kind)
	}
}
