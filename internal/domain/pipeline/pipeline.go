// Package pipeline applies the fitted scaler, projector and regressor to a
// feature vector to estimate global active power.
package pipeline

import (
	"fmt"
	"slices"

	"github.com/okian/wattcast/internal/domain/reading"
)

// Bundle holds the three fitted artifacts.
type Bundle struct {
	Scaler    *StandardScaler
	Projector *PCAProjector
	Regressor Regressor
}

// Validate checks every stage is present and internally consistent.
func (b Bundle) Validate() error {
	if b.Scaler == nil {
		return stageError(StageScaler, ErrMissingStage)
	}
	if b.Projector == nil {
		return stageError(StageProjector, ErrMissingStage)
	}
	if b.Regressor == nil {
		return stageError(StageRegressor, ErrMissingStage)
	}
	if err := b.Scaler.Validate(); err != nil {
		return stageError(StageScaler, err)
	}
	if err := b.Projector.Validate(); err != nil {
		return stageError(StageProjector, err)
	}
	if err := b.Regressor.Validate(); err != nil {
		return stageError(StageRegressor, err)
	}
	return nil
}

// CheckShapes reports whether the stages chain together for a
// FeatureCount-wide input. A mismatch is not fatal: every call fails with a
// PipelineError instead.
func (b Bundle) CheckShapes() error {
	if b.Scaler.Features() != FeatureCount {
		return stageError(StageScaler, shapeError("scaler", b.Scaler.Features(), FeatureCount))
	}
	if b.Projector.Features() != b.Scaler.Features() {
		return stageError(StageProjector, shapeError("projector", b.Projector.Features(), b.Scaler.Features()))
	}
	switch r := b.Regressor.(type) {
	case *Linear:
		if len(r.Coefficients) != b.Projector.Outputs() {
			return stageError(StageRegressor, shapeError("linear model", len(r.Coefficients), b.Projector.Outputs()))
		}
	case *RandomForest:
		if r.Features() > b.Projector.Outputs() {
			return stageError(StageRegressor, shapeError("forest", r.Features(), b.Projector.Outputs()))
		}
	}
	return nil
}

// Pipeline is a pure function of its input and the artifacts it was built
// from. It holds private copies of the artifacts and is safe for concurrent use.
type Pipeline struct {
	scaler    *StandardScaler
	projector *PCAProjector
	regressor Regressor
}

// New validates b and returns a Pipeline over a private copy of it.
func New(b Bundle) (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		scaler:    cloneScaler(b.Scaler),
		projector: cloneProjector(b.Projector),
		regressor: cloneRegressor(b.Regressor),
	}, nil
}

// Infer assembles the feature vector and runs every stage in order.
func (p *Pipeline) Infer(r reading.ReadingSet, voltage float64) (float64, error) {
	return p.InferVector(Assemble(r, voltage))
}

// InferVector runs scaler, projector and regressor on v, in that order.
func (p *Pipeline) InferVector(v FeatureVector) (float64, error) {
	z, err := p.scaler.Transform(v[:])
	if err != nil {
		return 0, stageError(StageScaler, err)
	}
	y, err := p.projector.Transform(z)
	if err != nil {
		return 0, stageError(StageProjector, err)
	}
	out, err := p.regressor.Predict(y)
	if err != nil {
		return 0, stageError(StageRegressor, err)
	}
	return out, nil
}

// Describe summarizes the artifact shapes for startup logs.
func (p *Pipeline) Describe() string {
	return fmt.Sprintf("scaler[%d] -> projector[%d->%d] -> %s",
		p.scaler.Features(), p.projector.Features(), p.projector.Outputs(), p.regressor.Kind())
}

func cloneScaler(s *StandardScaler) *StandardScaler {
	return &StandardScaler{Mean: slices.Clone(s.Mean), Scale: slices.Clone(s.Scale)}
}

func cloneProjector(p *PCAProjector) *PCAProjector {
	rows := make([][]float64, len(p.Components))
	for i, row := range p.Components {
		rows[i] = slices.Clone(row)
	}
	return &PCAProjector{
		Mean:              slices.Clone(p.Mean),
		Components:        rows,
		ExplainedVariance: slices.Clone(p.ExplainedVariance),
		Whiten:            p.Whiten,
	}
}

func cloneRegressor(r Regressor) Regressor {
	switch m := r.(type) {
	case *RandomForest:
		trees := make([]Tree, len(m.Trees))
		for i, t := range m.Trees {
			trees[i] = Tree{Nodes: slices.Clone(t.Nodes)}
		}
		return &RandomForest{Trees: trees}
	case *Linear:
		return &Linear{Coefficients: slices.Clone(m.Coefficients), Intercept: m.Intercept}
	default:
		return r
	}
}
