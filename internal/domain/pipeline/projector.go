package pipeline

import (
	"fmt"
	"math"
)

// PCAProjector projects a standardized vector onto fitted principal
// components: y_j = sum_i (z_i - mean_i) * components[j][i], optionally
// whitened by sqrt(explained_variance_j).
type PCAProjector struct {
	Mean              []float64
	Components        [][]float64
	ExplainedVariance []float64
	Whiten            bool
}

// Features returns the input width the projector was fitted on.
func (p *PCAProjector) Features() int { return len(p.Mean) }

// Outputs returns the number of components, i.e. the output width.
func (p *PCAProjector) Outputs() int { return len(p.Components) }

// Validate checks the fitted parameters are internally consistent.
func (p *PCAProjector) Validate() error {
	if len(p.Components) == 0 {
		return fmt.Errorf("%w: projector has no components", ErrInvalidArtifact)
	}
	if len(p.Mean) == 0 {
		return fmt.Errorf("%w: projector has no mean", ErrInvalidArtifact)
	}
	for j, row := range p.Components {
		if len(row) != len(p.Mean) {
			return fmt.Errorf("%w: component %d has %d entries, mean has %d", ErrInvalidArtifact, j, len(row), len(p.Mean))
		}
		if err := allFinite(row); err != nil {
			return fmt.Errorf("%w: component %d: %w", ErrInvalidArtifact, j, err)
		}
	}
	if p.Whiten {
		if len(p.ExplainedVariance) != len(p.Components) {
			return fmt.Errorf("%w: whitening needs %d explained variances, got %d", ErrInvalidArtifact, len(p.Components), len(p.ExplainedVariance))
		}
		for j, ev := range p.ExplainedVariance {
			if !(ev > 0) || math.IsInf(ev, 0) {
				return fmt.Errorf("%w: explained variance %d must be positive", ErrInvalidArtifact, j)
			}
		}
	}
	return allFinite(p.Mean)
}

// Transform returns the reduced-dimension projection of z.
func (p *PCAProjector) Transform(z []float64) ([]float64, error) {
	if len(z) != len(p.Mean) {
		return nil, shapeError("projector", len(p.Mean), len(z))
	}
	out := make([]float64, len(p.Components))
	for j, row := range p.Components {
		if len(row) != len(z) {
			return nil, shapeError(fmt.Sprintf("projector component %d", j), len(row), len(z))
		}
		var acc float64
		for i, w := range row {
			acc += (z[i] - p.Mean[i]) * w
		}
		if p.Whiten {
			if j >= len(p.ExplainedVariance) {
				return nil, shapeError("projector whitening", len(p.Components), len(p.ExplainedVariance))
			}
			acc /= math.Sqrt(p.ExplainedVariance[j])
		}
		out[j] = acc
	}
	return out, allFinite(out)
}
