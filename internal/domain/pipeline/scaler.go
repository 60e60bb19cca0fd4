package pipeline

import (
	"fmt"
	"math"
)

// StandardScaler standardizes each feature with fitted mean and scale:
// z = (x - mean) / scale.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Features returns the input width the scaler was fitted on.
func (s *StandardScaler) Features() int { return len(s.Mean) }

// Validate checks the fitted parameters are internally consistent.
func (s *StandardScaler) Validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("%w: scaler has no features", ErrInvalidArtifact)
	}
	if len(s.Scale) != len(s.Mean) {
		return fmt.Errorf("%w: scaler mean has %d entries, scale has %d", ErrInvalidArtifact, len(s.Mean), len(s.Scale))
	}
	if err := allFinite(s.Mean); err != nil {
		return fmt.Errorf("%w: scaler mean: %w", ErrInvalidArtifact, err)
	}
	if err := allFinite(s.Scale); err != nil {
		return fmt.Errorf("%w: scaler scale: %w", ErrInvalidArtifact, err)
	}
	return nil
}

// Transform returns the standardized copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) || len(s.Scale) != len(s.Mean) {
		return nil, shapeError("scaler", len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		scale := s.Scale[i]
		// A zero scale marks a constant training feature.
		if scale == 0 {
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, allFinite(out)
}

func allFinite(xs []float64) error {
	for i, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}
	return nil
}
