package pipeline

import (
	"errors"
	"fmt"
)

// Pipeline stages.
const (
	StageScaler    = "scaler"
	StageProjector = "projector"
	StageRegressor = "regressor"
)

// Sentinel kinds for pipeline failures.
var (
	ErrShapeMismatch   = errors.New("feature count mismatch")
	ErrNonFinite       = errors.New("non-finite value")
	ErrInvalidArtifact = errors.New("invalid artifact")
	ErrMissingStage    = errors.New("missing pipeline stage")
)

// PipelineError reports a numeric or shape failure inside one stage. It is
// distinct from input validation errors.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

func stageError(stage string, err error) error {
	return &PipelineError{Stage: stage, Err: err}
}

func shapeError(what string, want, got int) error {
	return fmt.Errorf("%w: %s expects %d features, got %d", ErrShapeMismatch, what, want, got)
}
