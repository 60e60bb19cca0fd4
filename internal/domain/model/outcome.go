package model

import (
	"github.com/okian/wattcast/internal/domain/advice"
	"github.com/okian/wattcast/internal/domain/reading"
)

// OutcomeKind labels an Outcome for logs and metrics.
type OutcomeKind string

// Outcome kinds.
const (
	KindSuccess           OutcomeKind = "success"
	KindValidationFailure OutcomeKind = "validation_failure"
	KindPipelineFailure   OutcomeKind = "pipeline_failure"
)

// Outcome is the result of a prediction request. It is exactly one of
// Success, ValidationFailure or PipelineFailure.
type Outcome interface {
	Kind() OutcomeKind
	outcome()
}

// Success carries the prediction.
type Success struct {
	Result PredictionResult
}

// ValidationFailure reports rejected input. Nothing was recorded.
type ValidationFailure struct {
	Reason  reading.Reason
	Message string
}

// PipelineFailure reports an inference failure on valid input. The
// recommendation is still selected because it depends only on the readings.
type PipelineFailure struct {
	Detail         string
	TopSubmeter    advice.Submeter
	Recommendation string
}

func (Success) Kind() OutcomeKind           { return KindSuccess }
func (ValidationFailure) Kind() OutcomeKind { return KindValidationFailure }
func (PipelineFailure) Kind() OutcomeKind   { return KindPipelineFailure }

func (Success) outcome()           {}
func (ValidationFailure) outcome() {}
func (PipelineFailure) outcome()   {}
