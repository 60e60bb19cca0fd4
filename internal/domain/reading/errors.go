package reading

// Reason names why a set of readings was rejected.
type Reason string

// Validation reasons.
const (
	ReasonNonNumeric Reason = "non_numeric"
	ReasonOutOfRange Reason = "out_of_range"
)

// ValidationError is a recoverable, user-facing rejection of the raw readings.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Sentinel validation errors. Match them with errors.Is.
var (
	ErrNonNumeric = &ValidationError{Reason: ReasonNonNumeric, Message: "Please enter only numeric values."}
	ErrOutOfRange = &ValidationError{Reason: ReasonOutOfRange, Message: "Global reactive power must be between 0 and 1."}
)
