// Package reading turns raw form fields into a validated set of electrical readings.
package reading

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Form field names.
const (
	FieldGlobalReactivePower = "grp"
	FieldGlobalIntensity     = "gi"
	FieldSubMetering1        = "sm1"
	FieldSubMetering2        = "sm2"
	FieldSubMetering3        = "sm3"
)

// Closed interval accepted for global reactive power.
const (
	MinReactivePower = 0.0
	MaxReactivePower = 1.0
)

// Fields lists the form fields in the order they are parsed.
var Fields = []string{
	FieldGlobalReactivePower,
	FieldGlobalIntensity,
	FieldSubMetering1,
	FieldSubMetering2,
	FieldSubMetering3,
}

// ReadingSet is the five user-supplied readings after validation.
type ReadingSet struct {
	GlobalReactivePower float64 `json:"grp"`
	GlobalIntensity     float64 `json:"gi"`
	SubMetering1        float64 `json:"sm1"`
	SubMetering2        float64 `json:"sm2"`
	SubMetering3        float64 `json:"sm3"`
}

// Validate parses the five fields and enforces the domain constraints.
// A parse failure on any field yields ErrNonNumeric for the whole batch;
// a reactive power outside [0, 1] yields ErrOutOfRange. No partial
// ReadingSet is returned with an error.
func Validate(fields map[string]string) (ReadingSet, error) {
	var vals [5]float64
	for i, name := range Fields {
		raw, ok := fields[name]
		if !ok {
			return ReadingSet{}, ErrNonNumeric
		}
		v, err := ParseDecimal(raw)
		if err != nil {
			return ReadingSet{}, ErrNonNumeric
		}
		vals[i] = v
	}

	if vals[0] < MinReactivePower || vals[0] > MaxReactivePower {
		return ReadingSet{}, ErrOutOfRange
	}

	return ReadingSet{
		GlobalReactivePower: vals[0],
		GlobalIntensity:     vals[1],
		SubMetering1:        vals[2],
		SubMetering2:        vals[3],
		SubMetering3:        vals[4],
	}, nil
}

// ParseDecimal parses a finite decimal number, trimming surrounding
// whitespace and accepting ',' as well as '.' as the decimal separator.
func ParseDecimal(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrNonNumeric)
	}
	// strconv also understands hexadecimal floats; readings are decimal only.
	if strings.ContainsAny(s, "xX") {
		return 0, fmt.Errorf("%w: %q", ErrNonNumeric, s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumeric, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrNonNumeric, s)
	}
	return v, nil
}

// ReasonOf extracts the validation reason from err. The second result is
// false when err is not a validation error.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
