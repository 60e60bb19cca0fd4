package artifacts

import "errors"

// Sentinel kinds for artifact loading errors.
var (
	ErrMissingArtifacts  = errors.New("missing model artifacts")
	ErrUnsupportedFormat = errors.New("unsupported artifact format")
	ErrUnknownKind       = errors.New("unknown artifact kind")
)
