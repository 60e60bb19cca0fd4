// Package artifacts loads the fitted scaler, projector and regressor from
// JSON or YAML documents.
package artifacts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/wattcast/internal/domain/pipeline"
)

// Default artifact locations.
const (
	DefaultScalerPath    = "models/scaler.json"
	DefaultProjectorPath = "models/pca.json"
	DefaultRegressorPath = "models/regressor.json"
)

// Paths names the three artifact files.
type Paths struct {
	Scaler    string
	Projector string
	Regressor string
}

// DefaultPaths returns the default artifact locations.
func DefaultPaths() Paths {
	return Paths{Scaler: DefaultScalerPath, Projector: DefaultProjectorPath, Regressor: DefaultRegressorPath}
}

func (p Paths) named() [3][2]string {
	return [3][2]string{
		{pipeline.StageScaler, p.Scaler},
		{pipeline.StageProjector, p.Projector},
		{pipeline.StageRegressor, p.Regressor},
	}
}

// Load reads and validates all three artifacts. Every missing file is
// reported in one ErrMissingArtifacts error before anything is decoded.
func Load(ctx context.Context, p Paths) (pipeline.Bundle, error) {
	var missing []string
	for _, n := range p.named() {
		if n[1] == "" {
			missing = append(missing, n[0]+" (no path)")
			continue
		}
		if _, err := os.Stat(n[1]); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, n[1])
				continue
			}
			return pipeline.Bundle{}, fmt.Errorf("stat %s: %w", n[1], err)
		}
	}
	if len(missing) > 0 {
		return pipeline.Bundle{}, fmt.Errorf("%w: %s", ErrMissingArtifacts, strings.Join(missing, ", "))
	}

	if err := ctx.Err(); err != nil {
		return pipeline.Bundle{}, err
	}

	var sd scalerDoc
	if err := decodeFile(p.Scaler, &sd); err != nil {
		return pipeline.Bundle{}, err
	}
	scaler, err := sd.build()
	if err != nil {
		return pipeline.Bundle{}, err
	}

	var pd projectorDoc
	if err := decodeFile(p.Projector, &pd); err != nil {
		return pipeline.Bundle{}, err
	}
	projector, err := pd.build()
	if err != nil {
		return pipeline.Bundle{}, err
	}

	var rd regressorDoc
	if err := decodeFile(p.Regressor, &rd); err != nil {
		return pipeline.Bundle{}, err
	}
	regressor, err := rd.build()
	if err != nil {
		return pipeline.Bundle{}, err
	}

	b := pipeline.Bundle{Scaler: scaler, Projector: projector, Regressor: regressor}
	if err := b.Validate(); err != nil {
		return pipeline.Bundle{}, err
	}
	return b, nil
}

func decodeFile(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(into); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(into); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}
