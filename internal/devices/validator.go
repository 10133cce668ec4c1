package devices

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/device-profile-v1.json
var profileSchemaJSON string

const profileSchemaURL = "device-profile-v1.json"

// Validator checks profiles in two passes: the embedded JSON schema for shape,
// then the cross-field rules a schema cannot express.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	if err := compiler.AddResource(profileSchemaURL, strings.NewReader(profileSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add profile schema: %w", err)
	}

	schema, err := compiler.Compile(profileSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile profile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateDocument runs the schema over a decoded JSON or YAML document.
func (v *Validator) ValidateDocument(doc any) error {
	// yaml.v3 yields int and map[string]any; the schema package wants the
	// encoding/json shapes, so round-trip once.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("invalid document: %w", err)
	}

	if err := v.schema.Validate(normalized); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateProfileDefinition checks an already typed profile against both passes.
func (v *Validator) ValidateProfileDefinition(profile *types.DeviceProfileDefinition) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if err := v.ValidateDocument(doc); err != nil {
		return err
	}

	return CheckProfile(profile)
}

// CheckProfile applies the cross-field rules. All violations are reported at once.
func CheckProfile(profile *types.DeviceProfileDefinition) error {
	var errs []error

	lengths := profile.Detector.SpectrumLengths
	for i, l := range lengths {
		if l <= 0 {
			errs = append(errs, fmt.Errorf("detector.spectrum_lengths[%d]: must be positive, got %d", i, l))
		}
		if slices.Index(lengths, l) != i {
			errs = append(errs, fmt.Errorf("detector.spectrum_lengths[%d]: duplicate length %d", i, l))
		}
	}

	if w := profile.Waveform; w != nil {
		for i, p := range w.Peaks {
			if p.Center < 0 || (profile.Detector.PixelCount > 0 && p.Center >= float64(profile.Detector.PixelCount)) {
				errs = append(errs, fmt.Errorf("waveform.peaks[%d]: center %g outside the detector", i, p.Center))
			}
		}
		if w.Prefix != nil && profile.Detector.PixelCount > 0 && *w.Prefix >= profile.Detector.PixelCount {
			errs = append(errs, fmt.Errorf("waveform.prefix: %d leaves no room in %d pixels",
				*w.Prefix, profile.Detector.PixelCount))
		}
	}

	return errors.Join(errs...)
}
