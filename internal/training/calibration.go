package training

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casebridge/formatdetect/internal/detect"
)

// Calibration is the YAML document the offline trainer writes back and
// the detector loads without code changes. Both halves pass through
// their validators before the detector accepts them.
type Calibration struct {
	PENotH detect.PENotHParams `yaml:"penoth"`
	Priors map[string]float64  `yaml:"priors"`
}

// PriorTable converts the serialized priors into a detect.Priors table.
func (c Calibration) PriorTable() detect.Priors {
	if len(c.Priors) == 0 {
		return nil
	}

	priors := make(detect.Priors, len(c.Priors))
	for name, v := range c.Priors {
		priors[detect.SupportedFormat(strings.ToUpper(name))] = v
	}
	return priors
}

// Apply installs the calibration on a detector, gated through the
// validators, and refreshes the compiled patterns. A validation failure
// leaves the detector's previous calibration in place.
func (c Calibration) Apply(d *detect.Detector) error {
	if err := d.SetPENotH(c.PENotH); err != nil {
		return fmt.Errorf("calibration penoth rejected: %w", err)
	}

	if priors := c.PriorTable(); priors != nil {
		if err := d.SetPriors(priors); err != nil {
			return fmt.Errorf("calibration priors rejected: %w", err)
		}
	}

	d.RefreshPatterns()
	return nil
}

// NewCalibration packages learned parameters and priors for writing.
func NewCalibration(params detect.PENotHParams, priors detect.Priors) Calibration {
	c := Calibration{PENotH: params}
	if len(priors) > 0 {
		c.Priors = make(map[string]float64, len(priors))
		for f, v := range priors {
			c.Priors[f.Slug()] = v
		}
	}
	return c
}

// LoadCalibration reads a calibration file.
func LoadCalibration(path string) (*Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration %s: %w", path, err)
	}

	var c Calibration
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse calibration %s: %w", path, err)
	}

	return &c, nil
}

// SaveCalibration writes a calibration file.
func SaveCalibration(path string, c Calibration) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write calibration %s: %w", path, err)
	}

	return nil
}
