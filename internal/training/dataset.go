package training

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/casebridge/formatdetect/internal/detect"
)

// LabelledSample is one training document with its known source format.
type LabelledSample struct {
	Label    string         `yaml:"label" json:"label"`
	Document map[string]any `yaml:"document" json:"document"`
}

// Format resolves the sample's label to a supported format.
// Unrecognized labels resolve to UNKNOWN.
func (s LabelledSample) Format() detect.SupportedFormat {
	label := detect.SupportedFormat(strings.ToUpper(strings.TrimSpace(s.Label)))
	for _, f := range detect.DetectionOrder {
		if f == label {
			return f
		}
	}
	return detect.FormatUnknown
}

// LoadDataset reads labelled samples from a YAML file.
func LoadDataset(path string) ([]LabelledSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}

	var samples []LabelledSample
	if err := yaml.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}

	return samples, nil
}

// observationBins controls the likelihood resolution of the derived
// null-probability curve.
const observationBins = 10

// BuildObservations derives (likelihood, observed null probability)
// pairs from labelled samples. Every sample's likelihood under a format
// OTHER than its label is one draw from the null distribution; the
// draws are bucketed by likelihood and each bucket's observed
// probability is the fraction of null draws reaching at least that
// evidence level, which is non-increasing in L like the model itself.
func BuildObservations(d *detect.Detector, samples []LabelledSample) []Observation {
	var nullDraws []float64
	for _, sample := range samples {
		label := sample.Format()
		likelihoods := d.Likelihoods(sample.Document)

		for _, f := range detect.DetectionOrder {
			if f == label {
				continue
			}
			nullDraws = append(nullDraws, likelihoods[f])
		}
	}

	if len(nullDraws) == 0 {
		return nil
	}
	sort.Float64s(nullDraws)

	obs := make([]Observation, 0, observationBins+1)
	for i := 0; i <= observationBins; i++ {
		l := float64(i) / float64(observationBins)

		// Fraction of null draws with likelihood >= l.
		idx := sort.SearchFloat64s(nullDraws, l)
		observed := float64(len(nullDraws)-idx) / float64(len(nullDraws))

		obs = append(obs, Observation{Likelihood: l, ObservedP: observed})
	}

	return obs
}
