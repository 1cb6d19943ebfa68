package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebridge/formatdetect/internal/detect"
)

const datasetYAML = `
- label: zephyr
  document:
    testCase:
      name: Login works
      testScript:
        steps: []
    execution:
      status: PASS
    cycle:
      name: Regression
    projectKey: QA
- label: generic
  document:
    tests:
      - name: Test Case
        status: pass
    project: Demo
- label: somebody-elses-format
  document:
    payload: true
`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(datasetYAML), 0644))
	return path
}

func TestLoadDataset(t *testing.T) {
	samples, err := LoadDataset(writeDataset(t))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, detect.FormatZephyr, samples[0].Format())
	assert.Equal(t, detect.FormatGeneric, samples[1].Format())
	assert.Equal(t, detect.FormatUnknown, samples[2].Format())

	assert.Contains(t, samples[0].Document, "testCase")
	assert.Contains(t, samples[1].Document, "tests")
}

func TestLoadDatasetErrors(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0644))
	_, err = LoadDataset(path)
	assert.Error(t, err)
}

func TestLabelResolution(t *testing.T) {
	tests := []struct {
		label string
		want  detect.SupportedFormat
	}{
		{"zephyr", detect.FormatZephyr},
		{"ZEPHYR", detect.FormatZephyr},
		{"  jira_xray  ", detect.FormatJiraXray},
		{"testlink", detect.FormatTestLink},
		{"testrail", detect.FormatTestRail},
		{"generic", detect.FormatGeneric},
		{"", detect.FormatUnknown},
		{"cucumber", detect.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run("Label "+tt.label, func(t *testing.T) {
			s := LabelledSample{Label: tt.label}
			assert.Equal(t, tt.want, s.Format())
		})
	}
}

func TestBuildObservations(t *testing.T) {
	samples, err := LoadDataset(writeDataset(t))
	require.NoError(t, err)

	obs := BuildObservations(detect.NewDetector(), samples)
	require.Len(t, obs, observationBins+1)

	assert.Equal(t, Observation{Likelihood: 0, ObservedP: 1}, obs[0],
		"every null draw reaches at least zero evidence")

	for i := 1; i < len(obs); i++ {
		assert.Greater(t, obs[i].Likelihood, obs[i-1].Likelihood)
		assert.LessOrEqual(t, obs[i].ObservedP, obs[i-1].ObservedP,
			"observed null probability is non-increasing in likelihood")
	}
	for _, o := range obs {
		assert.GreaterOrEqual(t, o.ObservedP, 0.0)
		assert.LessOrEqual(t, o.ObservedP, 1.0)
	}
}

func TestBuildObservationsEmpty(t *testing.T) {
	assert.Nil(t, BuildObservations(detect.NewDetector(), nil))
}

func TestFitPriors(t *testing.T) {
	samples := []LabelledSample{
		{Label: "zephyr"}, {Label: "zephyr"}, {Label: "jira_xray"},
		{Label: "not-a-format"},
	}

	priors := FitPriors(samples)
	require.NoError(t, priors.Validate())

	// 3 recognized samples, 5 candidate formats: (count+1)/(3+5).
	assert.InDelta(t, 3.0/8.0, priors[detect.FormatZephyr], 1e-12)
	assert.InDelta(t, 2.0/8.0, priors[detect.FormatJiraXray], 1e-12)
	assert.InDelta(t, 1.0/8.0, priors[detect.FormatTestRail], 1e-12)
}

func TestFitPriorsNoSamples(t *testing.T) {
	priors := FitPriors(nil)
	require.NoError(t, priors.Validate())

	for _, f := range detect.DetectionOrder {
		assert.InDelta(t, 0.2, priors[f], 1e-12, "no data falls back to uniform mass")
	}
}
