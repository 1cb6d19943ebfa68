package detect

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zephyrDocument() map[string]any {
	return map[string]any{
		"testCase": map[string]any{
			"name": "Login succeeds with valid credentials",
			"testScript": map[string]any{
				"steps": []any{
					map[string]any{"description": "Open login page", "expectedResult": "Form shown"},
				},
			},
		},
		"execution":  map[string]any{"status": "PASS"},
		"cycle":      map[string]any{"name": "Sprint 12 regression"},
		"projectKey": "QA",
	}
}

func xrayDocument() map[string]any {
	return map[string]any{
		"testExecutions": []any{
			map[string]any{"key": "PROJ-EX-1"},
		},
		"tests": []any{
			map[string]any{"testKey": "PROJ-101", "status": "PASSED"},
		},
	}
}

func ambiguousDocument() map[string]any {
	return map[string]any{
		"tests": []any{
			map[string]any{"name": "Test Case", "status": "pass"},
		},
		"project": "Test Project",
	}
}

func TestDetectFormatZephyr(t *testing.T) {
	d := NewDetector()
	result := d.DetectFormat(zephyrDocument())

	assert.Equal(t, FormatZephyr, result.Format)

	winner := result.Confidences[FormatZephyr]
	for f, c := range result.Confidences {
		if f == FormatZephyr {
			continue
		}
		assert.GreaterOrEqual(t, winner, 1.3*c,
			"winner must dominate %s (winner=%g rival=%g)", f, winner, c)
	}

	ls := d.Likelihoods(zephyrDocument())
	for _, f := range DetectionOrder {
		if f == FormatZephyr {
			continue
		}
		assert.LessOrEqual(t, ls[f], 0.7*ls[FormatZephyr],
			"rival %s raw likelihood must stay well below the winner (rival=%g winner=%g)",
			f, ls[f], ls[FormatZephyr])
	}

	assert.Contains(t, result.Evidence.UniquePatterns, "testCase")
	assert.Contains(t, result.Evidence.UniquePatterns, "execution")
	assert.Contains(t, result.Evidence.FormatIndicators, "projectKey")
}

func TestDetectFormatXray(t *testing.T) {
	d := NewDetector()
	result := d.DetectFormat(xrayDocument())

	assert.Equal(t, FormatJiraXray, result.Format)
	assert.Greater(t, result.Confidences[FormatJiraXray], result.Confidences[FormatGeneric])
}

func TestDetectFormatAmbiguousDegradesToGeneric(t *testing.T) {
	d := NewDetector()
	result := d.DetectFormat(ambiguousDocument())

	assert.Equal(t, FormatGeneric, result.Format,
		"close likelihoods between generic and a specific format are not trusted")

	// The top two candidates sit within the 1.5x ambiguity ratio, which
	// is what forces the degradation.
	ls := d.Likelihoods(ambiguousDocument())
	best, second := ls[FormatGeneric], ls[FormatJiraXray]
	for _, f := range DetectionOrder {
		assert.LessOrEqual(t, ls[f], best, "%s must not out-score the generic rules", f)
	}
	assert.Greater(t, second, 0.0)
	assert.LessOrEqual(t, best/second, 1.5)
}

func TestDetectFormatInvalidInput(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		doc  any
	}{
		{"Nil document", nil},
		{"Scalar", 42},
		{"String", "not an object"},
		{"List root", []any{map[string]any{"tests": []any{}}}},
		{"Empty object", map[string]any{}},
		{"Non-string-key map", map[int]any{1: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.DetectFormat(tt.doc)
			assert.Equal(t, FormatUnknown, result.Format)
			for f, c := range result.Confidences {
				assert.GreaterOrEqual(t, c, 0.0, "confidence for %s", f)
				assert.LessOrEqual(t, c, 1.0, "confidence for %s", f)
			}
		})
	}
}

func TestDetectFormatDeterministic(t *testing.T) {
	d := NewDetector()
	doc := xrayDocument()

	first := d.DetectFormat(doc)
	second := d.DetectFormat(doc)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated detection differs (-first +second):\n%s", diff)
	}

	// Shuffled key insertion order must not change the outcome.
	reordered := map[string]any{}
	reordered["tests"] = doc["tests"]
	reordered["testExecutions"] = doc["testExecutions"]
	d.ClearCache()
	third := d.DetectFormat(reordered)
	if diff := cmp.Diff(first, third); diff != "" {
		t.Fatalf("key order changed the detection (-first +reordered):\n%s", diff)
	}
}

func TestDetectFormatResultsDoNotAlias(t *testing.T) {
	d := NewDetector()

	first := d.DetectFormat(zephyrDocument())
	first.Confidences[FormatZephyr] = -99
	first.Evidence.FormatIndicators[0] = "tampered"

	second := d.DetectFormat(zephyrDocument())
	assert.NotEqual(t, -99.0, second.Confidences[FormatZephyr])
	assert.NotEqual(t, "tampered", second.Evidence.FormatIndicators[0])
}

func TestDetectFormatUsesCache(t *testing.T) {
	d := NewDetector()
	doc := zephyrDocument()

	d.DetectFormat(doc)
	stats := d.CacheStats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Zero(t, stats.Hits)

	d.DetectFormat(doc)
	stats = d.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)

	d.ClearCache()
	stats = d.CacheStats()
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.Hits)

	d.DetectFormat(doc)
	stats = d.CacheStats()
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestFormatConfidence(t *testing.T) {
	d := NewDetector()

	assert.Greater(t, d.FormatConfidence(zephyrDocument(), FormatZephyr), 0.9)
	assert.Zero(t, d.FormatConfidence(zephyrDocument(), FormatTestRail))
	assert.Zero(t, d.FormatConfidence(nil, FormatZephyr))
}

func TestEstimateConfidence(t *testing.T) {
	d := NewDetector()

	point, bounds := d.EstimateConfidence(zephyrDocument(), FormatZephyr, false)
	assert.Greater(t, point, 0.9)
	assert.Nil(t, bounds)

	point, bounds = d.EstimateConfidence(zephyrDocument(), FormatZephyr, true)
	require.NotNil(t, bounds)
	assert.LessOrEqual(t, bounds.Lower95, point)
	assert.GreaterOrEqual(t, bounds.Upper95, point)

	point, bounds = d.EstimateConfidence("scalar", FormatZephyr, true)
	assert.Zero(t, point)
	assert.Nil(t, bounds)

	point, bounds = d.EstimateConfidence(zephyrDocument(), FormatUnknown, false)
	assert.Zero(t, point)
	assert.Nil(t, bounds)
}

func TestLikelihoodsBypassCache(t *testing.T) {
	d := NewDetector()

	ls := d.Likelihoods(zephyrDocument())
	assert.InDelta(t, 1.0, ls[FormatZephyr], 1e-9)
	assert.Zero(t, ls[FormatTestRail])
	assert.Zero(t, d.CacheStats().Misses, "trainer path must not touch the cache")

	ls = d.Likelihoods(nil)
	for _, f := range DetectionOrder {
		assert.Zero(t, ls[f])
	}
}

func TestDetectorWithCustomCalibration(t *testing.T) {
	skewed := Priors{
		FormatZephyr:   0.05,
		FormatJiraXray: 0.05,
		FormatTestLink: 0.05,
		FormatTestRail: 0.05,
		FormatGeneric:  0.8,
	}
	d := NewDetectorWith(Config{Priors: skewed, MinPosterior: 0.05})

	uniform := NewDetector()
	doc := xrayDocument()
	assert.Less(t,
		d.DetectFormat(doc).Confidences[FormatJiraXray],
		uniform.DetectFormat(doc).Confidences[FormatJiraXray],
		"a lower prior lowers the posterior")
}

func TestDetectionResultMarshalJSON(t *testing.T) {
	d := NewDetector()
	raw, err := json.Marshal(d.DetectFormat(zephyrDocument()))
	require.NoError(t, err)

	var wire struct {
		DetectedFormat string             `json:"detected_format"`
		Confidences    map[string]float64 `json:"confidences"`
		Evidence       EvidenceSummary    `json:"evidence"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))

	assert.Equal(t, "zephyr", wire.DetectedFormat)
	assert.Len(t, wire.Confidences, len(DetectionOrder))
	assert.Contains(t, wire.Confidences, "ZEPHYR")
	assert.NotEmpty(t, wire.Evidence.FormatIndicators)

	assert.Regexp(t, `"ZEPHYR":0\.\d{6}[,}]`, string(raw), "confidences are fixed to six decimals")
	assert.Contains(t, string(raw), `"TESTRAIL":0.000000`)
}

func TestDetectionResultMarshalJSONUnknownEvidence(t *testing.T) {
	d := NewDetector()
	raw, err := json.Marshal(d.DetectFormat(nil))
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"detected_format":"unknown"`)
	assert.Contains(t, string(raw), `"format_indicators":[]`,
		"empty evidence must stay array-typed, not null")
	assert.Contains(t, string(raw), `"unique_patterns":[]`)
	assert.NotContains(t, string(raw), "null")
}
