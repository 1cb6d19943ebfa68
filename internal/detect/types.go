package detect

import (
	"encoding/json"
	"strconv"
)

// EvidenceSummary is the structural evidence attached to a detection
// result, consumed by downstream transformation layers as pure data.
type EvidenceSummary struct {
	FormatIndicators []string `json:"format_indicators"`
	UniquePatterns   []string `json:"unique_patterns"`
	TextLength       int      `json:"text_length"`
	ParameterCount   int      `json:"parameter_count"`
	Relationships    int      `json:"relationships"`
}

// DetectionResult is the classification outcome for one document.
// Instances are call-scoped: the cache stores its own copy and callers
// receive theirs, so results never alias across calls.
type DetectionResult struct {
	Format      SupportedFormat
	Confidences map[SupportedFormat]float64
	Evidence    EvidenceSummary
}

// Clone returns a deep copy with no shared maps or slices.
func (r DetectionResult) Clone() DetectionResult {
	out := DetectionResult{
		Format:      r.Format,
		Confidences: make(map[SupportedFormat]float64, len(r.Confidences)),
		Evidence: EvidenceSummary{
			TextLength:     r.Evidence.TextLength,
			ParameterCount: r.Evidence.ParameterCount,
			Relationships:  r.Evidence.Relationships,
		},
	}
	for f, v := range r.Confidences {
		out.Confidences[f] = v
	}
	if r.Evidence.FormatIndicators != nil {
		out.Evidence.FormatIndicators = append([]string(nil), r.Evidence.FormatIndicators...)
	}
	if r.Evidence.UniquePatterns != nil {
		out.Evidence.UniquePatterns = append([]string(nil), r.Evidence.UniquePatterns...)
	}
	return out
}

// MarshalJSON emits the wire shape: lower-snake detected format and
// confidences keyed by enum name, fixed to 6 decimals. The evidence
// lists stay array-typed even when nothing matched.
func (r DetectionResult) MarshalJSON() ([]byte, error) {
	confidences := make(map[string]json.RawMessage, len(r.Confidences))
	for f, v := range r.Confidences {
		confidences[f.String()] = json.RawMessage(strconv.FormatFloat(v, 'f', 6, 64))
	}

	evidence := r.Evidence
	if evidence.FormatIndicators == nil {
		evidence.FormatIndicators = []string{}
	}
	if evidence.UniquePatterns == nil {
		evidence.UniquePatterns = []string{}
	}

	return json.Marshal(struct {
		DetectedFormat string                     `json:"detected_format"`
		Confidences    map[string]json.RawMessage `json:"confidences"`
		Evidence       EvidenceSummary            `json:"evidence"`
	}{
		DetectedFormat: r.Format.Slug(),
		Confidences:    confidences,
		Evidence:       evidence,
	})
}
