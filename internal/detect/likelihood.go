package detect

import "math"

// likelihoodEpsilon guards the denominator against zero-weight formats.
const likelihoodEpsilon = 1e-9

// Likelihood aggregates matched evidence into the normalized fraction
// of a format's defined weight actually matched, clamped to [0,1].
// Items arrive in registration order from the collector, so the
// summation order is fixed and the result deterministic. Zero evidence
// yields 0, not an error.
func Likelihood(items []EvidenceItem, totalPossible float64) float64 {
	var matched float64
	for _, item := range items {
		matched += item.Weight
	}

	return clamp01(matched / math.Max(totalPossible, likelihoodEpsilon))
}

// EvidenceMetrics is a derived per-call snapshot of match quality.
// Every ratio lives in [0,1].
type EvidenceMetrics struct {
	Completeness  float64 `json:"completeness"`
	Quality       float64 `json:"quality"`
	Uniqueness    float64 `json:"uniqueness"`
	EvidenceCount int     `json:"evidence_count"`
	UniqueCount   int     `json:"unique_count"`
}

// ComputeMetrics derives the metrics snapshot for one format from its
// definition and the evidence the collector matched.
func ComputeMetrics(def FormatDefinition, items []EvidenceItem, likelihood float64) EvidenceMetrics {
	matched := make(map[string]bool, len(items))
	for _, item := range items {
		matched[item.Field] = true
	}

	var requiredTotal, requiredHit int
	var uniqueWeight, uniqueHitWeight float64
	var uniqueHits int

	for _, field := range def.Fields {
		if field.IsRequired {
			requiredTotal++
			if matched[field.Path] {
				requiredHit++
			}
		}
		if field.Weight == WeightUnique {
			uniqueWeight += field.Weight.Value()
			if matched[field.Path] {
				uniqueHitWeight += field.Weight.Value()
				uniqueHits++
			}
		}
	}

	completeness := 1.0
	if requiredTotal > 0 {
		completeness = float64(requiredHit) / float64(requiredTotal)
	}

	uniqueness := 0.0
	if uniqueWeight > 0 {
		uniqueness = uniqueHitWeight / uniqueWeight
	}

	return EvidenceMetrics{
		Completeness:  clamp01(completeness),
		Quality:       clamp01(likelihood),
		Uniqueness:    clamp01(uniqueness),
		EvidenceCount: len(items),
		UniqueCount:   uniqueHits,
	}
}

// clamp01 pins v into [0,1] and maps NaN to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
