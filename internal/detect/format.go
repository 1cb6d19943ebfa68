package detect

import "strings"

// SupportedFormat identifies a known test-export source format.
type SupportedFormat string

const (
	FormatZephyr   SupportedFormat = "ZEPHYR"
	FormatJiraXray SupportedFormat = "JIRA_XRAY"
	FormatTestLink SupportedFormat = "TESTLINK"
	FormatTestRail SupportedFormat = "TESTRAIL"
	FormatGeneric  SupportedFormat = "GENERIC"
	FormatUnknown  SupportedFormat = "UNKNOWN"
)

// String returns the enum name of the format.
func (f SupportedFormat) String() string {
	return string(f)
}

// Slug returns the lower-snake wire name (e.g. "jira_xray").
func (f SupportedFormat) Slug() string {
	return strings.ToLower(string(f))
}

// EvidenceWeight classifies how strongly a matched field implies a format.
type EvidenceWeight string

const (
	WeightUnique   EvidenceWeight = "UNIQUE"
	WeightStrong   EvidenceWeight = "STRONG"
	WeightModerate EvidenceWeight = "MODERATE"
	WeightWeak     EvidenceWeight = "WEAK"
)

// Value returns the numeric weight used by the likelihood calculator.
func (w EvidenceWeight) Value() float64 {
	switch w {
	case WeightUnique:
		return 1.0
	case WeightStrong:
		return 0.75
	case WeightModerate:
		return 0.5
	case WeightWeak:
		return 0.25
	default:
		return 0
	}
}

// EvidenceSource identifies what kind of signal produced an evidence item.
type EvidenceSource string

const (
	SourceRequiredKey       EvidenceSource = "REQUIRED_KEY"
	SourceUniqueField       EvidenceSource = "UNIQUE_FIELD"
	SourceStructuralPattern EvidenceSource = "STRUCTURAL_PATTERN"
)

// FieldDefinition is one dot-path rule belonging to a format definition.
type FieldDefinition struct {
	Path       string
	Weight     EvidenceWeight
	IsRequired bool
}

// FormatDefinition is the static rule set for one format. Built once at
// startup and read-only afterwards.
type FormatDefinition struct {
	Name       string
	FormatType SupportedFormat
	Fields     []FieldDefinition
}

// RequiredKeys returns the paths of required fields, in registration order.
func (d FormatDefinition) RequiredKeys() []string {
	var keys []string
	for _, f := range d.Fields {
		if f.IsRequired {
			keys = append(keys, f.Path)
		}
	}
	return keys
}

// UniqueIndicators returns the paths carrying UNIQUE weight, in
// registration order.
func (d FormatDefinition) UniqueIndicators() []string {
	var keys []string
	for _, f := range d.Fields {
		if f.Weight == WeightUnique {
			keys = append(keys, f.Path)
		}
	}
	return keys
}

// TotalWeight sums every field's weight regardless of match. It is the
// likelihood denominator for this format.
func (d FormatDefinition) TotalWeight() float64 {
	var total float64
	for _, f := range d.Fields {
		total += f.Weight.Value()
	}
	return total
}

// EvidenceItem is one matched signal supporting a format hypothesis.
// Created per call and discarded after.
type EvidenceItem struct {
	Source EvidenceSource `json:"source"`
	Field  string         `json:"field"`
	Weight float64        `json:"weight"`
}
