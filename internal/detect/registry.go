package detect

import (
	"log/slog"

	"github.com/casebridge/formatdetect/internal/errors"
)

// DetectionOrder is the fixed evaluation order for candidate formats.
// Summation and argmax both follow this order so results are
// deterministic regardless of map iteration.
var DetectionOrder = []SupportedFormat{
	FormatZephyr,
	FormatJiraXray,
	FormatTestLink,
	FormatTestRail,
	FormatGeneric,
}

// Registry is the static catalog of per-format field rules. It is
// process-wide and read-mostly; definitions never mutate after New.
type Registry struct {
	formats map[SupportedFormat]FormatDefinition
	logger  *slog.Logger
}

// NewRegistry builds the registry from the built-in format definitions.
// A duplicate format key is a fatal startup configuration error.
func NewRegistry() *Registry {
	return newRegistry(builtinDefinitions())
}

func newRegistry(defs []FormatDefinition) *Registry {
	formats := make(map[SupportedFormat]FormatDefinition, len(defs))
	for _, def := range defs {
		if _, exists := formats[def.FormatType]; exists {
			panic(errors.ConfigErrorf("duplicate format definition: %s", def.FormatType))
		}
		formats[def.FormatType] = def
	}

	return &Registry{
		formats: formats,
		logger:  slog.Default().With("component", "registry"),
	}
}

// AllFormats returns the full catalog keyed by format.
func (r *Registry) AllFormats() map[SupportedFormat]FormatDefinition {
	return r.formats
}

// Definition returns the rule set for one format.
// The second return is false for formats without a definition (UNKNOWN,
// or anything unrecognized).
func (r *Registry) Definition(f SupportedFormat) (FormatDefinition, bool) {
	def, ok := r.formats[f]
	return def, ok
}

// builtinDefinitions returns the compiled-in rule sets. Field order is
// significant: it is the registration order the likelihood calculator
// sums in.
func builtinDefinitions() []FormatDefinition {
	return []FormatDefinition{
		{
			Name:       "Zephyr Scale / Squad export",
			FormatType: FormatZephyr,
			Fields: []FieldDefinition{
				{Path: "testCase", Weight: WeightUnique, IsRequired: true},
				{Path: "execution", Weight: WeightUnique, IsRequired: true},
				{Path: "cycle", Weight: WeightUnique},
				{Path: "testCase.testScript", Weight: WeightStrong},
				{Path: "execution.status", Weight: WeightModerate},
				{Path: "testCase.name", Weight: WeightModerate},
				{Path: "projectKey", Weight: WeightWeak},
			},
		},
		{
			Name:       "Jira Xray JSON import/export",
			FormatType: FormatJiraXray,
			Fields: []FieldDefinition{
				{Path: "testExecutions", Weight: WeightUnique},
				{Path: "tests.testKey", Weight: WeightUnique},
				{Path: "tests", Weight: WeightStrong, IsRequired: true},
				{Path: "tests.status", Weight: WeightModerate},
				{Path: "info", Weight: WeightWeak},
			},
		},
		{
			Name:       "TestLink XML-derived export",
			FormatType: FormatTestLink,
			Fields: []FieldDefinition{
				{Path: "testsuites", Weight: WeightUnique, IsRequired: true},
				{Path: "testsuites.testsuite.testcase.externalid", Weight: WeightUnique},
				{Path: "testsuites.testsuite", Weight: WeightStrong},
				{Path: "testsuites.testsuite.testcase.execution_type", Weight: WeightModerate},
				{Path: "testsuites.testsuite.testcase.importance", Weight: WeightWeak},
				{Path: "testsuites.testsuite.testcase.preconditions", Weight: WeightWeak},
			},
		},
		{
			Name:       "TestRail suite export",
			FormatType: FormatTestRail,
			Fields: []FieldDefinition{
				{Path: "sections", Weight: WeightUnique, IsRequired: true},
				{Path: "sections.cases.custom_steps_separated", Weight: WeightUnique},
				{Path: "sections.cases", Weight: WeightStrong},
				{Path: "sections.cases.priority_id", Weight: WeightModerate},
				{Path: "sections.cases.type_id", Weight: WeightModerate},
				{Path: "milestone", Weight: WeightWeak},
				{Path: "sections.cases.refs", Weight: WeightWeak},
			},
		},
		{
			Name:       "Generic structured test document",
			FormatType: FormatGeneric,
			Fields: []FieldDefinition{
				{Path: "tests", Weight: WeightWeak},
				{Path: "test_cases", Weight: WeightWeak},
				{Path: "testcases", Weight: WeightWeak},
				{Path: "cases", Weight: WeightWeak},
				{Path: "results", Weight: WeightWeak},
				{Path: "project", Weight: WeightWeak},
				{Path: "tests.name", Weight: WeightWeak},
				{Path: "tests.status", Weight: WeightWeak},
			},
		},
	}
}
