package detect

import (
	"log/slog"
	"strings"
	"sync/atomic"
)

// compiledRule is one field rule with its dot-path pre-split.
type compiledRule struct {
	path     string
	segments []string
	weight   float64
	source   EvidenceSource
}

// ruleTable is an immutable compiled snapshot of the registry. Readers
// load it through an atomic pointer, so a refresh is never observed
// half-built.
type ruleTable struct {
	rules  map[SupportedFormat][]compiledRule
	totals map[SupportedFormat]float64
}

// Collector matches documents against one format's compiled rules and
// emits evidence items. Safe for concurrent use: collection only reads
// the current rule table snapshot.
type Collector struct {
	registry *Registry
	table    atomic.Pointer[ruleTable]
	logger   *slog.Logger
}

// NewCollector compiles the registry's rules and returns a collector.
func NewCollector(registry *Registry) *Collector {
	c := &Collector{
		registry: registry,
		logger:   slog.Default().With("component", "collector"),
	}
	c.RefreshPatterns()
	return c
}

// RefreshPatterns rebuilds the compiled rule table from the current
// registry snapshot and swaps it in atomically. The offline learner
// calls this after recalibration.
func (c *Collector) RefreshPatterns() {
	table := &ruleTable{
		rules:  make(map[SupportedFormat][]compiledRule),
		totals: make(map[SupportedFormat]float64),
	}

	for format, def := range c.registry.AllFormats() {
		rules := make([]compiledRule, 0, len(def.Fields))
		var total float64

		for _, field := range def.Fields {
			rules = append(rules, compiledRule{
				path:     field.Path,
				segments: strings.Split(field.Path, "."),
				weight:   field.Weight.Value(),
				source:   classifySource(field),
			})
			total += field.Weight.Value()
		}

		table.rules[format] = rules
		table.totals[format] = total
	}

	c.table.Store(table)
	c.logger.Debug("rule table refreshed", "formats", len(table.rules))
}

// classifySource maps a field definition onto its evidence source.
// Required keys take precedence over uniqueness.
func classifySource(field FieldDefinition) EvidenceSource {
	switch {
	case field.IsRequired:
		return SourceRequiredKey
	case field.Weight == WeightUnique:
		return SourceUniqueField
	default:
		return SourceStructuralPattern
	}
}

// CollectEvidence matches doc against one format's rules. It returns
// the matched evidence items in registration order together with the
// format's total possible weight (the likelihood denominator). An
// unsupported format yields ([], 0), never an error.
func (c *Collector) CollectEvidence(doc any, format SupportedFormat) ([]EvidenceItem, float64) {
	table := c.table.Load()

	rules, ok := table.rules[format]
	if !ok {
		return nil, 0
	}

	var items []EvidenceItem
	for _, rule := range rules {
		if resolvePath(doc, rule.segments) {
			items = append(items, EvidenceItem{
				Source: rule.source,
				Field:  rule.path,
				Weight: rule.weight,
			})
		}
	}

	return items, table.totals[format]
}
