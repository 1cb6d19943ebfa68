package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversAllCandidates(t *testing.T) {
	registry := NewRegistry()

	formats := registry.AllFormats()
	require.Len(t, formats, len(DetectionOrder))

	for _, f := range DetectionOrder {
		def, ok := registry.Definition(f)
		require.True(t, ok, "missing definition for %s", f)
		assert.Equal(t, f, def.FormatType)
		assert.NotEmpty(t, def.Fields, "%s has no field rules", f)
		assert.Greater(t, def.TotalWeight(), 0.0)
	}
}

func TestRegistryUnknownFormatHasNoDefinition(t *testing.T) {
	registry := NewRegistry()

	_, ok := registry.Definition(FormatUnknown)
	assert.False(t, ok)

	_, ok = registry.Definition(SupportedFormat("NOT_A_FORMAT"))
	assert.False(t, ok)
}

func TestRegistryDuplicateFormatIsFatal(t *testing.T) {
	defs := []FormatDefinition{
		{Name: "first", FormatType: FormatZephyr},
		{Name: "second", FormatType: FormatZephyr},
	}

	assert.Panics(t, func() { newRegistry(defs) })
}

func TestRequiredKeysAndUniqueIndicators(t *testing.T) {
	registry := NewRegistry()

	def, ok := registry.Definition(FormatZephyr)
	require.True(t, ok)

	assert.Equal(t, []string{"testCase", "execution"}, def.RequiredKeys())
	assert.Contains(t, def.UniqueIndicators(), "cycle")

	generic, ok := registry.Definition(FormatGeneric)
	require.True(t, ok)
	assert.Empty(t, generic.RequiredKeys(), "GENERIC must not require keys")
	assert.Empty(t, generic.UniqueIndicators(), "GENERIC must not claim unique fields")
}
