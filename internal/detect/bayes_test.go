package detect

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformPriorsValidate(t *testing.T) {
	require.NoError(t, UniformPriors().Validate())
}

func TestPriorsValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		priors Priors
	}{
		{"Empty table", Priors{}},
		{"Unknown format", Priors{SupportedFormat("MYSTERY"): 1.0}},
		{"Zero mass entry", Priors{FormatZephyr: 0, FormatGeneric: 1.0}},
		{"Sum below one", Priors{FormatZephyr: 0.2, FormatGeneric: 0.2}},
		{"Sum above one", Priors{FormatZephyr: 0.9, FormatGeneric: 0.9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.priors.Validate())
		})
	}
}

func TestCombinerSetPriorsKeepsPreviousOnRejection(t *testing.T) {
	c := NewCombiner()
	before := c.Posterior(FormatZephyr, 0.8)

	err := c.SetPriors(Priors{FormatZephyr: 2.0})
	require.Error(t, err)
	assert.Equal(t, before, c.Posterior(FormatZephyr, 0.8), "rejected priors must not change the posterior")

	fitted := Priors{
		FormatZephyr:   0.4,
		FormatJiraXray: 0.2,
		FormatTestLink: 0.15,
		FormatTestRail: 0.15,
		FormatGeneric:  0.1,
	}
	require.NoError(t, c.SetPriors(fitted))
	assert.Greater(t, c.Posterior(FormatZephyr, 0.8), before, "higher prior raises the posterior")
}

func TestCombinerSetPENotHKeepsPreviousOnRejection(t *testing.T) {
	c := NewCombiner()
	before := c.Posterior(FormatZephyr, 0.5)

	require.Error(t, c.SetPENotH(PENotHParams{A: 0.6, B: 0.5, C: 2.0}))
	assert.Equal(t, before, c.Posterior(FormatZephyr, 0.5))

	require.NoError(t, c.SetPENotH(PENotHParams{A: 0.02, B: 0.3, C: 1.0}))
	assert.NotEqual(t, before, c.Posterior(FormatZephyr, 0.5))
}

func TestPosteriorBounds(t *testing.T) {
	c := NewCombiner()

	for _, f := range DetectionOrder {
		for _, l := range []float64{-1, 0, 0.25, 0.5, 0.75, 1, 2} {
			p := c.Posterior(f, l)
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
		}
	}

	assert.Zero(t, c.Posterior(FormatZephyr, 0), "zero likelihood posts zero")
}

func TestRecalibrationConcurrentWithPosteriors(t *testing.T) {
	c := NewCombiner()

	uniform := UniformPriors()
	skewed := Priors{
		FormatZephyr:   0.4,
		FormatJiraXray: 0.2,
		FormatTestLink: 0.15,
		FormatTestRail: 0.15,
		FormatGeneric:  0.1,
	}

	// The two posteriors a reader may observe for L=0.8 under either
	// calibration snapshot.
	low := c.Posterior(FormatZephyr, 0.8)
	require.NoError(t, c.SetPriors(skewed))
	high := c.Posterior(FormatZephyr, 0.8)
	require.NoError(t, c.SetPriors(uniform))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				p := c.Posterior(FormatZephyr, 0.8)
				// Readers must see a whole snapshot, never a torn mix.
				assert.True(t, p == low || p == high, "posterior %g matches neither calibration", p)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			assert.NoError(t, c.SetPriors(skewed))
			assert.NoError(t, c.SetPriors(uniform))
		}
	}()

	wg.Wait()
}

func TestDecide(t *testing.T) {
	c := NewCombiner()

	likelihoods := func(vals ...float64) map[SupportedFormat]float64 {
		m := make(map[SupportedFormat]float64, len(DetectionOrder))
		for i, f := range DetectionOrder {
			m[f] = vals[i]
		}
		return m
	}
	posteriors := func(ls map[SupportedFormat]float64) map[SupportedFormat]float64 {
		m := make(map[SupportedFormat]float64, len(ls))
		for f, l := range ls {
			m[f] = c.Posterior(f, l)
		}
		return m
	}

	tests := []struct {
		name string
		ls   map[SupportedFormat]float64
		want SupportedFormat
	}{
		{"No evidence at all", likelihoods(0, 0, 0, 0, 0), FormatUnknown},
		{"Clear winner", likelihoods(0.9, 0.1, 0, 0, 0.2), FormatZephyr},
		{"Ambiguous top two", likelihoods(0, 0.6, 0.5, 0, 0), FormatGeneric},
		{"Weak lone winner below floor", likelihoods(0, 0.15, 0, 0, 0), FormatGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Decide(tt.ls, posteriors(tt.ls))
			assert.Equal(t, tt.want, got)
		})
	}
}
