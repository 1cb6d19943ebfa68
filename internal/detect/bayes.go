package detect

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/casebridge/formatdetect/internal/errors"
)

// Priors is a per-format prior probability table.
type Priors map[SupportedFormat]float64

// UniformPriors spreads prior mass evenly over the candidate formats.
func UniformPriors() Priors {
	p := make(Priors, len(DetectionOrder))
	for _, f := range DetectionOrder {
		p[f] = 1.0 / float64(len(DetectionOrder))
	}
	return p
}

const priorSumTolerance = 1e-6

// Validate checks that the table covers only known candidate formats,
// every prior is a probability, and the mass sums to 1.
func (p Priors) Validate() error {
	if len(p) == 0 {
		return errors.ValidationError("priors table is empty")
	}

	known := make(map[SupportedFormat]bool, len(DetectionOrder))
	for _, f := range DetectionOrder {
		known[f] = true
	}

	var sum float64
	for f, v := range p {
		if !known[f] {
			return errors.ValidationErrorf("prior for unknown format %q", f)
		}
		if math.IsNaN(v) || v <= 0 || v > 1 {
			return errors.ValidationErrorf("prior for %s is %g, want (0,1]", f, v)
		}
		sum += v
	}

	if math.Abs(sum-1) > priorSumTolerance {
		return errors.ValidationErrorf("priors sum to %g, want 1", sum)
	}
	return nil
}

const (
	// defaultAmbiguityRatio: when the best and second-best raw
	// likelihoods are within this factor the winner is not trusted.
	defaultAmbiguityRatio = 1.5

	// defaultMinPosterior: winners below this floor degrade to GENERIC.
	defaultMinPosterior = 0.30
)

// calibration is an immutable snapshot of the combiner's tunable state.
// Readers load it through an atomic pointer, so a recalibration is
// never observed half-applied.
type calibration struct {
	priors         Priors
	penoth         PENotHParams
	ambiguityRatio float64
	minPosterior   float64
}

// Combiner merges likelihood, P(E|not-H), and priors into a normalized
// posterior per format and picks the winner with an ambiguity guard.
// Safe for concurrent use: posterior and decision paths read one
// calibration snapshot, and the setters swap in a fresh one atomically.
type Combiner struct {
	mu     sync.Mutex // serializes writers
	state  atomic.Pointer[calibration]
	logger *slog.Logger
}

// NewCombiner returns a combiner with uniform priors, the default
// P(E|not-H) calibration, and the default ambiguity thresholds.
func NewCombiner() *Combiner {
	c := &Combiner{logger: slog.Default().With("component", "combiner")}
	c.state.Store(&calibration{
		priors:         UniformPriors(),
		penoth:         DefaultPENotHParams(),
		ambiguityRatio: defaultAmbiguityRatio,
		minPosterior:   defaultMinPosterior,
	})
	return c
}

// SetPriors replaces the prior table. An invalid table is rejected with
// a logged warning and the previous table stays in effect.
func (c *Combiner) SetPriors(p Priors) error {
	if err := p.Validate(); err != nil {
		c.logger.Warn("rejecting invalid priors, keeping previous", "error", err)
		return err
	}

	priors := make(Priors, len(p))
	for f, v := range p {
		priors[f] = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := *c.state.Load()
	next.priors = priors
	c.state.Store(&next)
	return nil
}

// SetPENotH replaces the null-hypothesis model parameters. An invalid
// set is rejected with a logged warning and the previous set stays.
func (c *Combiner) SetPENotH(p PENotHParams) error {
	if err := p.Validate(); err != nil {
		c.logger.Warn("rejecting invalid penoth parameters, keeping previous", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	next := *c.state.Load()
	next.penoth = p
	c.state.Store(&next)
	return nil
}

// SetThresholds overrides the ambiguity ratio and posterior floor.
// Non-positive values keep the current settings.
func (c *Combiner) SetThresholds(ambiguityRatio, minPosterior float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := *c.state.Load()
	if ambiguityRatio > 0 {
		next.ambiguityRatio = ambiguityRatio
	}
	if minPosterior > 0 {
		next.minPosterior = minPosterior
	}
	c.state.Store(&next)
}

// Posterior computes the Bayes-combined confidence for one format:
//
//	L*prior / (L*prior + P(E|not-H)(L)*(1-prior))
//
// clamped into [0,1]. A zero-likelihood format always posts 0.
func (c *Combiner) Posterior(f SupportedFormat, likelihood float64) float64 {
	state := c.state.Load()
	likelihood = clamp01(likelihood)
	prior := state.priors[f]

	numerator := likelihood * prior
	denominator := numerator + state.penoth.Prob(likelihood)*(1-prior)
	if denominator <= 0 {
		return 0
	}

	return clamp01(numerator / denominator)
}

// Decide picks the winning format from per-format likelihoods and
// posteriors, degrading to GENERIC when the evidence is ambiguous or
// the winner is below the confidence floor, and to UNKNOWN when no
// evidence matched at all. Iteration follows DetectionOrder, so ties
// resolve deterministically.
func (c *Combiner) Decide(likelihoods, posteriors map[SupportedFormat]float64) SupportedFormat {
	state := c.state.Load()
	best := FormatUnknown
	var bestL, secondL, bestPosterior, totalL float64

	for _, f := range DetectionOrder {
		l := likelihoods[f]
		totalL += l

		if best == FormatUnknown || posteriors[f] > bestPosterior {
			if best != FormatUnknown && likelihoods[best] > secondL {
				secondL = likelihoods[best]
			}
			best = f
			bestL = l
			bestPosterior = posteriors[f]
		} else if l > secondL {
			secondL = l
		}
	}

	if totalL == 0 {
		return FormatUnknown
	}

	if bestPosterior < state.minPosterior {
		c.logger.Debug("posterior below floor, degrading",
			"best", best, "posterior", bestPosterior, "floor", state.minPosterior)
		return FormatGeneric
	}

	if secondL > 0 && bestL/secondL <= state.ambiguityRatio {
		c.logger.Debug("ambiguous evidence, degrading",
			"best", best, "best_likelihood", bestL, "second_likelihood", secondL)
		return FormatGeneric
	}

	return best
}
