package detect

import (
	"math"

	"github.com/casebridge/formatdetect/internal/errors"
)

// PENotHParams parameterizes the null-hypothesis evidence model
//
//	P(E|not-H)(L) = a + b*(1-L)^c
//
// which is non-increasing in L: the more of a format's evidence a
// document matches, the less likely that evidence is to occur when the
// format hypothesis is false.
type PENotHParams struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

// DefaultPENotHParams is the hand-set calibration: quadratic decay from
// 0.5 at zero likelihood down to 0.01 at full likelihood.
func DefaultPENotHParams() PENotHParams {
	return PENotHParams{A: 0.01, B: 0.49, C: 2.0}
}

// Validate enforces the parameter constraints:
// 0 <= a < 0.1, b > 0, a+b <= 1, c >= 0.5. Any candidate failing these is
// rejected by every assignment path, so a live model never holds an
// invalid parameter set.
func (p PENotHParams) Validate() error {
	if math.IsNaN(p.A) || math.IsNaN(p.B) || math.IsNaN(p.C) {
		return errors.ValidationError("penoth parameters must not be NaN")
	}
	if p.A < 0 || p.A >= 0.1 {
		return errors.ValidationErrorf("parameter a=%g out of range [0, 0.1)", p.A)
	}
	if p.B <= 0 {
		return errors.ValidationErrorf("parameter b=%g must be positive", p.B)
	}
	if p.A+p.B > 1 {
		return errors.ValidationErrorf("a+b=%g exceeds 1", p.A+p.B)
	}
	if p.C < 0.5 {
		return errors.ValidationErrorf("parameter c=%g below 0.5", p.C)
	}
	return nil
}

// Prob evaluates P(E|not-H) at likelihood l. The input is clamped so the
// result is always a valid probability.
func (p PENotHParams) Prob(l float64) float64 {
	l = clamp01(l)
	return clamp01(p.A + p.B*math.Pow(1-l, p.C))
}
