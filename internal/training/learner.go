package training

import (
	"log/slog"
	"math"

	"github.com/casebridge/formatdetect/internal/detect"
)

// Observation pairs a likelihood with the null-hypothesis evidence
// probability observed across formats at that likelihood.
type Observation struct {
	Likelihood float64 `yaml:"likelihood" json:"likelihood"`
	ObservedP  float64 `yaml:"observed_p" json:"observed_p"`
}

// ComparisonReport contrasts the hardcoded calibration with a learned
// one. Advisory output for offline review only, never a runtime gate.
type ComparisonReport struct {
	MSEHardcoded       float64 `yaml:"mse_hardcoded" json:"mse_hardcoded"`
	MSELearned         float64 `yaml:"mse_learned" json:"mse_learned"`
	ImprovementPercent float64 `yaml:"improvement_percent" json:"improvement_percent"`
}

// Learner fits P(E|not-H) parameters from cross-format observations. The
// numerical backend is optional: without one, the closed-form heuristic
// still produces parameters satisfying the same validity contract.
type Learner struct {
	optimizer Optimizer
	defaults  detect.PENotHParams
	logger    *slog.Logger
}

// NewLearner creates a learner. A nil optimizer means heuristic-only.
func NewLearner(optimizer Optimizer) *Learner {
	return &Learner{
		optimizer: optimizer,
		defaults:  detect.DefaultPENotHParams(),
		logger:    slog.Default().With("component", "learner"),
	}
}

// LearnFromCrossFormatData fits (a,b,c) by least squares under the
// parameter constraints. Fit results failing validation are discarded
// in favor of the heuristic, and the heuristic in favor of the
// defaults, so the returned parameters are always valid. Empty
// observations return the unmodified defaults.
func (l *Learner) LearnFromCrossFormatData(obs []Observation) detect.PENotHParams {
	if len(obs) == 0 {
		return l.defaults
	}

	if l.optimizer != nil {
		fit, err := l.fit(obs)
		if err != nil {
			l.logger.Warn("optimizer backend failed, using heuristic fallback", "error", err)
		} else if vErr := fit.Validate(); vErr != nil {
			l.logger.Warn("optimizer fit failed validation, using heuristic fallback", "error", vErr)
		} else {
			return fit
		}
	}

	fit := HeuristicFit(obs, l.defaults)
	if err := fit.Validate(); err != nil {
		l.logger.Warn("heuristic fit failed validation, keeping defaults", "error", err)
		return l.defaults
	}
	return fit
}

// CompareWithHardcoded reports the squared-error gap between the
// hardcoded calibration and a fresh fit on the same observations.
func (l *Learner) CompareWithHardcoded(obs []Observation) ComparisonReport {
	hardcoded := detect.DefaultPENotHParams()
	learned := l.LearnFromCrossFormatData(obs)

	report := ComparisonReport{
		MSEHardcoded: MeanSquaredError(hardcoded, obs),
		MSELearned:   MeanSquaredError(learned, obs),
	}
	if report.MSEHardcoded > 0 {
		report.ImprovementPercent = (report.MSEHardcoded - report.MSELearned) / report.MSEHardcoded * 100
	}
	return report
}

// fit runs the injected optimizer on the penalized least-squares
// objective, starting from the current defaults.
func (l *Learner) fit(obs []Observation) (detect.PENotHParams, error) {
	objective := func(x []float64) float64 {
		p := detect.PENotHParams{A: x[0], B: x[1], C: x[2]}
		return MeanSquaredError(p, obs) + constraintPenalty(p)
	}

	initial := []float64{l.defaults.A, l.defaults.B, l.defaults.C}
	x, err := l.optimizer.Minimize(objective, initial)
	if err != nil {
		return detect.PENotHParams{}, err
	}

	return detect.PENotHParams{A: x[0], B: x[1], C: x[2]}, nil
}

// MeanSquaredError evaluates a parameter set against observations.
func MeanSquaredError(p detect.PENotHParams, obs []Observation) float64 {
	if len(obs) == 0 {
		return 0
	}

	var sum float64
	for _, o := range obs {
		diff := p.Prob(o.Likelihood) - o.ObservedP
		sum += diff * diff
	}
	return sum / float64(len(obs))
}

// constraintPenalty keeps the simplex inside the feasible region with
// smooth quadratic walls instead of hard infinities.
func constraintPenalty(p detect.PENotHParams) float64 {
	const scale = 100.0

	var penalty float64
	if p.A < 0 {
		penalty += p.A * p.A
	}
	if p.A >= 0.1 {
		penalty += (p.A - 0.1 + 1e-6) * (p.A - 0.1 + 1e-6)
	}
	if p.B <= 0 {
		penalty += (p.B - 1e-6) * (p.B - 1e-6)
	}
	if over := p.A + p.B - 1; over > 0 {
		penalty += over * over
	}
	if p.C < 0.5 {
		penalty += (0.5 - p.C) * (0.5 - p.C)
	}
	if math.IsNaN(penalty) {
		return math.MaxFloat64
	}
	return scale * penalty
}
