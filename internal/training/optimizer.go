package training

import (
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

// Optimizer minimizes a scalar objective from an initial point. It is
// injected into the learner so the numerical backend stays an offline
// concern; the learner's heuristic fallback satisfies the same
// validity contract with no backend at all.
type Optimizer interface {
	Minimize(objective func(x []float64) float64, initial []float64) ([]float64, error)
}

// GonumOptimizer runs a derivative-free Nelder-Mead minimization.
type GonumOptimizer struct{}

// Minimize implements Optimizer.
func (GonumOptimizer) Minimize(objective func(x []float64) float64, initial []float64) ([]float64, error) {
	problem := optimize.Problem{
		Func: objective,
	}

	start := append([]float64(nil), initial...)
	result, err := optimize.Minimize(problem, start, nil, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("nelder-mead minimization failed: %w", err)
	}
	if result == nil || len(result.X) != len(initial) {
		return nil, fmt.Errorf("nelder-mead returned no solution")
	}

	return result.X, nil
}
