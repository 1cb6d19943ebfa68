package training

import "github.com/casebridge/formatdetect/internal/detect"

// maxHeuristicA keeps the anchored offset strictly inside the a < 0.1
// constraint.
const maxHeuristicA = 0.099

// HeuristicFit is the closed-form fallback used when no optimizer
// backend is available or its fit fails validation. It anchors a to the
// minimum observed null probability, b to the observed range, and keeps
// c at the default decay. The result always satisfies the parameter
// constraints; when the data cannot support a valid fit the defaults
// come back unchanged.
func HeuristicFit(obs []Observation, defaults detect.PENotHParams) detect.PENotHParams {
	if len(obs) == 0 {
		return defaults
	}

	minP, maxP := obs[0].ObservedP, obs[0].ObservedP
	for _, o := range obs[1:] {
		if o.ObservedP < minP {
			minP = o.ObservedP
		}
		if o.ObservedP > maxP {
			maxP = o.ObservedP
		}
	}

	a := minP
	if a < 0 {
		a = 0
	}
	if a > maxHeuristicA {
		a = maxHeuristicA
	}

	b := maxP - minP
	if b <= 0 {
		// Flat observations carry no decay signal.
		return defaults
	}
	if a+b > 1 {
		b = 1 - a
	}

	fit := detect.PENotHParams{A: a, B: b, C: defaults.C}
	if fit.Validate() != nil {
		return defaults
	}
	return fit
}
