package training

import "github.com/casebridge/formatdetect/internal/detect"

// FitPriors estimates a per-format prior table from label frequencies,
// Laplace-smoothed so formats absent from the sample set keep nonzero
// mass. Samples with unrecognized labels are skipped. The result always
// passes Priors.Validate.
func FitPriors(samples []LabelledSample) detect.Priors {
	counts := make(map[detect.SupportedFormat]int, len(detect.DetectionOrder))

	var total int
	for _, sample := range samples {
		f := sample.Format()
		if f == detect.FormatUnknown {
			continue
		}
		counts[f]++
		total++
	}

	denominator := float64(total + len(detect.DetectionOrder))

	priors := make(detect.Priors, len(detect.DetectionOrder))
	for _, f := range detect.DetectionOrder {
		priors[f] = float64(counts[f]+1) / denominator
	}

	return priors
}
