package datasets

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// BalancedClassWeights returns n_samples / (n_classes * count[c]) for every
// class c in [0, nClasses). Every label must be in range and every class
// must occur at least once.
func BalancedClassWeights(labels []int, nClasses int) ([]float64, error) {
	if nClasses <= 0 {
		return nil, fmt.Errorf("n_classes must be positive, got %d", nClasses)
	}
	counts := make([]float64, nClasses)
	for _, l := range labels {
		if l < 0 || l >= nClasses {
			return nil, fmt.Errorf("label %d outside [0, %d)", l, nClasses)
		}
		counts[l]++
	}
	for c, n := range counts {
		if n == 0 {
			return nil, fmt.Errorf("class %d has no samples", c)
		}
	}

	total := floats.Sum(counts)
	weights := make([]float64, nClasses)
	for c := range weights {
		weights[c] = total / (float64(nClasses) * counts[c])
	}
	return weights, nil
}
