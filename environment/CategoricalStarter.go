package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// CategoricalStarter returns starting choices sampled from a
// multi-dimensional uniform categorical distribution. The categorical
// distributions sample values in (0, 1, 2, ... N-1).
type CategoricalStarter struct {
	features int
	rand     []distuv.Categorical
}

// NewCategoricalStarter returns a new CategoricalStarter, sampling
// dimension i from (0, 1, 2, ... bounds[i]-1)
func NewCategoricalStarter(bounds []int, src rand.Source) CategoricalStarter {
	rand := make([]distuv.Categorical, len(bounds))
	for i := range rand {
		if bounds[i] < 1 {
			panic("newCategoricalStarter: bounds must be positive")
		}

		// Create the weights for the uniform categorical distribution
		weights := make([]float64, bounds[i])
		for j := range weights {
			weights[j] = 1.0 / float64(len(weights))
		}

		rand[i] = distuv.NewCategorical(weights, src)
	}

	return CategoricalStarter{len(bounds), rand}
}

// Start returns one sampled index per dimension
func (c CategoricalStarter) Start() []int {
	start := make([]int, c.features)
	for i := range start {
		start[i] = int(c.rand[i].Rand())
	}

	return start
}
