package calculator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

// TrainTestSplit partitions indices 0..n-1 into disjoint train and test sets.
// The permutation comes from a PCG source seeded with seed, so identical
// inputs always yield identical partitions. The test set holds
// ceil(n·testFraction) indices, at least one, while leaving at least two for
// training. Both returned slices are sorted.
func TrainTestSplit(n int, testFraction float64, seed uint64) (train, test []int, err error) {
	if n < 3 {
		return nil, nil, fmt.Errorf("split %d samples: %w", n, ErrTooFewPoints)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction %.2f outside (0, 1)", testFraction)
	}

	nTest := int(math.Ceil(float64(n) * testFraction))
	nTest = max(1, min(nTest, n-2))

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test, nil
}

// Pick returns values at the given indices.
func Pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}
