// Package datasets implements the graph and node split types shared by the graph datasets
package datasets

import "math/rand/v2"

import "github.com/pkg/errors"

// SplitSizes are the sizes of the train, validation and test windows.
type SplitSizes struct {
	Train int
	Val   int
	Test  int
}

// Split partitions node indices into train, validation and test sets.
type Split struct {
	Train []int
	Val   []int
	Test  []int
}

// NewSplit permutes 0..n-1 with a generator seeded by seed and cuts it by position:
// train is perm[0:Train], validation is perm[Train:Train+Val] and test is the last
// Test entries of the permutation.
func NewSplit(n int, sizes SplitSizes, seed uint64) (*Split, error) {
	if sizes.Train < 0 || sizes.Val < 0 || sizes.Test < 0 {
		return nil, errors.Errorf("negative split size %+v", sizes)
	}
	if sizes.Train+sizes.Val+sizes.Test > n {
		return nil, errors.Errorf("split sizes %d+%d+%d exceed %d nodes", sizes.Train, sizes.Val, sizes.Test, n)
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return &Split{
		Train: perm[:sizes.Train:sizes.Train],
		Val:   perm[sizes.Train : sizes.Train+sizes.Val : sizes.Train+sizes.Val],
		Test:  perm[n-sizes.Test:],
	}, nil
}
