package layer

import "math"
import "math/rand/v2"

import "gonum.org/v1/gonum/mat"

// Glorot fills m with values drawn uniformly from [-a, a], a = sqrt(6 / (fanIn + fanOut)).
func Glorot(m *mat.Dense, fanIn, fanOut int, rng *rand.Rand) {
	a := math.Sqrt(6 / float64(fanIn+fanOut))
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = (2*rng.Float64() - 1) * a
		}
	}
}

// ColSums returns the column sums of m as a 1 x c matrix.
func ColSums(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(1, c, nil)
	sum := out.RawRowView(0)
	for i := 0; i < r; i++ {
		for j, v := range m.RawRowView(i) {
			sum[j] += v
		}
	}
	return out
}

// AddRow adds the 1 x c row vector b to every row of m in place.
func AddRow(m *mat.Dense, b *mat.Dense) {
	r, _ := m.Dims()
	bias := b.RawRowView(0)
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j := range row {
			row[j] += bias[j]
		}
	}
}
