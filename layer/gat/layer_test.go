package gat

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/coragnn/layer"
)

func randomDense(r, c int, rng *rand.Rand) *mat.Dense {
	m := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

func numeric(f func() float64, v *float64) float64 {
	const eps = 1e-6
	orig := *v
	*v = orig + eps
	plus := f()
	*v = orig - eps
	minus := f()
	*v = orig
	return (plus - minus) / (2 * eps)
}

func testGraph() *layer.Adjacency {
	src := []int{0, 1, 1, 2, 2, 3, 3, 4, 0, 4, 0, 2}
	dst := []int{1, 0, 2, 1, 3, 2, 4, 3, 4, 0, 2, 0}
	return layer.NewAdjacency(5, src, dst)
}

func TestGradients(t *testing.T) {
	for _, opts := range []Options{
		{Heads: 3, Concat: true, Threads: 1},
		{Heads: 2, Concat: false, Threads: 2},
		{Heads: 1, Concat: true},
	} {
		rng := rand.New(rand.NewPCG(7, 8))
		l := New("gat", 3, 2, testGraph(), opts, rng)
		layer.Glorot(l.B.Value, 1, l.OutputWidth(), rng)
		x := randomDense(5, 3, rng)
		w := randomDense(5, l.OutputWidth(), rng)
		f := func() float64 {
			var m mat.Dense
			m.MulElem(l.Forward(x, false), w)
			return mat.Sum(&m)
		}

		for _, p := range l.Params() {
			p.ZeroGrad()
		}
		l.Forward(x, true)
		dx := l.Backward(w)
		require.NotNil(t, dx)

		for _, p := range l.Params() {
			data := p.Value.RawMatrix().Data
			grad := p.Grad.RawMatrix().Data
			for k := range data {
				assert.InDelta(t, numeric(f, &data[k]), grad[k], 1e-5, "%+v %s[%d]", opts, p.Name, k)
			}
		}
		xd := x.RawMatrix().Data
		dxd := dx.RawMatrix().Data
		for k := range xd {
			assert.InDelta(t, numeric(f, &xd[k]), dxd[k], 1e-5, "%+v x[%d]", opts, k)
		}
	}
}

func TestAttentionIsConvex(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 10))
	adj := testGraph()
	l := New("gat", 3, 2, adj, Options{Heads: 4, Concat: true}, rng)
	l.Forward(randomDense(5, 3, rng), false)
	edges := adj.Edges()
	for h := 0; h < 4; h++ {
		for i := 0; i < adj.N; i++ {
			sum := floats.Sum(l.alpha[h*edges+adj.Offsets[i] : h*edges+adj.Offsets[i+1]])
			assert.InDelta(t, 1, sum, 1e-12)
		}
	}
}

func TestDropoutOnlyWhileTraining(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	l := New("gat", 3, 2, testGraph(), Options{Heads: 2, Concat: true, Dropout: 0.6}, rng)
	x := randomDense(5, 3, rng)

	a := l.Forward(x, false)
	assert.Nil(t, l.keep)
	b := l.Forward(x, false)
	assert.True(t, mat.Equal(a, b))

	l.Forward(x, true)
	require.NotNil(t, l.keep)
	assert.Len(t, l.keep, 2*l.adj.Edges())
}

func TestShapes(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 14))
	concat := New("gat", 6, 8, testGraph(), Options{Heads: 8, Concat: true}, rng)
	r, c := concat.Forward(randomDense(5, 6, rng), false).Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 64, c)

	mean := New("gat", 64, 7, testGraph(), Options{Heads: 1}, rng)
	_, c = mean.Forward(randomDense(5, 64, rng), false).Dims()
	assert.Equal(t, 7, c)
}
