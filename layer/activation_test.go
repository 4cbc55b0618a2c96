package layer

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestLogSoftmaxRowsNormalize(t *testing.T) {
	var l LogSoftmax
	out := l.Forward(mat.NewDense(2, 3, []float64{1, 2, 3, -100, 0, 100}), false)
	for i := 0; i < 2; i++ {
		var sum float64
		for _, v := range out.RawRowView(i) {
			sum += math.Exp(v)
		}
		assert.InDelta(t, 1, sum, 1e-12)
	}
}

func TestLogSoftmaxNLLGradient(t *testing.T) {
	x := mat.NewDense(3, 4, []float64{0.1, -0.2, 0.3, 0.5, 1, 2, -1, 0, 0, 0, 0, 0})
	labels := []int{3, 0, 2}
	idx := []int{0, 1}

	var l LogSoftmax
	f := func() float64 {
		loss, _ := NLLLoss(l.Forward(x, false), labels, idx)
		return loss
	}
	_, dlogp := NLLLoss(l.Forward(x, true), labels, idx)
	dx := l.Backward(dlogp)

	data := x.RawMatrix().Data
	for k := range data {
		const eps = 1e-6
		orig := data[k]
		data[k] = orig + eps
		plus := f()
		data[k] = orig - eps
		minus := f()
		data[k] = orig
		assert.InDelta(t, (plus-minus)/(2*eps), dx.RawMatrix().Data[k], 1e-6, "x[%d]", k)
	}
	assert.Equal(t, []float64{0, 0, 0, 0}, dx.RawRowView(2))
}

func TestNLLLossEmpty(t *testing.T) {
	loss, grad := NLLLoss(mat.NewDense(1, 2, []float64{-1, -2}), []int{0}, nil)
	assert.Zero(t, loss)
	assert.Zero(t, mat.Sum(grad))
}

func TestReLU(t *testing.T) {
	var r ReLU
	out := r.Forward(mat.NewDense(1, 4, []float64{-1, 0, 2, 3}), true)
	assert.Equal(t, []float64{0, 0, 2, 3}, out.RawRowView(0))
	dx := r.Backward(mat.NewDense(1, 4, []float64{1, 1, 1, 1}))
	assert.Equal(t, []float64{0, 0, 1, 1}, dx.RawRowView(0))
	assert.Nil(t, r.Params())
}

func TestDropout(t *testing.T) {
	d := Dropout{P: 0.5, Rng: rand.New(rand.NewPCG(1, 1))}
	ones := mat.NewDense(100, 100, nil)
	for i := 0; i < 100; i++ {
		floats.AddConst(1, ones.RawRowView(i))
	}

	eval := d.Forward(ones, false)
	assert.True(t, mat.Equal(ones, eval))

	out := d.Forward(ones, true)
	zero := 0
	for _, v := range out.RawMatrix().Data {
		if v == 0 {
			zero++
		} else {
			require.Equal(t, 2.0, v)
		}
	}
	assert.InDelta(t, 5000, zero, 500)

	dx := d.Backward(ones)
	assert.True(t, mat.Equal(out, dx))
}

func TestDropoutMaskAllDropped(t *testing.T) {
	m := DropoutMask(10, 1, rand.New(rand.NewPCG(1, 1)))
	assert.Equal(t, make([]float64, 10), m)
}

func TestParamAccumulate(t *testing.T) {
	p := NewParam("w", 1, 2)
	p.Accumulate(mat.NewDense(1, 2, []float64{1, 2}))
	p.Accumulate(mat.NewDense(1, 2, []float64{1, 2}))
	assert.Equal(t, []float64{2, 4}, p.Grad.RawRowView(0))
	p.ZeroGrad()
	assert.Equal(t, []float64{0, 0}, p.Grad.RawRowView(0))
}
