package layer

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ReLU is the rectified linear unit.
type ReLU struct {
	mask []bool
}

func (r *ReLU) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	r.mask = make([]bool, rows*cols)
	for i := 0; i < rows; i++ {
		src, dst := x.RawRowView(i), out.RawRowView(i)
		for j, v := range src {
			if v > 0 {
				dst[j] = v
				r.mask[i*cols+j] = true
			}
		}
	}
	return out
}

func (r *ReLU) Backward(dout *mat.Dense) *mat.Dense {
	rows, cols := dout.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src, dst := dout.RawRowView(i), dx.RawRowView(i)
		for j, v := range src {
			if r.mask[i*cols+j] {
				dst[j] = v
			}
		}
	}
	return dx
}

func (r *ReLU) Params() []*Param { return nil }

// Dropout zeroes inputs with probability P while training and scales the kept
// ones by 1/(1-P). It is the identity in evaluation mode.
type Dropout struct {
	P   float64
	Rng *rand.Rand

	scale []float64
}

func (d *Dropout) Forward(x *mat.Dense, train bool) *mat.Dense {
	if !train || d.P <= 0 {
		d.scale = nil
		return mat.DenseCopyOf(x)
	}
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	d.scale = DropoutMask(rows*cols, d.P, d.Rng)
	for i := 0; i < rows; i++ {
		floats.MulTo(out.RawRowView(i), x.RawRowView(i), d.scale[i*cols:(i+1)*cols])
	}
	return out
}

func (d *Dropout) Backward(dout *mat.Dense) *mat.Dense {
	if d.scale == nil {
		return mat.DenseCopyOf(dout)
	}
	rows, cols := dout.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		floats.MulTo(dx.RawRowView(i), dout.RawRowView(i), d.scale[i*cols:(i+1)*cols])
	}
	return dx
}

func (d *Dropout) Params() []*Param { return nil }

// DropoutMask returns n multipliers, each 0 with probability p and 1/(1-p) otherwise.
func DropoutMask(n int, p float64, rng *rand.Rand) []float64 {
	mask := make([]float64, n)
	if p >= 1 {
		return mask
	}
	keep := 1 / (1 - p)
	for i := range mask {
		if rng.Float64() >= p {
			mask[i] = keep
		}
	}
	return mask
}

// LogSoftmax normalizes every row into log-probabilities.
type LogSoftmax struct {
	out *mat.Dense
}

func (l *LogSoftmax) Forward(x *mat.Dense, train bool) *mat.Dense {
	rows, cols := x.Dims()
	l.out = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		src, dst := x.RawRowView(i), l.out.RawRowView(i)
		lse := floats.LogSumExp(src)
		for j, v := range src {
			dst[j] = v - lse
		}
	}
	return l.out
}

// Backward computes dx = dout - softmax * rowsum(dout).
func (l *LogSoftmax) Backward(dout *mat.Dense) *mat.Dense {
	rows, cols := dout.Dims()
	dx := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		g, logp, dst := dout.RawRowView(i), l.out.RawRowView(i), dx.RawRowView(i)
		sum := floats.Sum(g)
		for j := range dst {
			dst[j] = g[j] - math.Exp(logp[j])*sum
		}
	}
	return dx
}

func (l *LogSoftmax) Params() []*Param { return nil }

// NLLLoss returns the mean negative log-likelihood of labels over the rows in idx,
// and its gradient with respect to logp. Rows outside idx get zero gradient.
func NLLLoss(logp *mat.Dense, labels []int, idx []int) (float64, *mat.Dense) {
	rows, cols := logp.Dims()
	grad := mat.NewDense(rows, cols, nil)
	if len(idx) == 0 {
		return 0, grad
	}
	scale := 1 / float64(len(idx))
	var loss float64
	for _, i := range idx {
		loss -= logp.At(i, labels[i])
		grad.Set(i, labels[i], grad.At(i, labels[i])-scale)
	}
	return loss * scale, grad
}
