// Package gcn implements the graph convolution layer out = D^-1/2 (A+I) D^-1/2 X W + b
package gcn

import "math/rand/v2"

import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/coragnn/layer"
import "github.com/neurlang/coragnn/parallel"

// Options configures a graph convolution layer.
type Options struct {
	// Threads bounds the fan-out of the aggregation kernels.
	Threads int

	// NoInputGrad skips computing the gradient of the input, for first layers.
	NoInputGrad bool
}

// Layer is a graph convolution over a fixed adjacency.
type Layer struct {
	W *layer.Param
	B *layer.Param

	adj  *layer.Adjacency
	coef []float64
	opts Options

	x *mat.Dense
}

// New creates an in -> out graph convolution, W Glorot initialized and b zero.
func New(name string, in, out int, adj *layer.Adjacency, opts Options, rng *rand.Rand) *Layer {
	l := &Layer{
		W:    layer.NewParam(name+".weight", in, out),
		B:    layer.NewParam(name+".bias", 1, out),
		adj:  adj,
		coef: adj.SymmetricNorm(),
		opts: opts,
	}
	layer.Glorot(l.W.Value, in, out, rng)
	return l
}

// MustNew is like New but checks the adjacency against the expected node count.
func MustNew(name string, in, out int, adj *layer.Adjacency, nodes int, opts Options, rng *rand.Rand) *Layer {
	if adj.N != nodes {
		panic("gcn: adjacency does not match node count")
	}
	return New(name, in, out, adj, opts, rng)
}

func (l *Layer) Forward(x *mat.Dense, train bool) *mat.Dense {
	l.x = x
	rows, _ := x.Dims()
	_, out := l.W.Value.Dims()

	xw := mat.NewDense(rows, out, nil)
	xw.Mul(x, l.W.Value)

	h := mat.NewDense(rows, out, nil)
	l.propagate(h, xw, false)
	layer.AddRow(h, l.B.Value)
	return h
}

// propagate computes dst = Â src, or dst = Âᵀ src when transpose is set.
func (l *Layer) propagate(dst, src *mat.Dense, transpose bool) {
	a := l.adj
	parallel.ForRange(a.N, l.opts.Threads, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			row := dst.RawRowView(i)
			if transpose {
				for _, e := range a.OutEdges[a.OutOffsets[i]:a.OutOffsets[i+1]] {
					floats.AddScaled(row, l.coef[e], src.RawRowView(a.Targets[e]))
				}
				continue
			}
			for e := a.Offsets[i]; e < a.Offsets[i+1]; e++ {
				floats.AddScaled(row, l.coef[e], src.RawRowView(a.Sources[e]))
			}
		}
	})
}

func (l *Layer) Backward(dout *mat.Dense) *mat.Dense {
	rows, out := dout.Dims()
	l.B.Accumulate(layer.ColSums(dout))

	dxw := mat.NewDense(rows, out, nil)
	l.propagate(dxw, dout, true)

	var dw mat.Dense
	dw.Mul(l.x.T(), dxw)
	l.W.Accumulate(&dw)

	if l.opts.NoInputGrad {
		return nil
	}
	var dx mat.Dense
	dx.Mul(dxw, l.W.Value.T())
	return &dx
}

func (l *Layer) Params() []*layer.Param {
	return []*layer.Param{l.W, l.B}
}
