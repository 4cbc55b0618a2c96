// Package gat implements the multi-head graph attention layer
package gat

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/coragnn/layer"
	"github.com/neurlang/coragnn/parallel"
)

// DefaultNegativeSlope is the LeakyReLU slope applied to attention scores.
const DefaultNegativeSlope = 0.2

// Options configures a graph attention layer.
type Options struct {
	Heads int

	// Concat joins the head outputs, otherwise they are averaged.
	Concat bool

	// Dropout is the drop probability of the attention coefficients while training.
	Dropout float64

	NegativeSlope float64

	Threads     int
	NoInputGrad bool
}

// Layer is a graph attention layer over a fixed adjacency.
//
// Per head, x' = X W, the score of edge j -> i is LeakyReLU(x'_j·a_src + x'_i·a_dst),
// the scores are softmax normalized over the incoming edges of i and
// out_i = Σ_j α_ij x'_j.
type Layer struct {
	W      *layer.Param
	AttSrc *layer.Param
	AttDst *layer.Param
	B      *layer.Param

	adj   *layer.Adjacency
	heads int
	out   int
	opts  Options
	rng   *rand.Rand

	x     *mat.Dense
	xw    *mat.Dense
	score []float64 // pre-activation score, head major
	alpha []float64 // softmax coefficient before dropout
	keep  []float64 // dropout multiplier, nil in evaluation
}

// New creates an in -> out attention layer with opts.Heads heads.
func New(name string, in, out int, adj *layer.Adjacency, opts Options, rng *rand.Rand) *Layer {
	if opts.Heads <= 0 {
		opts.Heads = 1
	}
	if opts.NegativeSlope == 0 {
		opts.NegativeSlope = DefaultNegativeSlope
	}
	h := opts.Heads
	biasWidth := out
	if opts.Concat {
		biasWidth = h * out
	}
	l := &Layer{
		W:      layer.NewParam(name+".weight", in, h*out),
		AttSrc: layer.NewParam(name+".att_src", h, out),
		AttDst: layer.NewParam(name+".att_dst", h, out),
		B:      layer.NewParam(name+".bias", 1, biasWidth),
		adj:    adj,
		heads:  h,
		out:    out,
		opts:   opts,
		rng:    rng,
	}
	layer.Glorot(l.W.Value, in, h*out, rng)
	layer.Glorot(l.AttSrc.Value, h, out, rng)
	layer.Glorot(l.AttDst.Value, h, out, rng)
	return l
}

// OutputWidth is the number of output columns.
func (l *Layer) OutputWidth() int {
	if l.opts.Concat {
		return l.heads * l.out
	}
	return l.out
}

func (l *Layer) leaky(s float64) float64 {
	if s > 0 {
		return s
	}
	return l.opts.NegativeSlope * s
}

// headView returns the columns of head h in row i of m.
func (l *Layer) headView(m *mat.Dense, i, h int) []float64 {
	return m.RawRowView(i)[h*l.out : (h+1)*l.out]
}

func (l *Layer) Forward(x *mat.Dense, train bool) *mat.Dense {
	a := l.adj
	n, edges := a.N, a.Edges()
	l.x = x
	l.xw = mat.NewDense(n, l.heads*l.out, nil)
	l.xw.Mul(x, l.W.Value)

	l.score = make([]float64, l.heads*edges)
	l.alpha = make([]float64, l.heads*edges)
	l.keep = nil
	if train && l.opts.Dropout > 0 {
		l.keep = layer.DropoutMask(l.heads*edges, l.opts.Dropout, l.rng)
	}

	heads := mat.NewDense(n, l.heads*l.out, nil)
	parallel.ForEach(l.heads, l.opts.Threads, func(h int) {
		as, ad := l.attention(h)
		score := l.score[h*edges : (h+1)*edges]
		alpha := l.alpha[h*edges : (h+1)*edges]
		for i := 0; i < n; i++ {
			lo, hi := a.Offsets[i], a.Offsets[i+1]
			peak := math.Inf(-1)
			for e := lo; e < hi; e++ {
				score[e] = as[a.Sources[e]] + ad[i]
				alpha[e] = l.leaky(score[e])
				peak = math.Max(peak, alpha[e])
			}
			var sum float64
			for e := lo; e < hi; e++ {
				alpha[e] = math.Exp(alpha[e] - peak)
				sum += alpha[e]
			}
			dst := l.headView(heads, i, h)
			for e := lo; e < hi; e++ {
				alpha[e] /= sum
				floats.AddScaled(dst, alpha[e]*l.keepAt(h, e), l.headView(l.xw, a.Sources[e], h))
			}
		}
	})

	out := heads
	if !l.opts.Concat {
		out = mat.NewDense(n, l.out, nil)
		scale := 1 / float64(l.heads)
		for i := 0; i < n; i++ {
			row := out.RawRowView(i)
			for h := 0; h < l.heads; h++ {
				floats.AddScaled(row, scale, l.headView(heads, i, h))
			}
		}
	}
	layer.AddRow(out, l.B.Value)
	return out
}

// attention returns the source and destination attention terms of head h.
func (l *Layer) attention(h int) (as, ad []float64) {
	n := l.adj.N
	as, ad = make([]float64, n), make([]float64, n)
	src, dst := l.AttSrc.Value.RawRowView(h), l.AttDst.Value.RawRowView(h)
	for i := 0; i < n; i++ {
		v := l.headView(l.xw, i, h)
		as[i] = floats.Dot(v, src)
		ad[i] = floats.Dot(v, dst)
	}
	return as, ad
}

func (l *Layer) keepAt(h, e int) float64 {
	if l.keep == nil {
		return 1
	}
	return l.keep[h*l.adj.Edges()+e]
}

func (l *Layer) Backward(dout *mat.Dense) *mat.Dense {
	a := l.adj
	n, edges := a.N, a.Edges()
	l.B.Accumulate(layer.ColSums(dout))

	dheads := dout
	if !l.opts.Concat {
		dheads = mat.NewDense(n, l.heads*l.out, nil)
		scale := 1 / float64(l.heads)
		for i := 0; i < n; i++ {
			g := dout.RawRowView(i)
			for h := 0; h < l.heads; h++ {
				floats.AddScaled(l.headView(dheads, i, h), scale, g)
			}
		}
	}

	dxw := mat.NewDense(n, l.heads*l.out, nil)
	dsrc := mat.NewDense(l.heads, l.out, nil)
	ddst := mat.NewDense(l.heads, l.out, nil)
	parallel.ForEach(l.heads, l.opts.Threads, func(h int) {
		score := l.score[h*edges : (h+1)*edges]
		alpha := l.alpha[h*edges : (h+1)*edges]
		das, dad := make([]float64, n), make([]float64, n)
		dalpha := make([]float64, 0, 16)
		for i := 0; i < n; i++ {
			lo, hi := a.Offsets[i], a.Offsets[i+1]
			g := l.headView(dheads, i, h)
			dalpha = dalpha[:0]
			var dot float64
			for e := lo; e < hi; e++ {
				j := a.Sources[e]
				k := l.keepAt(h, e)
				floats.AddScaled(l.headView(dxw, j, h), alpha[e]*k, g)
				d := floats.Dot(g, l.headView(l.xw, j, h)) * k
				dalpha = append(dalpha, d)
				dot += alpha[e] * d
			}
			for e := lo; e < hi; e++ {
				ds := alpha[e] * (dalpha[e-lo] - dot)
				if score[e] <= 0 {
					ds *= l.opts.NegativeSlope
				}
				das[a.Sources[e]] += ds
				dad[i] += ds
			}
		}
		src, dst := l.AttSrc.Value.RawRowView(h), l.AttDst.Value.RawRowView(h)
		gsrc, gdst := dsrc.RawRowView(h), ddst.RawRowView(h)
		for j := 0; j < n; j++ {
			v := l.headView(l.xw, j, h)
			floats.AddScaled(gsrc, das[j], v)
			floats.AddScaled(gdst, dad[j], v)
			dv := l.headView(dxw, j, h)
			floats.AddScaled(dv, das[j], src)
			floats.AddScaled(dv, dad[j], dst)
		}
	})
	l.AttSrc.Accumulate(dsrc)
	l.AttDst.Accumulate(ddst)

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
	return []*layer.Param{l.W, l.AttSrc, l.AttDst, l.B}
}
