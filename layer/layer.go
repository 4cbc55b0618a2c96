// Package layer defines the layer interface and the building blocks shared by graph layers
package layer

import "gonum.org/v1/gonum/mat"

// Layer is one differentiable stage of a network.
type Layer interface {

	// Forward computes the layer output. The layer keeps whatever it needs for Backward.
	Forward(x *mat.Dense, train bool) *mat.Dense

	// Backward takes the gradient of the loss with respect to the last Forward output,
	// accumulates parameter gradients and returns the gradient with respect to the
	// input. It returns nil when the layer does not propagate to its input.
	Backward(dout *mat.Dense) *mat.Dense

	// Params returns the trainable parameters, nil if there are none.
	Params() []*Param
}

// Param is a trainable matrix and its gradient.
type Param struct {
	Name  string
	Value *mat.Dense
	Grad  *mat.Dense
}

// NewParam allocates a zero parameter of the given shape.
func NewParam(name string, r, c int) *Param {
	return &Param{
		Name:  name,
		Value: mat.NewDense(r, c, nil),
		Grad:  mat.NewDense(r, c, nil),
	}
}

// ZeroGrad resets the gradient.
func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// Accumulate adds g to the gradient.
func (p *Param) Accumulate(g mat.Matrix) {
	p.Grad.Add(p.Grad, g)
}
