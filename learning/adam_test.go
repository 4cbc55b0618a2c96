package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neurlang/coragnn/layer"
)

func TestAdamFirstStepIsLearningRate(t *testing.T) {
	p := layer.NewParam("w", 1, 2)
	p.Value.Set(0, 0, 1)
	p.Value.Set(0, 1, -1)
	p.Grad.Set(0, 0, 3)
	p.Grad.Set(0, 1, -0.001)

	a := NewAdam([]*layer.Param{p}, 0.01, 0)
	a.Step()
	assert.InDelta(t, 0.99, p.Value.At(0, 0), 1e-6)
	assert.InDelta(t, -0.99, p.Value.At(0, 1), 1e-6)
	assert.Equal(t, 1, a.Steps())
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	p := layer.NewParam("w", 1, 1)
	p.Value.Set(0, 0, 5)
	a := NewAdam([]*layer.Param{p}, 0.1, 0)
	for i := 0; i < 500; i++ {
		a.ZeroGrad()
		x := p.Value.At(0, 0)
		p.Grad.Set(0, 0, 2*(x-2))
		a.Step()
	}
	assert.InDelta(t, 2, p.Value.At(0, 0), 1e-2)
}

func TestAdamWeightDecayShrinks(t *testing.T) {
	p := layer.NewParam("w", 1, 1)
	p.Value.Set(0, 0, 1)
	a := NewAdam([]*layer.Param{p}, 0.01, 0.5)
	a.Step()
	assert.Less(t, p.Value.At(0, 0), 1.0)
}
