package trainer

import (
	"bytes"
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/coragnn/datasets"
	"github.com/neurlang/coragnn/learning"
	"github.com/neurlang/coragnn/net/graphnet"
)

func chainGraph(n int) *datasets.Graph {
	g := &datasets.Graph{
		Features: mat.NewDense(n, 3, nil),
		Labels:   make([]int, n),
		Classes:  3,
	}
	for i := 0; i < n; i++ {
		g.Labels[i] = i * 3 / n
		g.Features.Set(i, g.Labels[i], 1)
		if i > 0 {
			g.Src = append(g.Src, i-1, i)
			g.Dst = append(g.Dst, i, i-1)
		}
	}
	return g
}

func TestTrainingRun(t *testing.T) {
	g := chainGraph(30)
	split, err := datasets.NewSplit(g.Nodes(), datasets.SplitSizes{Train: 9, Val: 6, Test: 10}, 1234)
	require.NoError(t, err)

	for _, kind := range []string{learning.ModelGCN, learning.ModelGAT} {
		h := learning.Default()
		h.Model = kind
		h.Epochs = 20
		h.Repeats = 2
		h.EvalEvery = 5
		rng := rand.New(rand.NewPCG(h.Seed, h.Seed))
		net, err := graphnet.New(kind, g, h, 1, rng)
		require.NoError(t, err)
		opt := learning.NewAdam(net.Params(), h.LearningRate, h.WeightDecay)

		var out bytes.Buffer
		loop := NewLoopFunc(Schedule{Repeats: h.Repeats, Epochs: h.Epochs, EvalEvery: h.EvalEvery},
			NewEpochFunc(net, opt, g.Labels, split.Train),
			NewEvaluateFunc(net, g.Labels, split),
			zap.NewNop(), &out)
		report, err := loop(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 40, opt.Steps())
		require.Len(t, report.Evaluations, 8)
		for _, ev := range report.Evaluations {
			for _, acc := range []float64{ev.TrainAcc, ev.ValAcc, ev.TestAcc} {
				assert.GreaterOrEqual(t, acc, 0.0)
				assert.LessOrEqual(t, acc, 1.0)
			}
		}
		assert.Less(t, report.Evaluations[7].TrainLoss, report.Evaluations[0].TrainLoss, kind)
	}
}

type fakeWeights struct {
	read, written string
}

func (f *fakeWeights) ReadZlibWeightsFromFile(name string) error {
	f.read = name
	return nil
}

func (f *fakeWeights) WriteZlibWeightsToFile(name string) error {
	f.written = name
	return nil
}

func TestResumeAndSave(t *testing.T) {
	var f fakeWeights
	require.NoError(t, Resume(&f, false, "model.z"))
	assert.Empty(t, f.read)
	require.NoError(t, Resume(&f, true, "model.z"))
	assert.Equal(t, "model.z", f.read)
	assert.Error(t, Resume(&f, true, ""))

	require.NoError(t, Save(&f, ""))
	assert.Empty(t, f.written)
	require.NoError(t, Save(&f, "out.z"))
	assert.Equal(t, "out.z", f.written)
}
