package learning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	h := Default()
	require.NoError(t, h.Validate())
	assert.Equal(t, ModelGAT, h.Model)
	assert.Equal(t, 140+500+1000, h.TrainSize+h.ValSize+h.TestSize)
}

func TestValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*HyperParameters){
		"model":   func(h *HyperParameters) { h.Model = "mlp" },
		"epochs":  func(h *HyperParameters) { h.Epochs = 0 },
		"dropout": func(h *HyperParameters) { h.GATDropout = 1 },
		"lr":      func(h *HyperParameters) { h.LearningRate = 0 },
		"data":    func(h *HyperParameters) { h.DataDir = "" },
	} {
		t.Run(name, func(t *testing.T) {
			h := Default()
			mutate(&h)
			assert.Error(t, h.Validate())
		})
	}
}

func TestLoadFileOverlays(t *testing.T) {
	name := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(name, []byte("model: gcn\nepochs: 200\nlearning_rate: 0.005\n"), 0o644))

	h := Default()
	require.NoError(t, h.LoadFile(name))
	assert.Equal(t, ModelGCN, h.Model)
	assert.Equal(t, 200, h.Epochs)
	assert.Equal(t, 0.005, h.LearningRate)
	assert.Equal(t, 3, h.Repeats)
	require.NoError(t, h.Validate())
}

func TestLoadFileErrors(t *testing.T) {
	h := Default()
	assert.Error(t, h.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	name := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(name, []byte("epochs: [1, 2\n"), 0o644))
	assert.Error(t, h.LoadFile(name))
}
