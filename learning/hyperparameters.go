// Package learning holds the training hyperparameters and the Adam optimizer
package learning

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Model kinds.
const (
	ModelGCN = "gcn"
	ModelGAT = "gat"
)

// HyperParameters configures a training run. The defaults reproduce the
// reference Cora benchmark.
type HyperParameters struct {
	Model string `yaml:"model" validate:"oneof=gcn gat"`

	DataDir     string `yaml:"data_dir" validate:"required"`
	ContentFile string `yaml:"content_file" validate:"required"`
	CitesFile   string `yaml:"cites_file" validate:"required"`

	// NormalizeFeatures scales every feature row to sum to one.
	NormalizeFeatures bool `yaml:"normalize_features"`

	Seed uint64 `yaml:"seed"`

	Epochs    int `yaml:"epochs" validate:"gt=0"`
	Repeats   int `yaml:"repeats" validate:"gt=0"`
	EvalEvery int `yaml:"eval_every" validate:"gte=0"` // 0 disables evaluation

	TrainSize int `yaml:"train_size" validate:"gt=0"`
	ValSize   int `yaml:"val_size" validate:"gte=0"`
	TestSize  int `yaml:"test_size" validate:"gt=0"`

	LearningRate float64 `yaml:"learning_rate" validate:"gt=0"`
	WeightDecay  float64 `yaml:"weight_decay" validate:"gte=0"`

	GCNHidden  int     `yaml:"gcn_hidden" validate:"gt=0"`
	GCNDropout float64 `yaml:"gcn_dropout" validate:"gte=0,lt=1"`

	GATHidden  int     `yaml:"gat_hidden" validate:"gt=0"`
	GATHeads   int     `yaml:"gat_heads" validate:"gt=0"`
	GATDropout float64 `yaml:"gat_dropout" validate:"gte=0,lt=1"`

	// Threads bounds the kernel fan-out, 0 means one per physical core.
	Threads int `yaml:"threads" validate:"gte=0"`
}

// Default returns the reference benchmark configuration.
func Default() HyperParameters {
	return HyperParameters{
		Model:        ModelGAT,
		DataDir:      "data/Cora",
		ContentFile:  "cora.content",
		CitesFile:    "cora.cites",
		Seed:         1234,
		Epochs:       50,
		Repeats:      3,
		EvalEvery:    10,
		TrainSize:    140,
		ValSize:      500,
		TestSize:     1000,
		LearningRate: 0.01,
		WeightDecay:  5e-4,
		GCNHidden:    16,
		GCNDropout:   0.5,
		GATHidden:    8,
		GATHeads:     8,
		GATDropout:   0.6,
		Threads:      1,
	}
}

var validate = validator.New()

// Validate checks the field constraints.
func (h *HyperParameters) Validate() error {
	return errors.Wrap(validate.Struct(h), "invalid hyperparameters")
}

// LoadFile overlays the YAML file name onto h. Keys missing from the file keep
// their current values.
func (h *HyperParameters) LoadFile(name string) error {
	buf, err := os.ReadFile(name)
	if err != nil {
		return errors.Wrap(err, "cannot read config")
	}
	if err := yaml.Unmarshal(buf, h); err != nil {
		return errors.Wrapf(err, "cannot parse config %s", name)
	}
	return nil
}
