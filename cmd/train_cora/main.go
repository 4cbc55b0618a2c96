package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neurlang/coragnn/datasets"
	"github.com/neurlang/coragnn/datasets/cora"
	"github.com/neurlang/coragnn/device"
	"github.com/neurlang/coragnn/learning"
	"github.com/neurlang/coragnn/net/graphnet"
	"github.com/neurlang/coragnn/trainer"
)

type options struct {
	config     string
	dstmodel   string
	resume     bool
	logLevel   string
	cpuprofile string
	h          learning.HyperParameters
}

func main() {
	if err := newCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand(out io.Writer) *cobra.Command {
	o := &options{h: learning.Default()}
	cmd := &cobra.Command{
		Use:           "train_cora",
		Short:         "Train a GCN or GAT node classifier on Cora and time the training loop",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := o.resolve(cmd)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			logger, err := newLogger(o.logLevel)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			defer logger.Sync()
			logger = logger.With(zap.String("run_id", uuid.NewString()))

			stop, err := startProfile(o.cpuprofile)
			if err != nil {
				logger.Error("profile", zap.Error(err))
				return err
			}
			defer stop()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := run(ctx, h, o, logger, out); err != nil {
				logger.Error("training failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.config, "config", "", "YAML file with hyperparameters")
	f.StringVar(&o.dstmodel, "dstmodel", "", "write the trained weights to this file")
	f.BoolVar(&o.resume, "resume", false, "load the weights in --dstmodel before training")
	f.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&o.cpuprofile, "cpuprofile", "", "write a CPU profile to this file")
	f.StringVar(&o.h.Model, "model", o.h.Model, "network: gcn or gat")
	f.StringVar(&o.h.DataDir, "data", o.h.DataDir, "directory with the content and cites files")
	f.IntVar(&o.h.Epochs, "epochs", o.h.Epochs, "epochs per repetition")
	f.IntVar(&o.h.Repeats, "repeats", o.h.Repeats, "timed repetitions")
	f.IntVar(&o.h.EvalEvery, "eval-every", o.h.EvalEvery, "evaluate every n epochs, 0 disables")
	f.Uint64Var(&o.h.Seed, "seed", o.h.Seed, "seed of the split and the initialization")
	f.IntVar(&o.h.Threads, "threads", o.h.Threads, "kernel threads, 0 for one per physical core")
	f.BoolVar(&o.h.NormalizeFeatures, "normalize", o.h.NormalizeFeatures, "row normalize the node features")
	return cmd
}

// resolve layers the defaults, the config file and the flags set explicitly.
func (o *options) resolve(cmd *cobra.Command) (learning.HyperParameters, error) {
	h := learning.Default()
	if o.config != "" {
		if err := h.LoadFile(o.config); err != nil {
			return h, err
		}
	}
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("model", func() { h.Model = o.h.Model })
	set("data", func() { h.DataDir = o.h.DataDir })
	set("epochs", func() { h.Epochs = o.h.Epochs })
	set("repeats", func() { h.Repeats = o.h.Repeats })
	set("eval-every", func() { h.EvalEvery = o.h.EvalEvery })
	set("seed", func() { h.Seed = o.h.Seed })
	set("threads", func() { h.Threads = o.h.Threads })
	set("normalize", func() { h.NormalizeFeatures = o.h.NormalizeFeatures })
	return h, h.Validate()
}

func run(ctx context.Context, h learning.HyperParameters, o *options, logger *zap.Logger, out io.Writer) error {
	info := device.Describe()
	threads := device.Threads(h.Threads)
	logger.Info("device",
		zap.String("cpu", info.Brand),
		zap.Int("physical_cores", info.PhysicalCores),
		zap.Bool("avx2", info.AVX2),
		zap.Bool("avx512", info.AVX512),
		zap.Int("threads", threads),
	)

	d, err := cora.Load(h.DataDir, h.ContentFile, h.CitesFile)
	if err != nil {
		return err
	}
	g := d.Graph(h.NormalizeFeatures)
	logger.Info("dataset",
		zap.Int("nodes", g.Nodes()),
		zap.Int("features", g.FeatureWidth()),
		zap.Int("edges", g.Edges()),
		zap.Strings("classes", d.ClassNames),
	)

	split, err := datasets.NewSplit(g.Nodes(), datasets.SplitSizes{Train: h.TrainSize, Val: h.ValSize, Test: h.TestSize}, h.Seed)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(h.Seed, h.Seed+1))
	net, err := graphnet.New(h.Model, g, h, threads, rng)
	if err != nil {
		return err
	}
	if err := trainer.Resume(net, o.resume, o.dstmodel); err != nil {
		return err
	}
	logger.Info("model", zap.String("name", net.Name()), zap.Int("parameters", net.Len()))

	opt := learning.NewAdam(net.Params(), h.LearningRate, h.WeightDecay)
	loop := trainer.NewLoopFunc(
		trainer.Schedule{Repeats: h.Repeats, Epochs: h.Epochs, EvalEvery: h.EvalEvery},
		trainer.NewEpochFunc(net, opt, g.Labels, split.Train),
		trainer.NewEvaluateFunc(net, g.Labels, split),
		logger, out)
	report, err := loop(ctx)
	if err != nil {
		return errors.Wrap(err, "training interrupted")
	}

	fields := []zap.Field{zap.Duration("mean", report.Mean), zap.Duration("stddev", report.StdDev)}
	if ev, ok := report.LastEvaluation(); ok {
		fields = append(fields, zap.Float64("val_acc", ev.ValAcc), zap.Float64("test_acc", ev.TestAcc))
	}
	logger.Info("done", fields...)

	return trainer.Save(net, o.dstmodel)
}
