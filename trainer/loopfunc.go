package trainer

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Report summarizes a timed training run.
type Report struct {
	Durations   []time.Duration
	Mean        time.Duration
	StdDev      time.Duration
	Evaluations []Evaluation
}

// LastEvaluation returns the most recent evaluation, false if none was made.
func (r *Report) LastEvaluation() (Evaluation, bool) {
	if len(r.Evaluations) == 0 {
		return Evaluation{}, false
	}
	return r.Evaluations[len(r.Evaluations)-1], true
}

// Schedule is the fixed training protocol.
type Schedule struct {
	Repeats int
	Epochs  int

	// EvalEvery evaluates after every EvalEvery-th epoch, never when 0.
	EvalEvery int
}

// NewLoopFunc returns the timed training loop. For every repetition it runs the
// scheduled epochs, evaluating periodically, and prints the running time of the
// repetition to out; the mean running time is printed last. The model keeps
// training across repetitions. Cancellation is checked between epochs.
func NewLoopFunc(s Schedule, epoch func() float64, evaluate func() Evaluation, logger *zap.Logger, out io.Writer) func(ctx context.Context) (*Report, error) {
	return func(ctx context.Context) (*Report, error) {
		report := new(Report)
		for repeat := 0; repeat < s.Repeats; repeat++ {
			start := time.Now()
			for e := 1; e <= s.Epochs; e++ {
				if err := ctx.Err(); err != nil {
					return report, err
				}
				loss := epoch()
				logger.Debug("epoch", zap.Int("repeat", repeat), zap.Int("epoch", e), zap.Float64("loss", loss))

				if s.EvalEvery > 0 && e%s.EvalEvery == 0 {
					ev := evaluate()
					ev.Repeat, ev.Epoch, ev.Loss = repeat, e, loss
					report.Evaluations = append(report.Evaluations, ev)
					logger.Debug("evaluation",
						zap.Int("repeat", repeat),
						zap.Int("epoch", e),
						zap.Float64("loss", loss),
						zap.Float64("train_acc", ev.TrainAcc),
						zap.Float64("val_acc", ev.ValAcc),
						zap.Float64("test_acc", ev.TestAcc),
					)
				}
			}
			duration := time.Since(start)
			report.Durations = append(report.Durations, duration)
			fmt.Fprintf(out, "Running time: %s Seconds\n", seconds(duration))
		}
		report.Mean, report.StdDev = summarize(report.Durations)
		if len(report.Durations) > 0 {
			fmt.Fprintf(out, "Mean running time: %s Seconds\n", seconds(report.Mean))
		}
		return report, nil
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func summarize(durations []time.Duration) (mean, stddev time.Duration) {
	if len(durations) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(durations))
	for i, d := range durations {
		xs[i] = float64(d)
	}
	m, sd := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 || math.IsNaN(sd) {
		sd = 0
	}
	return time.Duration(m), time.Duration(sd)
}
