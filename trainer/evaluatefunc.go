package trainer

import "github.com/neurlang/coragnn/datasets"
import "github.com/neurlang/coragnn/inference"
import "github.com/neurlang/coragnn/layer"
import "github.com/neurlang/coragnn/learning"
import "github.com/neurlang/coragnn/net/graphnet"

// Evaluation is the state of the model at an evaluation point.
type Evaluation struct {
	Repeat int
	Epoch  int

	// Loss is the training loss of the epoch that preceded the evaluation.
	Loss float64

	// TrainLoss is the negative log-likelihood of the training split in evaluation mode.
	TrainLoss float64

	TrainAcc float64
	ValAcc   float64
	TestAcc  float64
}

// NewEvaluateFunc returns a function which runs the network in evaluation mode
// and scores every split.
func NewEvaluateFunc(net graphnet.Model, labels []int, split *datasets.Split) func() Evaluation {
	return func() Evaluation {
		logp := net.Forward(false)
		pred := inference.Predict(logp)
		loss, _ := layer.NLLLoss(logp, labels, split.Train)
		return Evaluation{
			TrainLoss: loss,
			TrainAcc:  inference.Accuracy(pred, labels, split.Train),
			ValAcc:    inference.Accuracy(pred, labels, split.Val),
			TestAcc:   inference.Accuracy(pred, labels, split.Test),
		}
	}
}

// NewEpochFunc returns a function which performs one training epoch: a forward
// pass in training mode, the loss over the train indices only, the backward
// pass and one optimizer step. It returns the loss.
func NewEpochFunc(net graphnet.Model, opt *learning.Adam, labels []int, train []int) func() float64 {
	return func() float64 {
		opt.ZeroGrad()
		loss, dlogp := layer.NLLLoss(net.Forward(true), labels, train)
		net.Backward(dlogp)
		opt.Step()
		return loss
	}
}
