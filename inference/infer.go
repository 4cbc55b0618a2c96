// Package inference turns network log-probabilities into class predictions
package inference

import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

// Predict returns the arg max class of every row, the lowest class on ties.
func Predict(logp mat.Matrix) []int {
	r, _ := logp.Dims()
	pred := make([]int, r)
	dense, ok := logp.(*mat.Dense)
	if !ok {
		dense = mat.DenseCopyOf(logp)
	}
	for i := range pred {
		pred[i] = floats.MaxIdx(dense.RawRowView(i))
	}
	return pred
}

// Accuracy returns the fraction of idx whose prediction equals the label, 0 for an empty idx.
func Accuracy(pred, labels, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var correct int
	for _, i := range idx {
		if pred[i] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(idx))
}
