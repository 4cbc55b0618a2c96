// Package trainer provides the training orchestration for the graph networks:
// one closure for a gradient step, one for evaluation, and the timed loop
// that repeats epochs and reports running times.
package trainer
