// Package main provides a program that trains a two layer graph network node
// classifier (GCN or GAT) on the Cora citation graph and reports the running time
// of the training loop. Without arguments it reads data/Cora/cora.content and
// data/Cora/cora.cites and runs the reference benchmark: 3 repetitions of 50
// epochs of a GAT, evaluating test accuracy every 10 epochs.
package main
