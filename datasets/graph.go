package datasets

import "gonum.org/v1/gonum/mat"

// Graph is a node classification graph consumed whole by the network layers.
type Graph struct {
	// Features is the N x F node feature matrix.
	Features *mat.Dense

	// Labels holds the dense class id of every node.
	Labels []int

	// Src and Dst are the edge index, edge e goes from Src[e] to Dst[e].
	Src, Dst []int

	// Classes is the number of distinct labels.
	Classes int
}

// Nodes returns the number of nodes.
func (g *Graph) Nodes() int {
	return len(g.Labels)
}

// FeatureWidth returns the length of a node feature vector.
func (g *Graph) FeatureWidth() int {
	if g.Features == nil {
		return 0
	}
	_, c := g.Features.Dims()
	return c
}

// Edges returns the number of directed edge entries.
func (g *Graph) Edges() int {
	return len(g.Src)
}
