package layer

import "math"

// Adjacency is a compressed view of an edge list grouped by destination node.
// Self loops of the input are dropped and exactly one self loop per node is
// appended as the last incoming edge of that node.
//
// Incoming edges of node i are Sources[Offsets[i]:Offsets[i+1]], and the edge id
// of such an entry is its position in Sources. Outgoing edges of node j are the
// edge ids OutEdges[OutOffsets[j]:OutOffsets[j+1]].
type Adjacency struct {
	N int

	Offsets []int
	Sources []int
	Targets []int

	OutOffsets []int
	OutEdges   []int
}

// NewAdjacency builds the adjacency of n nodes from the edge index src -> dst.
func NewAdjacency(n int, src, dst []int) *Adjacency {
	if len(src) != len(dst) {
		panic("layer: edge index length mismatch")
	}
	a := &Adjacency{N: n, Offsets: make([]int, n+1), OutOffsets: make([]int, n+1)}

	// counting sort by destination, original order kept within a node
	for e := range src {
		if src[e] == dst[e] {
			continue
		}
		a.Offsets[dst[e]+1]++
	}
	for i := 0; i < n; i++ {
		a.Offsets[i+1] += a.Offsets[i] + 1
	}
	edges := a.Offsets[n]
	a.Sources = make([]int, edges)
	a.Targets = make([]int, edges)
	fill := make([]int, n)
	copy(fill, a.Offsets[:n])
	for e := range src {
		if src[e] == dst[e] {
			continue
		}
		a.Sources[fill[dst[e]]] = src[e]
		a.Targets[fill[dst[e]]] = dst[e]
		fill[dst[e]]++
	}
	for i := 0; i < n; i++ {
		a.Sources[fill[i]] = i
		a.Targets[fill[i]] = i
	}

	for e := 0; e < edges; e++ {
		a.OutOffsets[a.Sources[e]+1]++
	}
	for j := 0; j < n; j++ {
		a.OutOffsets[j+1] += a.OutOffsets[j]
	}
	a.OutEdges = make([]int, edges)
	copy(fill, a.OutOffsets[:n])
	for e := 0; e < edges; e++ {
		j := a.Sources[e]
		a.OutEdges[fill[j]] = e
		fill[j]++
	}
	return a
}

// Edges returns the number of edges including self loops.
func (a *Adjacency) Edges() int {
	return len(a.Sources)
}

// InDegree returns the number of incoming edges of node i, self loop included.
func (a *Adjacency) InDegree(i int) int {
	return a.Offsets[i+1] - a.Offsets[i]
}

// SymmetricNorm returns D^-1/2 (A+I) D^-1/2 edge coefficients, degrees counted on
// the destination side.
func (a *Adjacency) SymmetricNorm() []float64 {
	inv := make([]float64, a.N)
	for i := range inv {
		inv[i] = 1 / math.Sqrt(float64(a.InDegree(i)))
	}
	coef := make([]float64, a.Edges())
	for e := range coef {
		coef[e] = inv[a.Sources[e]] * inv[a.Targets[e]]
	}
	return coef
}
