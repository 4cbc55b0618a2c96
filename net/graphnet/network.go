// Package graphnet assembles graph layers into the two node classification networks
package graphnet

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/coragnn/datasets"
	"github.com/neurlang/coragnn/layer"
	"github.com/neurlang/coragnn/layer/gat"
	"github.com/neurlang/coragnn/layer/gcn"
	"github.com/neurlang/coragnn/learning"
)

// Model is a network producing per node class log-probabilities.
type Model interface {
	Name() string

	// Forward runs the whole graph through the network and returns N x C log-probabilities.
	Forward(train bool) *mat.Dense

	// Backward propagates the gradient of the loss with respect to the last Forward output.
	Backward(dlogp *mat.Dense)

	Params() []*layer.Param
}

// Network is a stack of layers over a fixed graph.
type Network struct {
	name   string
	x      *mat.Dense
	layers []layer.Layer
}

// New builds the network kind ("gcn" or "gat") for graph g.
func New(kind string, g *datasets.Graph, h learning.HyperParameters, threads int, rng *rand.Rand) (*Network, error) {
	if g.Features == nil || g.Nodes() == 0 {
		return nil, errors.New("graph has no node features")
	}
	if g.Classes < 1 {
		return nil, errors.New("graph has no classes")
	}
	adj := layer.NewAdjacency(g.Nodes(), g.Src, g.Dst)
	switch kind {
	case learning.ModelGCN:
		return NewGCN(g, adj, h.GCNHidden, h.GCNDropout, threads, rng), nil
	case learning.ModelGAT:
		return NewGAT(g, adj, h.GATHidden, h.GATHeads, h.GATDropout, threads, rng), nil
	}
	return nil, errors.Errorf("unknown model %q", kind)
}

// NewGCN is GCN(F, hidden) -> ReLU -> Dropout -> GCN(hidden, C) -> LogSoftmax.
func NewGCN(g *datasets.Graph, adj *layer.Adjacency, hidden int, dropout float64, threads int, rng *rand.Rand) *Network {
	return &Network{
		name: learning.ModelGCN,
		x:    g.Features,
		layers: []layer.Layer{
			gcn.MustNew("GCN1", g.FeatureWidth(), hidden, adj, g.Nodes(), gcn.Options{Threads: threads, NoInputGrad: true}, rng),
			&layer.ReLU{},
			&layer.Dropout{P: dropout, Rng: rng},
			gcn.MustNew("GCN2", hidden, g.Classes, adj, g.Nodes(), gcn.Options{Threads: threads}, rng),
			&layer.LogSoftmax{},
		},
	}
}

// NewGAT is GAT(F, hidden, heads, concat) -> ReLU -> GAT(hidden*heads, C) -> LogSoftmax,
// with attention dropout in both attention layers.
func NewGAT(g *datasets.Graph, adj *layer.Adjacency, hidden, heads int, dropout float64, threads int, rng *rand.Rand) *Network {
	return &Network{
		name: learning.ModelGAT,
		x:    g.Features,
		layers: []layer.Layer{
			gat.New("GAT1", g.FeatureWidth(), hidden, adj, gat.Options{
				Heads:       heads,
				Concat:      true,
				Dropout:     dropout,
				Threads:     threads,
				NoInputGrad: true,
			}, rng),
			&layer.ReLU{},
			gat.New("GAT2", hidden*heads, g.Classes, adj, gat.Options{
				Heads:   1,
				Concat:  true,
				Dropout: dropout,
				Threads: threads,
			}, rng),
			&layer.LogSoftmax{},
		},
	}
}

func (n *Network) Name() string {
	return n.name
}

func (n *Network) Forward(train bool) *mat.Dense {
	h := n.x
	for _, l := range n.layers {
		h = l.Forward(h, train)
	}
	return h
}

func (n *Network) Backward(dlogp *mat.Dense) {
	g := dlogp
	for i := len(n.layers) - 1; i >= 0 && g != nil; i-- {
		g = n.layers[i].Backward(g)
	}
}

func (n *Network) Params() (params []*layer.Param) {
	for _, l := range n.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// Len returns the number of trainable scalars.
func (n *Network) Len() (o int) {
	for _, p := range n.Params() {
		r, c := p.Value.Dims()
		o += r * c
	}
	return
}
