// Package cora implements the Cora citation graph machine learning Dataset
package cora

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/coragnn/datasets"
)

// Default file locations, relative to the working directory.
const (
	DefaultDir     = "data/Cora"
	ContentFile    = "cora.content"
	CitesFile      = "cora.cites"
	maxLineLength  = 1 << 20
	minContentCols = 2
)

// Node is one paper of the content file.
type Node struct {
	ID       int
	Features []float64
	Label    string
}

// Dataset is the parsed Cora dataset.
type Dataset struct {
	Nodes []Node

	// Index maps original paper ids to dense indices, in first-seen order.
	Index map[int]int

	// Classes maps label strings to dense class ids, in first-seen order.
	Classes    map[string]int
	ClassNames []string

	// Src and Dst hold the symmetrized edge list in dense indices.
	Src, Dst []int

	width int
}

// New returns an empty dataset.
func New() *Dataset {
	return &Dataset{
		Index:   make(map[int]int),
		Classes: make(map[string]int),
		width:   -1,
	}
}

// Load reads the content and cites files found in dir.
func Load(dir, contentFile, citesFile string) (*Dataset, error) {
	d := New()
	if err := d.loadFile(filepath.Join(dir, contentFile), d.LoadContent); err != nil {
		return nil, err
	}
	if err := d.loadFile(filepath.Join(dir, citesFile), d.LoadCites); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dataset) loadFile(name string, parse func(io.Reader) error) error {
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "cannot open dataset file")
	}
	defer f.Close()
	if err := parse(f); err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	return nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineLength)
	return s
}

// LoadContent parses "<id> <feature>... <label>" lines.
func (d *Dataset) LoadContent(r io.Reader) error {
	s := newScanner(r)
	for line := 1; s.Scan(); line++ {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < minContentCols {
			return errors.Errorf("line %d: expected id, features and label, got %d fields", line, len(fields))
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return errors.Wrapf(err, "line %d: bad node id", line)
		}
		if _, dup := d.Index[id]; dup {
			return errors.Errorf("line %d: duplicate node id %d", line, id)
		}
		raw := fields[1 : len(fields)-1]
		if d.width < 0 {
			d.width = len(raw)
		} else if len(raw) != d.width {
			return errors.Errorf("line %d: expected %d features, got %d", line, d.width, len(raw))
		}
		features := make([]float64, len(raw))
		for i, v := range raw {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "line %d: bad feature %d", line, i)
			}
			features[i] = float64(n)
		}
		label := fields[len(fields)-1]
		if _, ok := d.Classes[label]; !ok {
			d.Classes[label] = len(d.ClassNames)
			d.ClassNames = append(d.ClassNames, label)
		}
		d.Index[id] = len(d.Nodes)
		d.Nodes = append(d.Nodes, Node{ID: id, Features: features, Label: label})
	}
	return errors.Wrap(s.Err(), "reading content")
}

// LoadCites parses "<cited> <citing>" lines. Every line adds the edge in both
// directions, since the graph is treated as undirected.
func (d *Dataset) LoadCites(r io.Reader) error {
	s := newScanner(r)
	for line := 1; s.Scan(); line++ {
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return errors.Errorf("line %d: expected 2 ids, got %d fields", line, len(fields))
		}
		var ends [2]int
		for i, f := range fields {
			id, err := strconv.Atoi(f)
			if err != nil {
				return errors.Wrapf(err, "line %d: bad node id", line)
			}
			idx, ok := d.Index[id]
			if !ok {
				return errors.Errorf("line %d: node id %d not in content", line, id)
			}
			ends[i] = idx
		}
		d.Src = append(d.Src, ends[0], ends[1])
		d.Dst = append(d.Dst, ends[1], ends[0])
	}
	return errors.Wrap(s.Err(), "reading cites")
}

// Labels returns the class id of every node.
func (d *Dataset) Labels() []int {
	labels := make([]int, len(d.Nodes))
	for i, n := range d.Nodes {
		labels[i] = d.Classes[n.Label]
	}
	return labels
}

// Graph builds the feature matrix, labels and edge index. When normalize is set
// every nonzero feature row is scaled to sum to one.
func (d *Dataset) Graph(normalize bool) *datasets.Graph {
	width := max(d.width, 0)
	var x *mat.Dense
	if len(d.Nodes) > 0 && width > 0 {
		x = mat.NewDense(len(d.Nodes), width, nil)
		for i, n := range d.Nodes {
			row := x.RawRowView(i)
			copy(row, n.Features)
			if normalize {
				if sum := floats.Sum(row); sum != 0 {
					floats.Scale(1/sum, row)
				}
			}
		}
	}
	return &datasets.Graph{
		Features: x,
		Labels:   d.Labels(),
		Src:      append([]int(nil), d.Src...),
		Dst:      append([]int(nil), d.Dst...),
		Classes:  len(d.ClassNames),
	}
}
