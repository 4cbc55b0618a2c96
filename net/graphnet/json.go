package graphnet

import "compress/zlib"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"

type jsonParam struct {
	Name string    `json:"name"`
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// WriteZlibWeightsToFile writes model weights to a zlib file
func (n *Network) WriteZlibWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "cannot create weights file")
	}
	err = n.WriteZlibWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteZlibWeights writes model weights as a zlib compressed JSON list
func (n *Network) WriteZlibWeights(w io.Writer) error {
	var list []jsonParam
	for _, p := range n.Params() {
		r, c := p.Value.Dims()
		data := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			data = append(data, p.Value.RawRowView(i)...)
		}
		list = append(list, jsonParam{Name: p.Name, Rows: r, Cols: c, Data: data})
	}
	zw := zlib.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(list); err != nil {
		zw.Close()
		return errors.Wrap(err, "cannot encode weights")
	}
	return zw.Close()
}

// ReadZlibWeightsFromFile reads model weights from a zlib file
func (n *Network) ReadZlibWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "cannot open weights file")
	}
	defer file.Close()
	return n.ReadZlibWeights(file)
}

// ReadZlibWeights reads model weights written by WriteZlibWeights. Every
// parameter must be present with a matching shape.
func (n *Network) ReadZlibWeights(r io.Reader) error {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "cannot open zlib stream")
	}
	defer zr.Close()
	var list []jsonParam
	if err := json.NewDecoder(zr).Decode(&list); err != nil {
		return errors.Wrap(err, "cannot decode weights")
	}
	byName := make(map[string]jsonParam, len(list))
	for _, p := range list {
		byName[p.Name] = p
	}
	params := n.Params()
	for _, p := range params {
		s, ok := byName[p.Name]
		if !ok {
			return errors.Errorf("weights for %s missing", p.Name)
		}
		r, c := p.Value.Dims()
		if s.Rows != r || s.Cols != c || len(s.Data) != r*c {
			return errors.Errorf("weights for %s have shape %dx%d, want %dx%d", p.Name, s.Rows, s.Cols, r, c)
		}
	}
	for _, p := range params {
		s := byName[p.Name]
		_, c := p.Value.Dims()
		for i := 0; i < s.Rows; i++ {
			copy(p.Value.RawRowView(i), s.Data[i*c:(i+1)*c])
		}
	}
	return nil
}
