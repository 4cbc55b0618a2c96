package trainer

import "github.com/pkg/errors"

// WeightsReader loads model weights from a file.
type WeightsReader interface {
	ReadZlibWeightsFromFile(name string) error
}

// WeightsWriter stores model weights to a file.
type WeightsWriter interface {
	WriteZlibWeightsToFile(name string) error
}

// Resume loads the weights in dstmodel when resume is set.
func Resume(net WeightsReader, resume bool, dstmodel string) error {
	if !resume {
		return nil
	}
	if dstmodel == "" {
		return errors.New("resume requested without a model file")
	}
	return errors.Wrap(net.ReadZlibWeightsFromFile(dstmodel), "resume")
}

// Save writes the weights to dstmodel, nothing when dstmodel is empty.
func Save(net WeightsWriter, dstmodel string) error {
	if dstmodel == "" {
		return nil
	}
	return errors.Wrap(net.WriteZlibWeightsToFile(dstmodel), "save")
}
