package datasets

import (
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// EpochDataset adapts a Generator to the gomlx train.Dataset contract:
// Yield returns one batch per call and io.EOF once an epoch has been
// served, Reset starts the next epoch.
type EpochDataset struct {
	name   string
	gen    Generator
	served int
}

// Epoch wraps gen as a gomlx dataset.
func Epoch(name string, gen Generator) *EpochDataset {
	return &EpochDataset{name: name, gen: gen}
}

// Name returns the name of the dataset
func (e *EpochDataset) Name() string { return e.name }

// Yield returns the next batch as gomlx tensors.
func (e *EpochDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if e.served >= e.gen.Len() {
		return nil, nil, nil, io.EOF
	}
	b, err := e.gen.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	e.served++

	in, la, err := b.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return e, []*tensors.Tensor{in}, []*tensors.Tensor{la}, nil
}

// Reset allows the next epoch to be yielded. The wrapped generator keeps
// its position, so a partially served epoch continues where it stopped.
func (e *EpochDataset) Reset() {
	e.served = 0
}
