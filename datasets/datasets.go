package datasets

import "github.com/gomlx/gomlx/pkg/core/tensors"

// This package prepares the Kenya and Peru imagery datasets for training an
// image classifier on top of a pretrained CNN.
//
// Layout and intended usage:
//
// Manager
//   - Loads geodata and shapefiles per country (see the geodata package),
//     joins them on the spatial index and maps raw classes to labels.
//   - Drops samples whose image file is missing from
//     {root}/{country}/{image_size}/{resizing}.
//   - Generate builds a flow frame (file name + class), optionally removes
//     cloudy images and samples or balances classes, then returns training
//     and validation generators.
//
// ImageGenerator
//   - Lazily loads, resizes and preprocesses the images of one subset of a
//     flow frame and yields NHWC float32 batches with one-hot labels.
//
// MaskGenerator
//   - Pairs an ImageGenerator with a generator over mask images and merges
//     every pair of batches (occlude, overlay or overlay_3).
//
// Batches convert to gomlx tensors with Batch.ToGomlxTensors and whole
// epochs can be fed to gomlx training loops through Epoch.

// Generator is implemented by ImageGenerator and MaskGenerator.
type Generator interface {
	// Len returns the number of batches per epoch.
	Len() int
	// Samples returns the number of rows served per epoch.
	Samples() int
	// Classes returns the category names in one-hot order.
	Classes() []string
	// Next returns the next batch, starting a new epoch when needed.
	Next() (*Batch, error)
	// Reset restarts from the first epoch.
	Reset()
}

// Batch holds images in NHWC layout and one-hot labels in flat buffers.
type Batch struct {
	Images []float32
	Labels []float32

	Size       int
	Height     int
	Width      int
	Channels   int
	NumClasses int

	// Filenames and Indices identify the rows of the batch, in order.
	Filenames []string
	Indices   []int
}

func newBatch(n, height, width, channels, numClasses int) *Batch {
	return &Batch{
		Images:     make([]float32, n*height*width*channels),
		Labels:     make([]float32, n*numClasses),
		Size:       n,
		Height:     height,
		Width:      width,
		Channels:   channels,
		NumClasses: numClasses,
		Filenames:  make([]string, n),
		Indices:    make([]int, n),
	}
}

// at returns the flat offset of pixel (n, y, x, c).
func (b *Batch) at(n, y, x, c int) int {
	return ((n*b.Height+y)*b.Width+x)*b.Channels + c
}

// Label returns the category index of example i, or -1 if its label row is
// empty.
func (b *Batch) Label(i int) int {
	row := b.Labels[i*b.NumClasses : (i+1)*b.NumClasses]
	for c, v := range row {
		if v == 1 {
			return c
		}
	}
	return -1
}

// ToGomlxTensors converts the batch to an image tensor shaped
// [batch, height, width, channels] and a label tensor shaped
// [batch, classes]. An empty batch gives tensors with a zero batch
// dimension.
func (b *Batch) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor, error) {
	images := tensors.FromFlatDataAndDimensions(b.Images, b.Size, b.Height, b.Width, b.Channels)
	labels := tensors.FromFlatDataAndDimensions(b.Labels, b.Size, b.NumClasses)
	return images, labels, nil
}
