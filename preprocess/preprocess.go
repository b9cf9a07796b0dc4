// Package preprocess provides the input preprocessing of pretrained CNN
// families. Every function works in place on interleaved RGB float32
// pixels in the 0..255 range (HWC layout, three channels).
package preprocess

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned for a pretrained model type with no known
// preprocessing.
var ErrUnknownModel = errors.New("unknown pretrained model type")

// Func preprocesses one image in place.
type Func func(pix []float32)

// Mode is the family of input normalisation used by a pretrained model.
type Mode string

const (
	// Caffe converts RGB to BGR and subtracts the ImageNet channel means.
	Caffe Mode = "caffe"
	// TF scales pixels to [-1, 1].
	TF Mode = "tf"
	// Torch scales to [0, 1] and standardises with ImageNet statistics.
	Torch Mode = "torch"
	// Identity leaves pixels untouched; the model rescales internally.
	Identity Mode = "identity"
)

var modelModes = map[string]Mode{
	"vgg16":     Caffe,
	"vgg19":     Caffe,
	"resnet50":  Caffe,
	"resnet101": Caffe,
	"resnet152": Caffe,

	"mobilenet":           TF,
	"mobilenet_v2":        TF,
	"inception_v3":        TF,
	"xception":            TF,
	"resnet50_v2":         TF,
	"resnet101_v2":        TF,
	"resnet152_v2":        TF,
	"inception_resnet_v2": TF,
	"nasnet":              TF,
	"nasnet_large":        TF,
	"nasnet_mobile":       TF,

	"densenet121": Torch,
	"densenet169": Torch,
	"densenet201": Torch,
}

var (
	caffeMeans = [3]float32{103.939, 116.779, 123.68}
	torchMeans = [3]float32{0.485, 0.456, 0.406}
	torchStds  = [3]float32{0.229, 0.224, 0.225}
)

// ModeOf returns the preprocessing mode of a pretrained model type.
func ModeOf(model string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(model))
	if mode, ok := modelModes[name]; ok {
		return mode, nil
	}
	if strings.HasPrefix(name, "efficientnet") {
		return Identity, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// ForModel returns the preprocessing function of a pretrained model type.
func ForModel(model string) (Func, error) {
	mode, err := ModeOf(model)
	if err != nil {
		return nil, err
	}
	return ForMode(mode), nil
}

// ForMode returns the preprocessing function of a mode.
func ForMode(mode Mode) Func {
	switch mode {
	case Caffe:
		return caffe
	case TF:
		return tf
	case Torch:
		return torch
	default:
		return identity
	}
}

func caffe(pix []float32) {
	for i := 0; i+2 < len(pix); i += 3 {
		r, g, b := pix[i], pix[i+1], pix[i+2]
		pix[i] = b - caffeMeans[0]
		pix[i+1] = g - caffeMeans[1]
		pix[i+2] = r - caffeMeans[2]
	}
}

func tf(pix []float32) {
	for i := range pix {
		pix[i] = pix[i]/127.5 - 1
	}
}

func torch(pix []float32) {
	for i := range pix {
		c := i % 3
		pix[i] = (pix[i]/255 - torchMeans[c]) / torchStds[c]
	}
}

func identity([]float32) {}

// Grayscale returns a Func that replaces every pixel with its luminance,
// replicated across the three channels, before running f.
func Grayscale(f Func) Func {
	return func(pix []float32) {
		for i := 0; i+2 < len(pix); i += 3 {
			y := 0.2989*pix[i] + 0.5870*pix[i+1] + 0.1140*pix[i+2]
			pix[i], pix[i+1], pix[i+2] = y, y, y
		}
		if f != nil {
			f(pix)
		}
	}
}
