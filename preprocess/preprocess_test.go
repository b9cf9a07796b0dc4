package preprocess

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestModeOf(t *testing.T) {
	cases := map[string]Mode{
		"vgg16":            Caffe,
		"ResNet50":         Caffe,
		"mobilenet_v2":     TF,
		"inception_v3":     TF,
		"densenet121":      Torch,
		"efficientnetb0":   Identity,
		" efficientnet_v2": Identity,
	}
	for model, want := range cases {
		got, err := ModeOf(model)
		if err != nil {
			t.Fatalf("ModeOf(%q) failed: %v", model, err)
		}
		if got != want {
			t.Fatalf("ModeOf(%q) = %q, want %q", model, got, want)
		}
	}

	if _, err := ModeOf("alexnet"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestCaffe(t *testing.T) {
	pix := []float32{10, 20, 30}
	ForMode(Caffe)(pix)
	want := []float32{30 - 103.939, 20 - 116.779, 10 - 123.68}
	for i := range want {
		if !approx(pix[i], want[i]) {
			t.Fatalf("channel %d: got %v want %v", i, pix[i], want[i])
		}
	}
}

func TestTF(t *testing.T) {
	pix := []float32{0, 127.5, 255}
	ForMode(TF)(pix)
	want := []float32{-1, 0, 1}
	for i := range want {
		if !approx(pix[i], want[i]) {
			t.Fatalf("channel %d: got %v want %v", i, pix[i], want[i])
		}
	}
}

func TestTorch(t *testing.T) {
	pix := []float32{255, 0, 127.5, 255, 0, 127.5}
	ForMode(Torch)(pix)
	for px := 0; px < 2; px++ {
		r := pix[px*3]
		if !approx(r, (1-0.485)/0.229) {
			t.Fatalf("pixel %d red: got %v", px, r)
		}
		g := pix[px*3+1]
		if !approx(g, (0-0.456)/0.224) {
			t.Fatalf("pixel %d green: got %v", px, g)
		}
	}
}

func TestGrayscale(t *testing.T) {
	pix := []float32{100, 50, 200}
	Grayscale(nil)(pix)
	y := float32(0.2989*100 + 0.5870*50 + 0.1140*200)
	for i := range pix {
		if !approx(pix[i], y) {
			t.Fatalf("channel %d: got %v want %v", i, pix[i], y)
		}
	}

	pix = []float32{255, 255, 255}
	Grayscale(ForMode(TF))(pix)
	for i := range pix {
		if !approx(pix[i], 0.9999*255/127.5-1) {
			t.Fatalf("channel %d after tf: got %v", i, pix[i])
		}
	}
}
