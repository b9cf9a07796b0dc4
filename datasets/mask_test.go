package datasets

import (
	"errors"
	"path/filepath"
	"testing"
)

// maskPair returns a 1x2x1 RGB image batch filled with 10 and a mask batch
// whose top row is 0 and bottom row is 1.
func maskPair() (*Batch, *Batch) {
	x := newBatch(1, 2, 1, 3, 2)
	for i := range x.Images {
		x.Images[i] = 10
	}
	x.Labels[1] = 1
	x.Indices[0] = 4

	m := newBatch(1, 2, 1, 3, 2)
	for c := 0; c < 3; c++ {
		m.Images[m.at(0, 1, 0, c)] = 1
	}
	return x, m
}

func TestApplyMask_Occlude(t *testing.T) {
	x, m := maskPair()
	out, err := ApplyMask(x, m, MaskOcclude, false)
	if err != nil {
		t.Fatalf("ApplyMask failed: %v", err)
	}
	// the mask is flipped, so the top row is kept
	for c := 0; c < 3; c++ {
		if out.Images[out.at(0, 0, 0, c)] != 10 || out.Images[out.at(0, 1, 0, c)] != 0 {
			t.Fatalf("unexpected occluded images %v", out.Images)
		}
	}
	if out.Label(0) != 1 || out.Indices[0] != 4 {
		t.Fatalf("labels and indices must be kept")
	}

	out, err = ApplyMask(x, m, MaskOcclude, true)
	if err != nil {
		t.Fatalf("ApplyMask failed: %v", err)
	}
	for c := 0; c < 3; c++ {
		if out.Images[out.at(0, 0, 0, c)] != 0 || out.Images[out.at(0, 1, 0, c)] != 10 {
			t.Fatalf("unexpected inverted occlusion %v", out.Images)
		}
	}
}

func TestApplyMask_Overlay(t *testing.T) {
	x, m := maskPair()
	out, err := ApplyMask(x, m, MaskOverlay, false)
	if err != nil {
		t.Fatalf("ApplyMask failed: %v", err)
	}
	if out.Channels != 4 || len(out.Images) != 8 {
		t.Fatalf("overlay should add a channel, got %d channels", out.Channels)
	}
	want := []float32{10, 10, 10, 1, 10, 10, 10, 0}
	for i := range want {
		if out.Images[i] != want[i] {
			t.Fatalf("overlay: got %v, want %v", out.Images, want)
		}
	}
	if x.Channels != 3 || x.Images[3] != 10 {
		t.Fatalf("input batch must not be modified")
	}
}

func TestApplyMask_Overlay3(t *testing.T) {
	x, m := maskPair()
	out, err := ApplyMask(x, m, MaskOverlay3, false)
	if err != nil {
		t.Fatalf("ApplyMask failed: %v", err)
	}
	want := []float32{10, 10, 1, 10, 10, 0}
	if out.Channels != 3 {
		t.Fatalf("overlay_3 should keep 3 channels, got %d", out.Channels)
	}
	for i := range want {
		if out.Images[i] != want[i] {
			t.Fatalf("overlay_3: got %v, want %v", out.Images, want)
		}
	}
}

func TestApplyMask_Errors(t *testing.T) {
	x, m := maskPair()
	if _, err := ApplyMask(x, m, MaskNone, false); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for mode none, got %v", err)
	}
	small := newBatch(1, 1, 1, 3, 2)
	if _, err := ApplyMask(x, small, MaskOcclude, false); err == nil {
		t.Fatalf("expected error for mismatched shapes")
	}
}

func TestMaskGenerator(t *testing.T) {
	fs, dir, rows := flowFixture(t, 4, 4, "0", "1")
	maskDir := MaskDir("/data")
	for _, r := range MaskRows(rows) {
		writeImageRows(t, fs, filepath.Join(maskDir, r.Filename), 4)
	}
	if MaskRows(rows)[2].Filename != "2_kenya_224x224_mask_20.png" {
		t.Fatalf("unexpected mask file name %s", MaskRows(rows)[2].Filename)
	}

	opts := FlowOptions{
		ImageSize: 4,
		BatchSize: 3,
		Seed:      3,
		Shuffle:   true,
		Preprocess: func(pix []float32) {
			for i := range pix {
				pix[i] += 1000
			}
		},
	}
	gen, err := NewMaskGenerator(fs, rows, dir, maskDir, opts, MaskOverlay, false)
	if err != nil {
		t.Fatalf("NewMaskGenerator failed: %v", err)
	}
	if gen.Len() != 2 || gen.Samples() != 4 || len(gen.Classes()) != 2 {
		t.Fatalf("unexpected generator shape %d/%d/%v", gen.Len(), gen.Samples(), gen.Classes())
	}

	for range 3 {
		b, err := gen.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if b.Channels != 4 {
			t.Fatalf("expected 4 channels, got %d", b.Channels)
		}
		for n := 0; n < b.Size; n++ {
			// mask row y holds y and is flipped; masks skip preprocessing
			for y := 0; y < 4; y++ {
				if got := b.Images[b.at(n, y, 0, 3)]; got != float32(3-y) {
					t.Fatalf("mask channel at row %d: got %v, want %d", y, got, 3-y)
				}
			}
			if b.Images[b.at(n, 0, 0, 0)] < 1000 {
				t.Fatalf("image channels must be preprocessed")
			}
		}
	}

	if _, err := NewMaskGenerator(fs, rows, dir, maskDir, opts, MaskNone, false); err == nil {
		t.Fatalf("expected error for mask mode none")
	}
}
