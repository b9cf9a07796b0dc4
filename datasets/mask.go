package datasets

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"
)

// Kenya mask files: {index}_kenya_224x224_mask_20.png inside
// {root}/kenya/kenya_224x224_masks_20.
const (
	MaskDirName    = "kenya_224x224_masks_20"
	maskFilePrefix = "kenya_224x224_mask_20"
)

// MaskFilename returns the mask file name of the sample with the given
// spatial index.
func MaskFilename(index int) string {
	return fmt.Sprintf("%d_%s.png", index, maskFilePrefix)
}

// MaskDir returns the Kenya mask directory.
func MaskDir(root string) string {
	return filepath.Join(root, string(Kenya), MaskDirName)
}

// MaskRows returns the mask row of every image row, in the same order.
func MaskRows(rows []Row) []Row {
	masks := make([]Row, len(rows))
	for i, r := range rows {
		masks[i] = Row{Filename: MaskFilename(r.Index), Class: r.Class, Index: r.Index}
	}
	return masks
}

// MaskGenerator yields image batches merged with their mask batches.
type MaskGenerator struct {
	images   *ImageGenerator
	masks    *ImageGenerator
	mode     MaskMode
	inverted bool
}

// NewMaskGenerator pairs an image generator over rows in imageDir with a
// generator over the matching masks in maskDir. Masks are loaded without
// preprocessing; both generators share split, seed and shuffling so their
// batches hold the same samples.
func NewMaskGenerator(fs afero.Fs, rows []Row, imageDir, maskDir string, opts FlowOptions, mode MaskMode, inverted bool) (*MaskGenerator, error) {
	if mode == MaskNone || !mode.Valid() {
		return nil, fmt.Errorf("%w: mask mode %q", ErrInvalidConfig, mode)
	}
	images, err := NewImageGenerator(fs, rows, imageDir, opts)
	if err != nil {
		return nil, err
	}
	maskOpts := opts
	maskOpts.Preprocess = nil
	masks, err := NewImageGenerator(fs, MaskRows(rows), maskDir, maskOpts)
	if err != nil {
		return nil, err
	}
	return &MaskGenerator{images: images, masks: masks, mode: mode, inverted: inverted}, nil
}

// Len returns the number of batches per epoch.
func (g *MaskGenerator) Len() int { return g.images.Len() }

// Samples returns the number of rows in the subset.
func (g *MaskGenerator) Samples() int { return g.images.Samples() }

// Classes returns the category names in one-hot order.
func (g *MaskGenerator) Classes() []string { return g.images.Classes() }

// Reset restarts both generators.
func (g *MaskGenerator) Reset() {
	g.images.Reset()
	g.masks.Reset()
}

// Next loads the next image and mask batches and merges them.
func (g *MaskGenerator) Next() (*Batch, error) {
	x, err := g.images.Next()
	if err != nil {
		return nil, err
	}
	m, err := g.masks.Next()
	if err != nil {
		return nil, err
	}
	if !slices.Equal(x.Indices, m.Indices) {
		return nil, fmt.Errorf("image and mask batches are out of step: %v != %v", x.Indices, m.Indices)
	}
	return ApplyMask(x, m, g.mode, g.inverted)
}

// ApplyMask merges an image batch x with a mask batch m. The mask is first
// flipped along the height axis. occlude multiplies x by the mask (or by
// 1 - mask when inverted), overlay appends the first mask channel as a new
// channel and overlay_3 replaces the last image channel with it. The
// labels of x are kept.
func ApplyMask(x, m *Batch, mode MaskMode, inverted bool) (*Batch, error) {
	if x.Size != m.Size || x.Height != m.Height || x.Width != m.Width {
		return nil, fmt.Errorf("mask batch shape [%d %d %d] does not match image batch [%d %d %d]",
			m.Size, m.Height, m.Width, x.Size, x.Height, x.Width)
	}
	flipped := flipHeight(m)

	var out *Batch
	switch mode {
	case MaskOcclude:
		if flipped.Channels != x.Channels {
			return nil, fmt.Errorf("occlude needs %d mask channels, got %d", x.Channels, flipped.Channels)
		}
		out = x.withChannels(x.Channels)
		for i, v := range x.Images {
			mv := flipped.Images[i]
			if inverted {
				mv = 1 - mv
			}
			out.Images[i] = v * mv
		}
	case MaskOverlay:
		out = x.withChannels(x.Channels + 1)
		overlay(out, x, flipped, x.Channels)
	case MaskOverlay3:
		out = x.withChannels(x.Channels)
		overlay(out, x, flipped, x.Channels-1)
	default:
		return nil, fmt.Errorf("%w: mask mode %q", ErrInvalidConfig, mode)
	}
	return out, nil
}

// overlay copies the first keep channels of x into out and writes the
// first channel of mask into channel keep.
func overlay(out, x, mask *Batch, keep int) {
	for n := 0; n < x.Size; n++ {
		for y := 0; y < x.Height; y++ {
			for px := 0; px < x.Width; px++ {
				copy(out.Images[out.at(n, y, px, 0):out.at(n, y, px, keep)], x.Images[x.at(n, y, px, 0):])
				out.Images[out.at(n, y, px, keep)] = mask.Images[mask.at(n, y, px, 0)]
			}
		}
	}
}

// withChannels returns an empty batch shaped like b with the given number of
// channels, sharing b's labels and row identifiers.
func (b *Batch) withChannels(channels int) *Batch {
	out := newBatch(b.Size, b.Height, b.Width, channels, b.NumClasses)
	copy(out.Labels, b.Labels)
	copy(out.Filenames, b.Filenames)
	copy(out.Indices, b.Indices)
	return out
}

// flipHeight returns a copy of b with the rows of every image reversed.
func flipHeight(b *Batch) *Batch {
	out := b.withChannels(b.Channels)
	rowLen := b.Width * b.Channels
	for n := 0; n < b.Size; n++ {
		for y := 0; y < b.Height; y++ {
			src := b.at(n, b.Height-1-y, 0, 0)
			dst := b.at(n, y, 0, 0)
			copy(out.Images[dst:dst+rowLen], b.Images[src:src+rowLen])
		}
	}
	return out
}
