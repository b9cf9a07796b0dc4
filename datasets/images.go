package datasets

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// Channels is the number of channels of a loaded image.
const Channels = 3

// LoadImage decodes an image file (JPEG, PNG or TIFF), resizes it to
// size x size with nearest-neighbour interpolation and returns its RGB
// pixels as float32 values in 0..255, row-major HWC.
func LoadImage(fs afero.Fs, path string, size int) ([]float32, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return ImagePixels(img, size), nil
}

// ImagePixels resizes img and flattens it like LoadImage.
func ImagePixels(img image.Image, size int) []float32 {
	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		img = resize.Resize(uint(size), uint(size), img, resize.NearestNeighbor)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	pix := make([]float32, size*size*Channels)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			src := rgba.PixOffset(x, y)
			dst := (y*size + x) * Channels
			pix[dst] = float32(rgba.Pix[src])
			pix[dst+1] = float32(rgba.Pix[src+1])
			pix[dst+2] = float32(rgba.Pix[src+2])
		}
	}
	return pix
}
