package datasets

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/Noofbiz/landcover/geodata"
)

// writeImage writes a solid PNG of the given side and colour. The file name
// may carry any extension; decoding sniffs the content.
func writeImage(t *testing.T, fs afero.Fs, path string, side int, c color.RGBA) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		t.Fatalf("failed to create image %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image %s: %v", path, err)
	}
}

// writeImageRows writes a PNG whose row y is filled with value y in every
// channel, so flips along the height axis are observable.
func writeImageRows(t *testing.T, fs afero.Fs, path string, side int) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			v := uint8(y)
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		t.Fatalf("failed to create image %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image %s: %v", path, err)
	}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// stubSource serves fixed geodata and shapes per country.
type stubSource struct {
	records map[string][]geodata.Record
	shapes  map[string][]geodata.Shape
	loads   int
}

func (s *stubSource) LoadGeodata(_ context.Context, country string) ([]geodata.Record, error) {
	s.loads++
	return s.records[country], nil
}

func (s *stubSource) LoadShapefile(_ context.Context, country string) (*geodata.Shapefile, error) {
	return &geodata.Shapefile{Path: country + ".shp", Shapes: s.shapes[country]}, nil
}

func testConfig() Config {
	return Config{
		Root:      "/data",
		ImageSize: 4,
		Resizing:  "nearest",
		ClassEnum: map[string]int{
			"cropland": 0,
			"forest":   1,
			"cloud":    -1,
		},
		BatchSize:  2,
		Seed:       7,
		Mask:       MaskNone,
		Pretrained: &PretrainedConfig{Type: "efficientnetb0"},
	}
}

func rowsOf(n int, classes ...string) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Filename: FormatFilename(i, 100+i, "", ""),
			Class:    classes[i%len(classes)],
			Index:    i,
		}
	}
	return rows
}
