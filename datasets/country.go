package datasets

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Noofbiz/landcover/geodata"
)

// Country identifies one of the supported imagery datasets.
type Country string

const (
	Kenya Country = "kenya"
	Peru  Country = "peru"
)

// Countries lists every supported country.
var Countries = []Country{Kenya, Peru}

// ParseCountry validates a country name.
func ParseCountry(name string) (Country, error) {
	switch c := Country(strings.ToLower(strings.TrimSpace(name))); c {
	case Kenya, Peru:
		return c, nil
	}
	return "", fmt.Errorf("%w: got %q", ErrInvalidCountry, name)
}

func (c Country) String() string { return string(c) }

// join merges a country's geodata with its shapes. Peru geodata repeats
// every sample twice, so only even rows are used.
func (c Country) join(records []geodata.Record, shapes []geodata.Shape) []geodata.Joined {
	if c == Peru {
		return geodata.JoinAlternate(records, shapes)
	}
	return geodata.Join(records, shapes)
}

// classKey is the category a sample is generated under. Kenya uses the
// mapped label, Peru the raw class.
func (c Country) classKey(s Sample) string {
	if c == Kenya {
		return strconv.Itoa(s.Label)
	}
	return s.Class
}

// Sample is one row of a country dataset.
type Sample struct {
	Index int
	ID    int

	// Class is the raw label and Label its value in the class enumeration.
	Class string
	Label int

	// Filename is the image file name inside the country image directory.
	Filename string

	Lat float64
	Lon float64
}

// Row is one entry of a flow frame: an image and the category it is
// generated under.
type Row struct {
	Filename string
	Class    string

	// Index is the sample's spatial index, used to locate its mask.
	Index int
}

// ImageDir returns {root}/{country}/{size}/{resizing}.
func ImageDir(root string, c Country, size int, resizing string) string {
	return filepath.Join(root, string(c), strconv.Itoa(size), resizing)
}

// CloudListPath returns {root}/{country}/cloudy.txt.
func CloudListPath(root string, c Country) string {
	return filepath.Join(root, string(c), "cloudy.txt")
}
