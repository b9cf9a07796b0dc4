package geodata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
)

// ShapefileSource reads {Root}/{country}/shapefile/{country}.shp.
//
// go-shp opens files by path, so unlike CSVSource this loader always reads
// from the operating system filesystem.
type ShapefileSource struct {
	Root string

	// ClassField names the attribute holding the raw class label.
	// Defaults to "class".
	ClassField string
}

// NewShapefileSource creates a shapefile loader rooted at root.
func NewShapefileSource(root string) *ShapefileSource {
	return &ShapefileSource{Root: root, ClassField: "class"}
}

// ShapefilePath returns the shapefile location for a country.
func (s *ShapefileSource) ShapefilePath(country string) string {
	return filepath.Join(s.Root, country, "shapefile", country+".shp")
}

// LoadShapefile reads the shapefile of a country.
func (s *ShapefileSource) LoadShapefile(ctx context.Context, country string) (*Shapefile, error) {
	classField := s.ClassField
	if classField == "" {
		classField = "class"
	}
	return ReadShapefile(ctx, s.ShapefilePath(country), classField)
}

// ReadShapefile reads every shape and its attributes. When the attribute
// table has no "index" field the shape's position is used.
func ReadShapefile(ctx context.Context, path, classField string) (*Shapefile, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	names := make([]string, len(fields))
	classIdx, indexIdx := -1, -1
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimSpace(f.String()))
		switch names[i] {
		case strings.ToLower(classField):
			classIdx = i
		case "index":
			indexIdx = i
		}
	}
	if classIdx == -1 {
		return nil, fmt.Errorf("shapefile %s has no %q field", path, classField)
	}

	sf := &Shapefile{Path: path, Fields: names}
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, geom := reader.Shape()

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = strings.TrimSpace(reader.ReadAttribute(n, i))
		}

		index := n
		if indexIdx != -1 {
			if index, err = parseInt(attrs["index"]); err != nil {
				return nil, fmt.Errorf("shape %d: invalid index: %w", n, err)
			}
		}

		sh := Shape{
			Index:      index,
			Class:      attrs[names[classIdx]],
			Attributes: attrs,
			Geometry:   geom,
		}
		if geom != nil {
			sh.BBox = geom.BBox()
		}
		sf.Shapes = append(sf.Shapes, sh)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile %s: %w", path, err)
	}

	return sf, nil
}
