// Package geodata loads the per-country sample metadata and shapefiles that
// the datasets package joins with class labels and image files.
//
// Two kinds of data are involved:
//
//   - geodata: one record per sample with its spatial index, identifier and
//     location, read from CSV (CSVSource) or PostGIS (PostGISSource).
//   - shapefiles: one shape per sample carrying the raw class label and the
//     sample geometry, read from ESRI shapefiles (ShapefileSource).
//
// Records and shapes are merged on their spatial index with Join or, for
// datasets where every second geodata row is a duplicate, JoinAlternate.
package geodata

import (
	"context"

	"github.com/jonas-p/go-shp"
)

// Record is one row of per-sample geographic metadata.
type Record struct {
	Index int
	ID    int
	Lat   float64
	Lon   float64

	// Extra holds any column that is not one of the above, keyed by the
	// normalized (lower-case, trimmed) header name.
	Extra map[string]string
}

// Shape is one record of a shapefile: its attributes and geometry.
type Shape struct {
	Index      int
	Class      string
	Attributes map[string]string
	BBox       shp.Box
	Geometry   shp.Shape
}

// Shapefile is a loaded shapefile kept alongside the joined samples.
type Shapefile struct {
	Path   string
	Fields []string
	Shapes []Shape
}

// Joined is a geodata record merged with its shape.
type Joined struct {
	Record
	Class string
	BBox  shp.Box
}

// GeodataLoader loads the geodata records of a country.
type GeodataLoader interface {
	LoadGeodata(ctx context.Context, country string) ([]Record, error)
}

// ShapefileLoader loads the shapefile of a country.
type ShapefileLoader interface {
	LoadShapefile(ctx context.Context, country string) (*Shapefile, error)
}

// Source provides both halves of a country's metadata.
type Source interface {
	GeodataLoader
	ShapefileLoader
}

// Sources combines independent loaders into a Source.
type Sources struct {
	Geo    GeodataLoader
	Shapes ShapefileLoader
}

// LoadGeodata delegates to the geodata loader.
func (s Sources) LoadGeodata(ctx context.Context, country string) ([]Record, error) {
	return s.Geo.LoadGeodata(ctx, country)
}

// LoadShapefile delegates to the shapefile loader.
func (s Sources) LoadShapefile(ctx context.Context, country string) (*Shapefile, error) {
	return s.Shapes.LoadShapefile(ctx, country)
}

// Join merges records with shapes on their index. Records without a shape
// are dropped and the order of records is preserved.
func Join(records []Record, shapes []Shape) []Joined {
	byIndex := indexShapes(shapes)
	joined := make([]Joined, 0, len(records))
	for _, rec := range records {
		sh, ok := byIndex[rec.Index]
		if !ok {
			continue
		}
		joined = append(joined, Joined{Record: rec, Class: sh.Class, BBox: sh.BBox})
	}
	return joined
}

// JoinAlternate keeps only the records at even positions. The record at
// position 2k is merged with the shape whose index is k and keeps 2k as
// its index.
func JoinAlternate(records []Record, shapes []Shape) []Joined {
	byIndex := indexShapes(shapes)
	joined := make([]Joined, 0, len(records)/2+1)
	for pos := 0; pos < len(records); pos += 2 {
		sh, ok := byIndex[pos/2]
		if !ok {
			continue
		}
		rec := records[pos]
		rec.Index = pos
		joined = append(joined, Joined{Record: rec, Class: sh.Class, BBox: sh.BBox})
	}
	return joined
}

func indexShapes(shapes []Shape) map[int]Shape {
	byIndex := make(map[int]Shape, len(shapes))
	for _, sh := range shapes {
		byIndex[sh.Index] = sh
	}
	return byIndex
}
