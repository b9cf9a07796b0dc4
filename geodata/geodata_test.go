package geodata

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/spf13/afero"
)

func TestReadCSV(t *testing.T) {
	data := "Index,ID,Lat,Lon,Region\n" +
		"0,101,-1.28,36.82,nairobi\n" +
		"1,102.0,-0.42,36.95,nyeri\n"

	records, err := ReadCSV(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Index != 1 || records[1].ID != 102 {
		t.Fatalf("unexpected record: %+v", records[1])
	}
	if records[0].Lat != -1.28 || records[0].Lon != 36.82 {
		t.Fatalf("unexpected location: %+v", records[0])
	}
	if records[0].Extra["region"] != "nairobi" {
		t.Fatalf("expected extra column region, got %v", records[0].Extra)
	}
}

func TestReadCSV_PositionalIndex(t *testing.T) {
	data := "id\n7\n8\n9\n"
	records, err := ReadCSV(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	for i, rec := range records {
		if rec.Index != i {
			t.Fatalf("record %d: expected positional index, got %d", i, rec.Index)
		}
	}
}

func TestReadCSV_MissingID(t *testing.T) {
	if _, err := ReadCSV(context.Background(), strings.NewReader("index,lat\n0,1\n")); err == nil {
		t.Fatalf("expected error for missing id column")
	}
}

func TestCSVSource_LoadGeodata(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/kenya/geodata.csv", []byte("index,id\n3,30\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	src := NewCSVSource(fs, "/data")
	records, err := src.LoadGeodata(context.Background(), "kenya")
	if err != nil {
		t.Fatalf("LoadGeodata failed: %v", err)
	}
	if len(records) != 1 || records[0].Index != 3 || records[0].ID != 30 {
		t.Fatalf("unexpected records: %+v", records)
	}

	if _, err := src.LoadGeodata(context.Background(), "peru"); err == nil {
		t.Fatalf("expected error for missing peru geodata")
	}
}

func TestJoin(t *testing.T) {
	records := []Record{{Index: 0, ID: 10}, {Index: 1, ID: 11}, {Index: 2, ID: 12}}
	shapes := []Shape{{Index: 2, Class: "forest"}, {Index: 0, Class: "urban"}}

	joined := Join(records, shapes)
	if len(joined) != 2 {
		t.Fatalf("expected 2 joined rows, got %d", len(joined))
	}
	if joined[0].ID != 10 || joined[0].Class != "urban" {
		t.Fatalf("unexpected first row: %+v", joined[0])
	}
	if joined[1].ID != 12 || joined[1].Class != "forest" {
		t.Fatalf("unexpected second row: %+v", joined[1])
	}
}

func TestJoinAlternate(t *testing.T) {
	records := []Record{
		{Index: 0, ID: 10}, {Index: 1, ID: 10},
		{Index: 2, ID: 11}, {Index: 3, ID: 11},
		{Index: 4, ID: 12},
	}
	shapes := []Shape{{Index: 0, Class: "a"}, {Index: 1, Class: "b"}, {Index: 2, Class: "c"}}

	joined := JoinAlternate(records, shapes)
	if len(joined) != 3 {
		t.Fatalf("expected 3 joined rows, got %d", len(joined))
	}
	want := []struct {
		index, id int
		class     string
	}{{0, 10, "a"}, {2, 11, "b"}, {4, 12, "c"}}
	for i, w := range want {
		got := joined[i]
		if got.Index != w.index || got.ID != w.id || got.Class != w.class {
			t.Fatalf("row %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestReadShapefile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kenya", "shapefile", "kenya.shp")
	writeShapefile(t, path, []Shape{
		{Index: 5, Class: "cropland"},
		{Index: 6, Class: "forest"},
	})

	src := NewShapefileSource(dir)
	sf, err := src.LoadShapefile(context.Background(), "kenya")
	if err != nil {
		t.Fatalf("LoadShapefile failed: %v", err)
	}
	if len(sf.Shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(sf.Shapes))
	}
	if sf.Shapes[0].Index != 5 || sf.Shapes[0].Class != "cropland" {
		t.Fatalf("unexpected first shape: %+v", sf.Shapes[0])
	}
	if sf.Shapes[1].BBox.MinX != 6 {
		t.Fatalf("expected bbox from point geometry, got %+v", sf.Shapes[1].BBox)
	}
}

func TestValidateTable(t *testing.T) {
	for _, ok := range []string{"samples", "geo.samples", "_t1"} {
		if err := ValidateTable(ok); err != nil {
			t.Fatalf("ValidateTable(%q) failed: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "samples; drop table x", "1abc", "a.b.c"} {
		if err := ValidateTable(bad); err == nil {
			t.Fatalf("ValidateTable(%q) should fail", bad)
		}
	}
}

// writeShapefile writes point shapes with "index" and "class" attributes.
// Each point sits at (index, -index).
func writeShapefile(t *testing.T, path string, shapes []Shape) {
	t.Helper()
	if err := afero.NewOsFs().MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create shapefile dir: %v", err)
	}
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		t.Fatalf("failed to create shapefile: %v", err)
	}
	defer w.Close()

	if err := w.SetFields([]shp.Field{
		shp.NumberField("index", 10),
		shp.StringField("class", 32),
	}); err != nil {
		t.Fatalf("failed to set fields: %v", err)
	}
	for _, sh := range shapes {
		n := int(w.Write(&shp.Point{X: float64(sh.Index), Y: -float64(sh.Index)}))
		if err := w.WriteAttribute(n, 0, sh.Index); err != nil {
			t.Fatalf("failed to write index attribute: %v", err)
		}
		if err := w.WriteAttribute(n, 1, sh.Class); err != nil {
			t.Fatalf("failed to write class attribute: %v", err)
		}
	}
}
