package geodata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// GeodataFilename is the name of the per-country geodata CSV.
const GeodataFilename = "geodata.csv"

// CSVSource reads geodata from {Root}/{country}/geodata.csv.
type CSVSource struct {
	FS   afero.Fs
	Root string
}

// NewCSVSource creates a CSV geodata loader rooted at root.
func NewCSVSource(fs afero.Fs, root string) *CSVSource {
	return &CSVSource{FS: fs, Root: root}
}

// LoadGeodata reads the geodata CSV of a country.
func (s *CSVSource) LoadGeodata(ctx context.Context, country string) ([]Record, error) {
	path := filepath.Join(s.Root, country, GeodataFilename)
	file, err := s.FS.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geodata %s: %w", path, err)
	}
	defer file.Close()

	records, err := ReadCSV(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read geodata %s: %w", path, err)
	}
	return records, nil
}

// geodata column aliases, matched against normalized header names
var (
	indexColumns = []string{"index", "idx"}
	idColumns    = []string{"id", "sample_id"}
	latColumns   = []string{"lat", "latitude", "y"}
	lonColumns   = []string{"lon", "lng", "longitude", "x"}
)

// ReadCSV parses geodata rows. The id column is required; when no index
// column exists the zero-based row position is used.
func ReadCSV(ctx context.Context, r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}

	idIdx := findColumn(colIndex, idColumns)
	if idIdx == -1 {
		return nil, fmt.Errorf("could not find id column in %v", header)
	}
	indexIdx := findColumn(colIndex, indexColumns)
	latIdx := findColumn(colIndex, latColumns)
	lonIdx := findColumn(colIndex, lonColumns)

	known := map[int]bool{idIdx: true, indexIdx: true, latIdx: true, lonIdx: true}

	var records []Record
	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}

		rec := Record{Index: row}
		if indexIdx != -1 {
			if rec.Index, err = parseInt(fields[indexIdx]); err != nil {
				return nil, fmt.Errorf("row %d: invalid index: %w", row, err)
			}
		}
		if rec.ID, err = parseInt(fields[idIdx]); err != nil {
			return nil, fmt.Errorf("row %d: invalid id: %w", row, err)
		}
		if latIdx != -1 {
			if rec.Lat, err = strconv.ParseFloat(strings.TrimSpace(fields[latIdx]), 64); err != nil {
				return nil, fmt.Errorf("row %d: invalid latitude: %w", row, err)
			}
		}
		if lonIdx != -1 {
			if rec.Lon, err = strconv.ParseFloat(strings.TrimSpace(fields[lonIdx]), 64); err != nil {
				return nil, fmt.Errorf("row %d: invalid longitude: %w", row, err)
			}
		}
		for i, v := range fields {
			if known[i] || i >= len(header) {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[strings.TrimSpace(strings.ToLower(header[i]))] = v
		}
		records = append(records, rec)
	}

	return records, nil
}

func findColumn(colIndex map[string]int, names []string) int {
	for _, name := range names {
		if idx, ok := colIndex[name]; ok {
			return idx
		}
	}
	return -1
}

// parseInt accepts integers written as floats ("12.0"), which is how
// exported dataframes often store ids.
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
