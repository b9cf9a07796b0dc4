package geodata

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostGISSource reads geodata from a PostGIS table with the columns
// country, sample_index, sample_id and a point geometry geom (SRID 4326).
type PostGISSource struct {
	db    *sqlx.DB
	table string
}

type postgisRow struct {
	Index int     `db:"sample_index"`
	ID    int     `db:"sample_id"`
	Lat   float64 `db:"lat"`
	Lon   float64 `db:"lon"`
}

// NewPostGISSource connects to the database and validates the table name.
func NewPostGISSource(ctx context.Context, connStr, table string) (*PostGISSource, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgis: %w", err)
	}
	return &PostGISSource{db: db, table: table}, nil
}

// NewPostGISSourceFromDB wraps an existing connection.
func NewPostGISSourceFromDB(db *sqlx.DB, table string) (*PostGISSource, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &PostGISSource{db: db, table: table}, nil
}

// ValidateTable rejects anything that is not a plain (optionally
// schema-qualified) identifier, since the table name is spliced into SQL.
func ValidateTable(table string) error {
	if !identifierRe.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

func (s *PostGISSource) query() string {
	return fmt.Sprintf(`
		SELECT
			sample_index,
			sample_id,
			ST_Y(geom) AS lat,
			ST_X(geom) AS lon
		FROM %s
		WHERE country = $1
		ORDER BY sample_index`, s.table)
}

// LoadGeodata selects the records of a country ordered by index.
func (s *PostGISSource) LoadGeodata(ctx context.Context, country string) ([]Record, error) {
	var rows []postgisRow
	if err := s.db.SelectContext(ctx, &rows, s.query(), country); err != nil {
		return nil, fmt.Errorf("failed to query geodata for %s: %w", country, err)
	}

	records := make([]Record, len(rows))
	for i, r := range rows {
		records[i] = Record{Index: r.Index, ID: r.ID, Lat: r.Lat, Lon: r.Lon}
	}
	return records, nil
}

// Close closes the underlying connection.
func (s *PostGISSource) Close() error {
	return s.db.Close()
}
