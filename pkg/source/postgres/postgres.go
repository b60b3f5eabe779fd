// Package postgres reads features from a PostGIS table or query.
//
// The query must return three text columns: an id, a JSON object of
// properties and a GeoJSON geometry. With only a table configured, the
// source issues:
//
//	SELECT id::text, COALESCE(properties::text, '{}'), ST_AsGeoJSON(geom)
//	FROM "table"
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/mapstyle/pkg/feature"
)

// Query selects rows either by table name or by explicit SQL.
type Query struct {
	Table string
	SQL   string
}

// Statement returns the SQL that Features runs.
func (q Query) Statement() string {
	if q.SQL != "" {
		return q.SQL
	}
	return fmt.Sprintf("SELECT id::text, COALESCE(properties::text, '{}'), ST_AsGeoJSON(geom) FROM %s",
		pq.QuoteIdentifier(q.Table))
}

// Source is an open database handle plus its query.
type Source struct {
	db    *sql.DB
	query Query
}

// Open connects to dsn and pings the server.
func Open(ctx context.Context, dsn string, q Query) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Source{db: db, query: q}, nil
}

// Features runs the query and decodes each row.
func (s *Source) Features(ctx context.Context) ([]*feature.Feature, error) {
	rows, err := s.db.QueryContext(ctx, s.query.Statement())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*feature.Feature
	for rows.Next() {
		var id, props, geom sql.NullString
		if err := rows.Scan(&id, &props, &geom); err != nil {
			return nil, err
		}
		f, err := decodeRow(id.String, props.String, geom.String)
		if err != nil {
			return nil, fmt.Errorf("row %s: %w", id.String, err)
		}
		if f != nil {
			out = append(out, f)
		}
	}
	return out, rows.Err()
}

// decodeRow converts one result row. A row without geometry yields nil.
func decodeRow(id, props, geom string) (*feature.Feature, error) {
	if geom == "" {
		return nil, nil
	}
	g, err := geojson.UnmarshalGeometry([]byte(geom))
	if err != nil {
		return nil, err
	}
	p := geojson.Properties{}
	if props != "" {
		if err := json.Unmarshal([]byte(props), &p); err != nil {
			return nil, err
		}
	}
	return &feature.Feature{ID: id, Properties: p, Geometry: g.Geometry()}, nil
}

// Close closes the database handle.
func (s *Source) Close() error { return s.db.Close() }
