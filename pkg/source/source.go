// Package source loads map features from the backends a scene names.
//
// A scene file declares sources by name:
//
//	[sources.osm]
//	type = "geojson"
//	url  = "data.geojson"
//
//	[sources.pois]
//	type       = "mongo"
//	url        = "mongodb://localhost:27017"
//	database   = "maps"
//	collection = "pois"
//
// Layers then select features from a source with a property filter. The
// backends return features without a layer; the scene assigns layers.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/feature"
	"github.com/matzehuels/mapstyle/pkg/httputil"
	"github.com/matzehuels/mapstyle/pkg/source/mongo"
	"github.com/matzehuels/mapstyle/pkg/source/postgres"
)

// Source types understood by Open.
const (
	TypeGeoJSON  = "geojson"
	TypeMongo    = "mongo"
	TypePostgres = "postgres"
)

// Source yields every feature of one backend.
type Source interface {
	Features(ctx context.Context) ([]*feature.Feature, error)
	Close() error
}

// Config describes a source as written in a scene file.
type Config struct {
	Type       string `toml:"type" yaml:"type"`
	URL        string `toml:"url" yaml:"url"`
	Database   string `toml:"database,omitempty" yaml:"database,omitempty"`
	Collection string `toml:"collection,omitempty" yaml:"collection,omitempty"`
	Table      string `toml:"table,omitempty" yaml:"table,omitempty"`
	Query      string `toml:"query,omitempty" yaml:"query,omitempty"`
}

// Validate checks that the fields required by the source type are present.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New(errors.ErrCodeInvalidSource, "%s source: url is required", c.Type)
	}
	switch strings.ToLower(c.Type) {
	case TypeGeoJSON:
	case TypeMongo:
		if c.Database == "" || c.Collection == "" {
			return errors.New(errors.ErrCodeInvalidSource, "mongo source: database and collection are required")
		}
	case TypePostgres:
		if c.Table == "" && c.Query == "" {
			return errors.New(errors.ErrCodeInvalidSource, "postgres source: table or query is required")
		}
	default:
		return errors.New(errors.ErrCodeInvalidSource, "unknown source type %q", c.Type)
	}
	return nil
}

// Env carries what Open needs besides the config.
type Env struct {
	// BaseDir resolves relative GeoJSON paths, normally the scene file's directory.
	BaseDir string
	// Fetcher downloads remote GeoJSON. Nil uses an uncached fetcher.
	Fetcher *httputil.Fetcher
}

// Open connects to the source described by cfg.
func Open(ctx context.Context, cfg Config, env Env) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Type) {
	case TypeGeoJSON:
		return NewGeoJSON(cfg.URL, env), nil
	case TypeMongo:
		s, err := mongo.Open(ctx, cfg.URL, cfg.Database, cfg.Collection)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open mongo source")
		}
		return s, nil
	case TypePostgres:
		s, err := postgres.Open(ctx, cfg.URL, postgres.Query{Table: cfg.Table, SQL: cfg.Query})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "open postgres source")
		}
		return s, nil
	}
	return nil, fmt.Errorf("unreachable source type %q", cfg.Type)
}
