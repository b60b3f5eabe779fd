package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/mapstyle/pkg/cache"
	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/feature"
	"github.com/matzehuels/mapstyle/pkg/httputil"
)

// GeoJSON reads a FeatureCollection from a local file or an http(s) URL.
type GeoJSON struct {
	location string
	fetcher  *httputil.Fetcher
	keyer    cache.Keyer
}

// NewGeoJSON creates a GeoJSON source. Relative paths resolve against
// env.BaseDir, which may itself be a directory URL.
func NewGeoJSON(location string, env Env) *GeoJSON {
	if !isRemote(location) && !filepath.IsAbs(location) && env.BaseDir != "" {
		if isRemote(env.BaseDir) {
			location = strings.TrimSuffix(env.BaseDir, "/") + "/" + location
		} else {
			location = filepath.Join(env.BaseDir, location)
		}
	}
	f := env.Fetcher
	if f == nil {
		f = httputil.NewFetcher(nil)
	}
	return &GeoJSON{location: location, fetcher: f, keyer: cache.NewDefaultKeyer()}
}

// Features decodes the collection. Features without geometry are skipped.
func (g *GeoJSON) Features(ctx context.Context) ([]*feature.Feature, error) {
	data, err := g.read(ctx)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode %s", g.location)
	}

	out := make([]*feature.Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		if f, ok := feature.FromGeoJSON("", gf); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (g *GeoJSON) read(ctx context.Context) ([]byte, error) {
	if isRemote(g.location) {
		data, err := g.fetcher.Get(ctx, g.keyer.SourceKey(TypeGeoJSON, g.location), g.location)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", g.location)
		}
		return data, nil
	}
	data, err := os.ReadFile(g.location)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "geojson source")
	}
	return data, err
}

func (g *GeoJSON) Close() error { return nil }

func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
