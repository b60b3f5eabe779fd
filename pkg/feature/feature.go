// Package feature defines the map entities returned by pixel hit-queries.
//
// A Feature is created per query and never cached: callers read its name,
// render a label and drop it. Geometry and properties are carried for
// consumers that want more than the label text.
package feature

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// NameKey is the property holding a feature's display name.
const NameKey = "name"

// Feature is a single map entity owned by a layer.
type Feature struct {
	ID         string
	Layer      string
	Properties geojson.Properties
	Geometry   orb.Geometry
}

// Name returns the feature's usable display name. A missing, non-string or
// blank name property yields ok == false.
func (f *Feature) Name() (string, bool) {
	if f == nil || f.Properties == nil {
		return "", false
	}
	s, ok := f.Properties[NameKey].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Bound returns the feature's bounding box, or an empty bound when it has no geometry.
func (f *Feature) Bound() orb.Bound {
	if f == nil || f.Geometry == nil {
		return orb.Bound{}
	}
	return f.Geometry.Bound()
}

// FromGeoJSON converts a decoded GeoJSON feature into a Feature of the given layer.
// Features without geometry are rejected with ok == false.
func FromGeoJSON(layer string, gf *geojson.Feature) (*Feature, bool) {
	if gf == nil || gf.Geometry == nil {
		return nil, false
	}
	props := gf.Properties
	if props == nil {
		props = geojson.Properties{}
	}
	return &Feature{
		ID:         idString(gf.ID),
		Layer:      layer,
		Properties: props,
		Geometry:   gf.Geometry,
	}, true
}

// ToGeoJSON converts f back into a GeoJSON feature.
func (f *Feature) ToGeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	if f.ID != "" {
		gf.ID = f.ID
	}
	for k, v := range f.Properties {
		gf.Properties[k] = v
	}
	gf.Properties["layer"] = f.Layer
	return gf
}

func idString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
