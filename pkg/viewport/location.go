package viewport

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/paulmach/orb"
)

// Zoom and latitude limits of the Web Mercator tile pyramid.
const (
	MinZoom = 0
	MaxZoom = 22
	MaxLat  = 85.05112878
)

// Location is a map center and zoom level.
type Location struct {
	Lat  float64 `json:"lat" toml:"lat" yaml:"lat"`
	Lng  float64 `json:"lng" toml:"lng" yaml:"lng"`
	Zoom float64 `json:"zoom" toml:"zoom" yaml:"zoom"`
}

// Point returns the center as an orb point (lng, lat).
func (l Location) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// Validate reports whether l lies inside the renderable range.
func (l Location) Validate() error {
	switch {
	case math.IsNaN(l.Lat) || math.IsNaN(l.Lng) || math.IsNaN(l.Zoom):
		return errors.New(errors.ErrCodeInvalidViewport, "location contains NaN")
	case l.Zoom < MinZoom || l.Zoom > MaxZoom:
		return errors.New(errors.ErrCodeInvalidViewport, "zoom %g out of range [%d, %d]", l.Zoom, MinZoom, MaxZoom)
	case l.Lat < -MaxLat || l.Lat > MaxLat:
		return errors.New(errors.ErrCodeInvalidViewport, "latitude %g out of range", l.Lat)
	case l.Lng < -180 || l.Lng > 180:
		return errors.New(errors.ErrCodeInvalidViewport, "longitude %g out of range", l.Lng)
	}
	return nil
}

// Hash formats l as "#zoom/lat/lng". Coordinates are rounded to the number
// of decimals that is meaningful at the zoom level.
func (l Location) Hash() string {
	zoom := math.Round(l.Zoom)
	precision := 0
	if zoom > 1 {
		precision = int(math.Ceil(math.Log2(zoom)))
	}
	return fmt.Sprintf("#%s/%s/%s",
		strconv.FormatFloat(zoom, 'f', -1, 64),
		strconv.FormatFloat(l.Lat, 'f', precision, 64),
		strconv.FormatFloat(l.Lng, 'f', precision, 64))
}

func (l Location) String() string {
	return fmt.Sprintf("%.5f,%.5f z%g", l.Lat, l.Lng, l.Zoom)
}

// Named start locations.
var named = map[string]Location{
	"London":   {Lat: 51.508, Lng: -0.105, Zoom: 15},
	"New York": {Lat: 40.70531887544228, Lng: -74.00976419448853, Zoom: 15},
	"Seattle":  {Lat: 47.609722, Lng: -122.333056, Zoom: 15},
}

// DefaultName is the location used when nothing else applies.
const DefaultName = "New York"

// Default returns the default start location.
func Default() Location {
	return named[DefaultName]
}

// Named looks up a named location. Matching ignores case.
func Named(name string) (Location, bool) {
	for k, v := range named {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return Location{}, false
}

// Names returns the named locations in alphabetical order.
func Names() []string {
	out := make([]string, 0, len(named))
	for k := range named {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Parse reads a hash of the form "#zoom/lat/lng". The leading '#' is optional.
// Anything other than exactly three numeric components is an error.
func Parse(hash string) (Location, error) {
	hash = strings.TrimPrefix(strings.TrimSpace(hash), "#")
	parts := strings.Split(hash, "/")
	if len(parts) != 3 {
		return Location{}, errors.New(errors.ErrCodeInvalidViewport, "hash %q: want zoom/lat/lng", hash)
	}

	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Location{}, errors.Wrap(errors.ErrCodeInvalidViewport, err, "hash %q: component %d", hash, i)
		}
		vals[i] = v
	}

	loc := Location{Zoom: vals[0], Lat: vals[1], Lng: vals[2]}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Resolve picks the start location: a valid hash wins, then a named
// location, then the default. It never fails.
func Resolve(hash, name string) Location {
	if hash != "" {
		if loc, err := Parse(hash); err == nil {
			return loc
		}
	}
	if name != "" {
		if loc, ok := Named(name); ok {
			return loc
		}
	}
	return Default()
}
