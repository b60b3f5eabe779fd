package viewport

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	tileSize      = 256
	earthRadius   = 6378137.0
	halfEarthCirc = math.Pi * earthRadius
)

// Pixel is a screen position with the origin at the top-left corner.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset returns p moved by (dx, dy).
func (p Pixel) Offset(dx, dy float64) Pixel {
	return Pixel{X: p.X + dx, Y: p.Y + dy}
}

// View is a center location rendered into a Width x Height pixel surface.
type View struct {
	Center Location
	Width  int
	Height int
}

func worldSize(zoom float64) float64 {
	return tileSize * math.Exp2(zoom)
}

// worldPixel projects ll into global pixel space at zoom.
func worldPixel(ll orb.Point, zoom float64) orb.Point {
	m := project.Point(ll, project.WGS84.ToMercator)
	ws := worldSize(zoom)
	return orb.Point{
		(m[0] + halfEarthCirc) / (2 * halfEarthCirc) * ws,
		(halfEarthCirc - m[1]) / (2 * halfEarthCirc) * ws,
	}
}

func fromWorldPixel(p orb.Point, zoom float64) orb.Point {
	ws := worldSize(zoom)
	m := orb.Point{
		p[0]/ws*2*halfEarthCirc - halfEarthCirc,
		halfEarthCirc - p[1]/ws*2*halfEarthCirc,
	}
	return project.Point(m, project.Mercator.ToWGS84)
}

// Unproject returns the longitude/latitude under screen pixel p.
func (v View) Unproject(p Pixel) orb.Point {
	c := worldPixel(v.Center.Point(), v.Center.Zoom)
	return fromWorldPixel(orb.Point{
		c[0] + p.X - float64(v.Width)/2,
		c[1] + p.Y - float64(v.Height)/2,
	}, v.Center.Zoom)
}

// Project returns the screen pixel of ll.
func (v View) Project(ll orb.Point) Pixel {
	c := worldPixel(v.Center.Point(), v.Center.Zoom)
	w := worldPixel(ll, v.Center.Zoom)
	return Pixel{
		X: w[0] - c[0] + float64(v.Width)/2,
		Y: w[1] - c[1] + float64(v.Height)/2,
	}
}

// Bound returns the geographic extent of the visible surface.
func (v View) Bound() orb.Bound {
	nw := v.Unproject(Pixel{X: 0, Y: 0})
	se := v.Unproject(Pixel{X: float64(v.Width), Y: float64(v.Height)})
	return orb.Bound{Min: orb.Point{nw[0], se[1]}, Max: orb.Point{se[0], nw[1]}}
}

// Pan returns the center after dragging the map content by (dx, dy) pixels.
// Latitude is clamped to the Mercator limit and longitude wrapped.
func (v View) Pan(dx, dy float64) Location {
	ll := v.Unproject(Pixel{
		X: float64(v.Width)/2 - dx,
		Y: float64(v.Height)/2 - dy,
	})
	loc := v.Center
	loc.Lng = wrapLng(ll[0])
	loc.Lat = math.Max(-MaxLat, math.Min(MaxLat, ll[1]))
	return loc
}

// DegreesPerPixel approximates the longitude span of one pixel at the center.
func (v View) DegreesPerPixel() float64 {
	return 360 / worldSize(v.Center.Zoom)
}

func wrapLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
