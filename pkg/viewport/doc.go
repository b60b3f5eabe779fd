// Package viewport computes where the map starts and how screen pixels map
// to geographic coordinates.
//
// # Locations
//
// A [Location] is a zoom level plus a center point. The start location comes
// from, in order of preference: a URL-style hash of the form "#zoom/lat/lng",
// a GeoIP lookup of the viewer's address (see [Locator]), or the default
// named location (New York). [Parse] and [Location.Hash] round-trip the hash
// form used by leaflet-hash.
//
// # Projection
//
// A [View] pairs a center Location with a screen size. It converts between
// screen [Pixel] positions and longitude/latitude using spherical Web
// Mercator with 256-pixel tiles, the scheme slippy maps use:
//
//	v := viewport.View{Center: viewport.Default(), Width: 800, Height: 600}
//	ll := v.Unproject(viewport.Pixel{X: 400, Y: 300}) // the center
package viewport
