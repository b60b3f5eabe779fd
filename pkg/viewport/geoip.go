package viewport

import (
	"net"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/oschwald/geoip2-golang"
)

// GeoIPZoom is the zoom used for locations derived from an IP address.
const GeoIPZoom = 12

// Locator maps client addresses to a start location using a MaxMind
// GeoLite2/GeoIP2 City database.
type Locator struct {
	db *geoip2.Reader
}

// OpenLocator opens the database at path.
func OpenLocator(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open geoip database %s", path)
	}
	return &Locator{db: db}, nil
}

// Locate returns the city-level location of ip. ok is false for private,
// unknown or unparsable addresses.
func (l *Locator) Locate(ip net.IP) (loc Location, ok bool) {
	if l == nil || l.db == nil || ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return Location{}, false
	}
	rec, err := l.db.City(ip)
	if err != nil {
		return Location{}, false
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Location{}, false
	}
	loc = Location{Lat: rec.Location.Latitude, Lng: rec.Location.Longitude, Zoom: GeoIPZoom}
	if loc.Validate() != nil {
		return Location{}, false
	}
	return loc, true
}

// Close releases the database.
func (l *Locator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
