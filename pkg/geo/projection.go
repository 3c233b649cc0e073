package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6_371_000.0

// degToMeters converts degree-scaled equirectangular distances to meters.
const degToMeters = math.Pi / 180 * earthRadiusMeters

// Projection maps WGS84 coordinates onto a local plane measured in meters,
// using an equirectangular projection centered on an origin. Accurate to
// well under 1% within a few tens of kilometers of the origin, which is the
// scale of a roadmap.
type Projection struct {
	originLat float64
	originLon float64
	cosLat    float64
}

// NewProjection returns a projection centered on (lat, lon).
func NewProjection(lat, lon float64) Projection {
	return Projection{
		originLat: lat,
		originLon: lon,
		cosLat:    math.Cos(lat * math.Pi / 180),
	}
}

// CenteredOn returns a projection centered on the midpoint of the given
// coordinates' bounding box.
func CenteredOn(lats, lons []float64) Projection {
	if len(lats) == 0 || len(lats) != len(lons) {
		return NewProjection(0, 0)
	}
	minLat, maxLat := lats[0], lats[0]
	minLon, maxLon := lons[0], lons[0]
	for i := range lats {
		minLat = math.Min(minLat, lats[i])
		maxLat = math.Max(maxLat, lats[i])
		minLon = math.Min(minLon, lons[i])
		maxLon = math.Max(maxLon, lons[i])
	}
	return NewProjection((minLat+maxLat)/2, (minLon+maxLon)/2)
}

// ToPlanar projects (lat, lon) to planar x (east) and y (north) in meters.
func (p Projection) ToPlanar(lat, lon float64) orb.Point {
	x := (lon - p.originLon) * p.cosLat * degToMeters
	y := (lat - p.originLat) * degToMeters
	return orb.Point{x, y}
}

// ToLatLng inverts ToPlanar.
func (p Projection) ToLatLng(pt orb.Point) (lat, lon float64) {
	lat = pt[1]/degToMeters + p.originLat
	if p.cosLat == 0 {
		return lat, p.originLon
	}
	lon = pt[0]/(p.cosLat*degToMeters) + p.originLon
	return lat, lon
}
