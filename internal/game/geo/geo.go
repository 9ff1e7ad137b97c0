// Package geo provides the coordinate arithmetic behind movement and
// proximity queries.
package geo

import (
	"math"

	"github.com/cory-johannsen/pokestack/internal/game/random"
)

// EarthRadiusMeters is the equatorial radius used by every conversion.
const EarthRadiusMeters = 6378137.0

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Offset is a displacement in meters: Horz eastwards, Vert northwards.
type Offset struct {
	Horz float64 `json:"horz"`
	Vert float64 `json:"vert"`
}

// DistSq returns Horz² + Vert².
func (o Offset) DistSq() float64 {
	return o.Horz*o.Horz + o.Vert*o.Vert
}

// Random returns a point with longitude uniform in [-180, 180] and latitude
// uniform in [-90, 90].
func Random(src random.Source) Point {
	return Point{Lng: src.Uniform(-180, 180), Lat: src.Uniform(-90, 90)}
}

// RandomNear returns a point at a uniform distance in [0, maxRadius) meters
// and a uniform bearing from center.
func RandomNear(src random.Source, center Point, maxRadius float64) Point {
	radius := src.Uniform(0, maxRadius)
	angle := src.Uniform(-math.Pi, math.Pi)
	return Move(center, Offset{Horz: radius * math.Cos(angle), Vert: radius * math.Sin(angle)})
}

// Move displaces p by o using an equirectangular approximation at the mean
// latitude, then wraps the result back into [-180, 180] x [-90, 90].
// Crossing a pole reflects the latitude and flips the longitude by 180°.
//
// Postcondition: the returned point is within the valid coordinate ranges.
func Move(p Point, o Offset) Point {
	lat := p.Lat + 180*o.Vert/(math.Pi*EarthRadiusMeters)
	latRad := ((p.Lat + lat) / 2) * math.Pi / 180
	lng := p.Lng + 180*o.Horz/(math.Pi*EarthRadiusMeters*math.Cos(latRad))

	lng = math.Mod(lng, 360)
	lat = math.Mod(lat, 180)
	if lng > 180 || lng < -180 {
		lng -= sign(lng) * 360
	}
	if lat > 90 || lat < -90 {
		lat = sign(lat)*180 - lat
		lng -= sign(lng) * 180
	}
	return Point{Lng: lng, Lat: lat}
}

// Distance returns the great-circle distance between a and b in meters.
//
// Postcondition: result >= 0.
func Distance(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
