package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/game/random"
)

func TestRandom_InRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := geo.Random(random.NewSource(rapid.Uint64().Draw(rt, "seed")))
		assert.GreaterOrEqual(rt, p.Lng, -180.0)
		assert.LessOrEqual(rt, p.Lng, 180.0)
		assert.GreaterOrEqual(rt, p.Lat, -90.0)
		assert.LessOrEqual(rt, p.Lat, 90.0)
	})
}

func TestRandom_UsesUniformDraws(t *testing.T) {
	p := geo.Random(&random.Script{Uniforms: []float64{0.75, 0.25}})
	assert.InDelta(t, 90.0, p.Lng, 1e-9)
	assert.InDelta(t, -45.0, p.Lat, 1e-9)
}

func TestMove_ZeroOffsetIsIdentity(t *testing.T) {
	p := geo.Point{Lng: 12.5, Lat: -33.25}
	assert.Equal(t, p, geo.Move(p, geo.Offset{}))
}

func TestMove_NorthAlongMeridian(t *testing.T) {
	p := geo.Move(geo.Point{}, geo.Offset{Vert: 1000})
	assert.InDelta(t, 0.0, p.Lng, 1e-12)
	assert.InDelta(t, 1000.0, geo.Distance(geo.Point{}, p), 1.0)
}

func TestMove_WrapsAntimeridian(t *testing.T) {
	p := geo.Move(geo.Point{Lng: 179.99, Lat: 0}, geo.Offset{Horz: 5000})
	assert.Less(t, p.Lng, 0.0)
	assert.GreaterOrEqual(t, p.Lng, -180.0)
}

func TestMove_ReflectsOverPole(t *testing.T) {
	p := geo.Move(geo.Point{Lng: 10, Lat: 89.99}, geo.Offset{Vert: 5000})
	assert.LessOrEqual(t, p.Lat, 90.0)
	assert.InDelta(t, -170.0, p.Lng, 1.0)
}

func TestMove_StaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := geo.Point{
			Lng: rapid.Float64Range(-180, 180).Draw(rt, "lng"),
			Lat: rapid.Float64Range(-89, 89).Draw(rt, "lat"),
		}
		off := geo.Offset{
			Horz: rapid.Float64Range(-50000, 50000).Draw(rt, "horz"),
			Vert: rapid.Float64Range(-50000, 50000).Draw(rt, "vert"),
		}
		p := geo.Move(start, off)
		assert.False(rt, math.IsNaN(p.Lng) || math.IsNaN(p.Lat))
		assert.GreaterOrEqual(rt, p.Lng, -180.0)
		assert.LessOrEqual(rt, p.Lng, 180.0)
		assert.GreaterOrEqual(rt, p.Lat, -90.0)
		assert.LessOrEqual(rt, p.Lat, 90.0)
	})
}

func TestDistance_Symmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := geo.Point{Lng: rapid.Float64Range(-180, 180).Draw(rt, "a.lng"), Lat: rapid.Float64Range(-90, 90).Draw(rt, "a.lat")}
		b := geo.Point{Lng: rapid.Float64Range(-180, 180).Draw(rt, "b.lng"), Lat: rapid.Float64Range(-90, 90).Draw(rt, "b.lat")}
		assert.InDelta(rt, geo.Distance(a, b), geo.Distance(b, a), 1e-6)
		assert.GreaterOrEqual(rt, geo.Distance(a, b), 0.0)
		assert.LessOrEqual(rt, geo.Distance(a, b), math.Pi*geo.EarthRadiusMeters+1)
	})
}

func TestOffset_DistSq(t *testing.T) {
	assert.Equal(t, 25.0, geo.Offset{Horz: 3, Vert: 4}.DistSq())
}

func TestRandomNear_WithinRadius(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := random.NewSource(rapid.Uint64().Draw(rt, "seed"))
		center := geo.Point{
			Lng: rapid.Float64Range(-170, 170).Draw(rt, "lng"),
			Lat: rapid.Float64Range(-60, 60).Draw(rt, "lat"),
		}
		p := geo.RandomNear(src, center, 100000)
		// The equirectangular offset is approximate; allow a small margin.
		assert.Less(rt, geo.Distance(center, p), 101000.0)
	})
}
