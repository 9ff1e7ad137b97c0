package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/pokestack/internal/game/geo"
	"github.com/cory-johannsen/pokestack/internal/storage"
)

func TestAreaArgs(t *testing.T) {
	args := areaArgs(storage.Area{Center: geo.Point{Lng: 10, Lat: 20}, Radius: 1000, Limit: 5})
	assert.Len(t, args, 6)
	assert.Equal(t, 10.0, args[0])
	assert.Equal(t, 20.0, args[1])
	assert.Less(t, args[2].(float64), 20.0)
	assert.Greater(t, args[3].(float64), 20.0)
	assert.Equal(t, 1000.0, args[4])
	assert.Equal(t, int64(5), args[5])
}

func TestAreaArgs_Unbounded(t *testing.T) {
	args := areaArgs(storage.Area{})
	assert.Equal(t, -90.0, args[2])
	assert.Equal(t, 90.0, args[3])
	assert.Nil(t, args[5])
}

func TestNearbySQL(t *testing.T) {
	q := nearbySQL("creatures", creatureColumns, " AND level < $7")
	assert.True(t, strings.Contains(q, "FROM creatures"))
	assert.True(t, strings.Contains(q, "AND level < $7"))
	assert.True(t, strings.Contains(q, "ORDER BY dist"))
}
