package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pokestack/internal/game/stats"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}

func TestDecodeBlock_Invalid(t *testing.T) {
	_, err := decodeBlock("not json")
	assert.Error(t, err)
	_, err = decodeBlock("[1,2,3]")
	assert.Error(t, err)
}

func TestMillisRoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)
	assert.True(t, at.Equal(fromMillis(toMillis(at))))
}

// Property: encodeBlock and decodeBlock are inverse on any block.
func TestPropertyBlockEncoding(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var b stats.Block
		for i := range b {
			b[i] = rapid.IntRange(0, 1000).Draw(t, "v")
		}
		raw, err := encodeBlock(b)
		require.NoError(t, err)
		got, err := decodeBlock(raw)
		require.NoError(t, err)
		if got != b {
			t.Fatalf("decoded %v, want %v", got, b)
		}
	})
}
