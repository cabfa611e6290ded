package imgcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyHash(t *testing.T) {
	t.Parallel()

	r := require.New(t)

	key := NewKey("https://example.com/a.png")
	r.Equal("494a30704d4f32ac0b81739d18a66d3638d440cbc6f5669f6af66f840edee5ab", key.Hash())

	// Equal keys hash equally, distinct keys don't.
	r.Equal(key.Hash(), NewKey("https://example.com/a.png").Hash())
	r.NotEqual(key.Hash(), NewKey("https://example.com/b.png").Hash())

	r.Len(key.Hash(), 64)
}
