package cache

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okozhevnikov/imgcache/imgcache"
)

// newTestImage returns an image with a cost of width*height*4 bytes.
func newTestImage(width, height int) *imgcache.Image {
	return imgcache.NewImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

func TestMemory(t *testing.T) {
	t.Parallel()

	t.Run("get and put", func(t *testing.T) {
		r := require.New(t)

		c := NewMemory(10, 1<<20)

		_, ok := c.Get("a")
		r.False(ok)

		img := newTestImage(10, 10)
		c.Put("a", img)

		got, ok := c.Get("a")
		r.True(ok)
		r.Same(img, got)

		r.Equal(1, c.Len())
		r.Equal(int64(400), c.Cost())
	})

	t.Run("put replaces without duplicate accounting", func(t *testing.T) {
		r := require.New(t)

		c := NewMemory(10, 1<<20)

		c.Put("a", newTestImage(10, 10))
		c.Put("a", newTestImage(20, 10))

		r.Equal(1, c.Len())
		r.Equal(int64(800), c.Cost())
	})

	t.Run("evict by entry count", func(t *testing.T) {
		r := require.New(t)

		c := NewMemory(2, 1<<20)

		c.Put("a", newTestImage(1, 1))
		c.Put("b", newTestImage(1, 1))

		// Refresh recency of "a", so "b" is the LRU entry.
		_, ok := c.Get("a")
		r.True(ok)

		c.Put("c", newTestImage(1, 1))

		r.Equal(2, c.Len())

		_, ok = c.Get("b")
		r.False(ok)
		_, ok = c.Get("a")
		r.True(ok)
		_, ok = c.Get("c")
		r.True(ok)
	})

	t.Run("evict by cost", func(t *testing.T) {
		r := require.New(t)

		// Room for two 10x10 images (400 bytes each).
		c := NewMemory(100, 800)

		c.Put("a", newTestImage(10, 10))
		c.Put("b", newTestImage(10, 10))
		c.Put("c", newTestImage(10, 10))

		r.Equal(2, c.Len())
		r.LessOrEqual(c.Cost(), int64(800))

		// The oldest entry is gone, a fresh lookup is required.
		_, ok := c.Get("a")
		r.False(ok)
	})

	t.Run("single entry over cost budget doesn't crash", func(t *testing.T) {
		r := require.New(t)

		c := NewMemory(100, 100)

		c.Put("a", newTestImage(10, 10))

		// The only entry is evicted, cost goes back to zero.
		r.Equal(0, c.Len())
		r.Equal(int64(0), c.Cost())
	})

	t.Run("clear", func(t *testing.T) {
		r := require.New(t)

		c := NewMemory(10, 1<<20)

		c.Put("a", newTestImage(1, 1))
		c.Put("b", newTestImage(1, 1))
		c.Clear()

		r.Equal(0, c.Len())
		r.Equal(int64(0), c.Cost())

		_, ok := c.Get("a")
		r.False(ok)
	})
}
