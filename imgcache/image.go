package imgcache

import "image"

// Image is an immutable decoded image with a precomputed eviction cost.
// The cost is an estimate (width * height * 4 bytes per pixel), used for
// cache accounting, not exact memory usage.
type Image struct {
	m    image.Image
	cost int64
}

func NewImage(m image.Image) *Image {
	bounds := m.Bounds()
	return &Image{
		m:    m,
		cost: int64(bounds.Dx()) * int64(bounds.Dy()) * 4,
	}
}

func (img *Image) Image() image.Image {
	return img.m
}

func (img *Image) Bounds() image.Rectangle {
	return img.m.Bounds()
}

func (img *Image) Cost() int64 {
	return img.cost
}
