// Package decoder turns raw bytes into decoded images, downsampling large
// ones to bound memory cost.
package decoder

import (
	"bytes"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/okozhevnikov/imgcache/imgcache"
	"github.com/okozhevnikov/imgcache/metrics"
	"github.com/okozhevnikov/imgcache/rlog"
)

type Decoder struct {
	maxDimension int
}

// New returns a decoder that caps the long edge of decoded images at
// maxDimension pixels, preserving aspect ratio.
func New(maxDimension int) *Decoder {
	return &Decoder{
		maxDimension: maxDimension,
	}
}

// Decode decodes raw bytes into an image. It returns nil for corrupt or
// unsupported data - the caller can't distinguish "corrupt" from "not an
// image", both are treated as a miss.
func (d *Decoder) Decode(data []byte) (res *imgcache.Image) {
	// Some decoders can panic on malformed input. A panic must fold to
	// a nil result like any other decode failure.
	defer func() {
		if r := recover(); r != nil {
			rlog.Errorf("image decode panicked: %v", r)
			metrics.DecodeErrors.Inc()
			res = nil
		}
	}()

	now := time.Now()

	m, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.DecodeErrors.Inc()
		return nil
	}

	newWidth, newHeight, shouldResize := fit(m.Bounds(), d.maxDimension, d.maxDimension)
	if shouldResize {
		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), m, m.Bounds(), draw.Src, nil)
		m = dst

		metrics.DecodeDownsampled.Inc()
	}

	metrics.DecodeDuration.Observe(time.Since(now).Seconds())
	return imgcache.NewImage(m)
}
