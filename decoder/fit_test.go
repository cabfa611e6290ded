package decoder

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bounds    image.Rectangle
		maxWidth  int
		maxHeight int
		//
		wantWidth        int
		wantHeight       int
		wantShouldResize bool
	}{
		{
			bounds:    image.Rectangle{Max: image.Point{X: 1000, Y: 800}},
			maxWidth:  1000,
			maxHeight: 1000,
			//
			wantShouldResize: false,
		},
		{
			bounds:    image.Rectangle{Max: image.Point{X: 1100, Y: 800}},
			maxWidth:  1000,
			maxHeight: 1000,
			//
			wantShouldResize: true,
			wantWidth:        1000,
			wantHeight:       727,
		},
		{
			bounds:    image.Rectangle{Max: image.Point{X: 1000, Y: 1400}},
			maxWidth:  1000,
			maxHeight: 500,
			//
			wantShouldResize: true,
			wantWidth:        357,
			wantHeight:       500,
		},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			r := require.New(t)

			gotWidth, gotHeight, shouldResize := fit(tt.bounds, tt.maxWidth, tt.maxHeight)
			r.Equal(tt.wantWidth, gotWidth)
			r.Equal(tt.wantHeight, gotHeight)
			r.Equal(tt.wantShouldResize, shouldResize)
		})
	}
}
