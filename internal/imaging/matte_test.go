package imaging

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveMatte_PixelLocal(t *testing.T) {
	// tall enough to take the parallel path
	src := image.NewNRGBA(image.Rect(0, 0, 37, 150))
	rng := rand.New(rand.NewPCG(7, 11))
	for y := 0; y < 150; y++ {
		for x := 0; x < 37; x++ {
			c := color.NRGBA{A: uint8(rng.IntN(256))}
			if rng.IntN(2) == 0 {
				c.R = uint8(184 + rng.IntN(7) - 3)
				c.G = uint8(184 + rng.IntN(7) - 3)
				c.B = uint8(184 + rng.IntN(7) - 3)
			} else {
				c.R, c.G, c.B = uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256))
			}
			src.SetNRGBA(x, y, c)
		}
	}

	out := RemoveMatte(src, DefaultBackground, 20)

	for y := 0; y < 150; y++ {
		for x := 0; x < 37; x++ {
			in := src.NRGBAAt(x, y)
			got := out.NRGBAAt(x, y)
			if IsBackground(in.R, in.G, in.B, DefaultBackground, 20) {
				assert.Equal(t, uint8(0), got.A, "pixel %d,%d should be transparent", x, y)
			} else {
				assert.Equal(t, in, got, "pixel %d,%d should be unchanged", x, y)
			}
		}
	}
}

func TestRemoveMatte_DoesNotTouchInput(t *testing.T) {
	src := filled(8, 8, grey)
	out := RemoveMatte(src, DefaultBackground, 20)

	assert.Equal(t, uint8(255), src.NRGBAAt(3, 3).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(3, 3).A)
}

func TestRemoveMatte_ZeroToleranceKeepsEverything(t *testing.T) {
	src := filled(4, 4, grey)
	out := RemoveMatte(src, DefaultBackground, 0)
	assert.Equal(t, grey, out.NRGBAAt(0, 0))
}
