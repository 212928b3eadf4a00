package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#b8b8b8")
	require.NoError(t, err)
	assert.Equal(t, DefaultBackground, c)

	c, err = ParseHexColor("00ff7f")
	require.NoError(t, err)
	assert.Equal(t, RGB{R: 0, G: 255, B: 127}, c)
	assert.Equal(t, "#00ff7f", c.Hex())

	_, err = ParseHexColor("#zzzzzz")
	assert.Error(t, err)
}

func TestIsBackground_StrictThreshold(t *testing.T) {
	// 7+6+6 = 19
	assert.True(t, IsBackground(191, 190, 190, DefaultBackground, 20))
	// 7+7+6 = 20
	assert.False(t, IsBackground(191, 191, 190, DefaultBackground, 20))
	assert.True(t, IsBackground(184, 184, 184, DefaultBackground, 1))
	assert.False(t, IsBackground(184, 184, 184, DefaultBackground, 0))
}

func TestDetectBackground(t *testing.T) {
	got := DetectBackground(filled(64, 64, grey))
	assert.InDelta(t, 184, int(got.R), 3)
	assert.InDelta(t, 184, int(got.G), 3)
	assert.InDelta(t, 184, int(got.B), 3)
}

func TestDetectMatte_Corners(t *testing.T) {
	img := filled(20, 20, grey)
	fillRect(img, image.Rect(2, 2, 18, 18), red)
	assert.Equal(t, DefaultBackground, DetectMatte(img, 20))
}

func TestDetectMatte_FallsBackToDominant(t *testing.T) {
	img := filled(40, 40, grey)
	fillRect(img, image.Rect(0, 0, 1, 1), blue)
	got := DetectMatte(img, 20)
	assert.InDelta(t, 184, int(got.R), 3)
}
