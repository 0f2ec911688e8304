package rgb_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/coreman2200/lightwrap/internal/rgb"
)

var TestPackedIsExpectedColor = []struct {
	Packed int
	Expect Color
}{
	{0xFF0000, Red},
	{0x00FF00, Green},
	{0x0000FF, Blue},
	{0x112233, New(0x11, 0x22, 0x33)},
	{-5, Black},
	{0x7FFFFFFF, White},
}

func TestFromPacked(t *testing.T) {
	for k, v := range TestPackedIsExpectedColor {
		t.Run("Given packed "+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, FromPacked(v.Packed))
		})
	}
}

func TestPackedRoundTrip(t *testing.T) {
	c := New(0xAB, 0x3B, 0x88)
	assert.Equal(t, 0xAB3B88, c.Packed())
	assert.Equal(t, c, FromPacked(c.Packed()))
}

func TestClamped(t *testing.T) {
	assert.Equal(t, New(0, 255, 12), Clamped(-1, 300, 12))
}

func TestScaleTruncatesAndClamps(t *testing.T) {
	c := New(100, 200, 3)
	assert.Equal(t, New(50, 100, 1), c.Scale(0.5))
	assert.Equal(t, New(200, 255, 6), c.Scale(2))
	assert.Equal(t, New(0, 0, 0), c.Scale(0))
	assert.Equal(t, New(0, 0, 0), c.Scale(-1))
}

func TestBlendEndpointsAndClamp(t *testing.T) {
	a := New(10, 20, 30)
	b := New(200, 100, 0)
	assert.Equal(t, a, Blend(a, b, 0))
	assert.Equal(t, b, Blend(a, b, 1))
	assert.Equal(t, b, Blend(a, b, 42))
	assert.Equal(t, a, Blend(a, b, -3))

	mid := Blend(New(0, 0, 0), New(200, 100, 50), 0.5)
	assert.Equal(t, New(100, 50, 25), mid)
}

func TestHSVRoundTrip(t *testing.T) {
	for _, c := range []Color{Red, Green, Blue, White, Black, New(12, 200, 99), New(250, 128, 7)} {
		h, s, v := c.HSV()
		assert.True(t, h >= 0 && h < 360, "hue out of range: %v", h)
		assert.Equal(t, c, FromHSV(h, s, v))
	}
}

func TestFromHSVWrapsHue(t *testing.T) {
	assert.Equal(t, FromHSV(10, 1, 1), FromHSV(370, 1, 1))
	assert.Equal(t, FromHSV(350, 1, 1), FromHSV(-10, 1, 1))
}
