package rgb

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Bit offsets of each channel inside a packed 0xRRGGBB integer.
const (
	RedOffset   uint8 = 0x10
	GreenOffset uint8 = 0x08
	BlueOffset  uint8 = 0x0

	MaxPacked = 0xFFFFFF
)

// Color is an 8-bit RGB value. Alpha is carried along but never used for blending.
type Color struct {
	R, G, B, A uint8
}

var (
	Black       = Color{A: 255}
	Red         = Color{R: 255, A: 255}
	Green       = Color{G: 255, A: 255}
	Blue        = Color{B: 255, A: 255}
	White       = Color{R: 255, G: 255, B: 255, A: 255}
	Transparent = Color{}
)

// New returns an opaque color.
func New(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// Clamped builds an opaque color from wide channel values, clamping each into [0,255].
func Clamped(r, g, b int) Color {
	return New(clampByte(r), clampByte(g), clampByte(b))
}

// FromPacked decodes a 0xRRGGBB integer. Values outside [0, 0xFFFFFF] are clamped first.
func FromPacked(v int) Color {
	if v < 0 {
		v = 0
	} else if v > MaxPacked {
		v = MaxPacked
	}
	return New(getcolor(v, RedOffset), getcolor(v, GreenOffset), getcolor(v, BlueOffset))
}

// Packed encodes the color as 0xRRGGBB.
func (c Color) Packed() int {
	return int(c.R)<<RedOffset | int(c.G)<<GreenOffset | int(c.B)<<BlueOffset
}

// RGBA implements image/color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	a = uint32(c.A) * 0x101
	return
}

// Equal compares the RGB channels only.
func (c Color) Equal(o Color) bool {
	return c.R == o.R && c.G == o.G && c.B == o.B
}

// Scale multiplies every channel by s, truncating toward zero and clamping to [0,255].
// A NaN scalar yields black.
func (c Color) Scale(s float64) Color {
	return Color{
		R: mulByte(c.R, s),
		G: mulByte(c.G, s),
		B: mulByte(c.B, s),
		A: c.A,
	}
}

// Blend mixes from toward to by f, where f is clamped to [0,1].
// f == 0 returns from exactly, f == 1 returns to exactly.
func Blend(from, to Color, f float64) Color {
	if f < 0 || math.IsNaN(f) {
		f = 0
	} else if f > 1 {
		f = 1
	}
	mix := func(a, b uint8) uint8 {
		v := float64(b)*f + float64(a)*(1.0-f)
		if v > 255 {
			v = 255
		}
		return uint8(v)
	}
	return Color{
		R: mix(from.R, to.R),
		G: mix(from.G, to.G),
		B: mix(from.B, to.B),
		A: mix(from.A, to.A),
	}
}

// HSV returns hue in [0,360), saturation and value in [0,1].
func (c Color) HSV() (h, s, v float64) {
	cf := colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
	return cf.Hsv()
}

// FromHSV converts back to an opaque color using the six-sector formulas, rounding to nearest.
func FromHSV(h, s, v float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return New(r, g, b)
}

func getcolor(c int, off uint8) uint8 {
	return uint8((c >> off) & 0xFF)
}

func mulByte(b uint8, s float64) uint8 {
	v := float64(b) * s
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func clampByte(n int) uint8 {
	if n <= 0 {
		return 0
	}
	if n >= 255 {
		return 255
	}
	return uint8(n)
}
