// Package enhance boosts colors before they are shown so dim vendor colors
// stay readable on real LEDs.
package enhance

import (
	"math"

	"github.com/coreman2200/lightwrap/internal/rgb"
)

type Mode int

const (
	Linear Mode = 0
	HSV    Mode = 1
)

// Config is the render-time enhancement snapshot.
type Config struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Mode        Mode    `yaml:"mode" json:"mode"`
	ColorFactor int     `yaml:"color_factor" json:"color_factor"`
	HSVSine     float64 `yaml:"hsv_sine" json:"hsv_sine"`
	HSVGamma    float64 `yaml:"hsv_gamma" json:"hsv_gamma"`
}

// Default matches the stock wrapper layer settings.
func Default() Config {
	return Config{
		Enabled:     true,
		Mode:        Linear,
		ColorFactor: 90,
		HSVSine:     0.1,
		HSVGamma:    2.5,
	}
}

// Apply returns c boosted according to cfg. Disabled configs and unknown modes pass c through.
func Apply(c rgb.Color, cfg Config) rgb.Color {
	if !cfg.Enabled {
		return c
	}
	switch cfg.Mode {
	case Linear:
		return linearBoost(c, cfg.ColorFactor)
	case HSV:
		return hsvBoost(c, cfg.HSVSine, cfg.HSVGamma)
	default:
		return c
	}
}

// Each term uses the integer quotient channel/factor.
func linearBoost(c rgb.Color, factor int) rgb.Color {
	if factor <= 0 {
		return c
	}
	boost := (1.0 - float64(int(c.R)/factor)) +
		(1.0 - float64(int(c.G)/factor)) +
		(1.0 - float64(int(c.B)/factor))
	if boost <= 1.0 {
		boost = 1.0
	}
	return c.Scale(boost)
}

// V' = min(1, (X*sin(2*pi*V) + V)^(1/gamma))
// A zero gamma gives an infinite exponent: values below 1 go dark, 1 stays lit.
func hsvBoost(c rgb.Color, sine, gamma float64) rgb.Color {
	h, s, v := c.HSV()
	base := sine*math.Sin(2*math.Pi*v) + v
	if base < 0 {
		base = 0
	}
	v = math.Min(1, math.Pow(base, 1.0/gamma))
	out := rgb.FromHSV(h, s, v)
	out.A = c.A
	return out
}
