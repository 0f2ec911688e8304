// Package effect implements the vendor animation curves. Every curve is a
// function of the time elapsed since the effect was created, in whole
// milliseconds.
package effect

import (
	"math"
	"math/rand"
	"time"

	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

type Kind int

const (
	Flash Kind = iota
	Pulse
	Morph
	Solid
	Breathing
)

func (k Kind) String() string {
	switch k {
	case Flash:
		return "flash"
	case Pulse:
		return "pulse"
	case Morph:
		return "morph"
	case Solid:
		return "color"
	case Breathing:
		return "breathing"
	default:
		return "unknown"
	}
}

// BreathingMode selects how a breathing effect picks its colors.
type BreathingMode int

const (
	TwoColors BreathingMode = iota
	RandomColors
)

// Period used by curves that do not take one from the caller.
const defaultPeriod = 1000 * time.Millisecond

// KeyEffect animates a single LED. A zero Duration never expires.
type KeyEffect struct {
	LED      keymap.LED
	Kind     Kind
	Base     rgb.Color
	End      rgb.Color
	Duration time.Duration
	Interval time.Duration
	Started  time.Time
}

func NewFlashKey(l keymap.LED, c rgb.Color, duration, interval time.Duration, now time.Time) KeyEffect {
	return KeyEffect{LED: l, Kind: Flash, Base: c, Duration: duration, Interval: interval, Started: now}
}

func NewPulseKey(l keymap.LED, start, end rgb.Color, duration time.Duration, now time.Time) KeyEffect {
	return KeyEffect{LED: l, Kind: Pulse, Base: start, End: end, Duration: duration, Interval: time.Millisecond, Started: now}
}

// Expired reports whether a finite effect has run its course at now.
func (e KeyEffect) Expired(now time.Time) bool {
	return e.Duration != 0 && !now.Before(e.Started.Add(e.Duration))
}

// At evaluates the effect at now.
func (e KeyEffect) At(now time.Time) rgb.Color {
	t := elapsedMS(e.Started, now)
	switch e.Kind {
	case Flash:
		return flash(e.Base, t, e.Interval)
	case Pulse:
		period := e.Duration
		if period == 0 {
			period = defaultPeriod
		}
		return rgb.Blend(e.Base, e.End, sineSquared(t, period))
	default:
		return e.Base
	}
}

// EntireEffect animates every LED of the device at once. It never expires on its own.
type EntireEffect struct {
	Kind      Kind
	Base      rgb.Color
	Secondary rgb.Color
	Duration  time.Duration
	Interval  time.Duration
	Started   time.Time
	Mode      BreathingMode

	random func() rgb.Color
}

func NewFlash(c rgb.Color, duration, interval time.Duration, now time.Time) *EntireEffect {
	return &EntireEffect{Kind: Flash, Base: c, Duration: duration, Interval: interval, Started: now}
}

// NewPulse fades c to black and back once per second; the secondary color is kept but not shown.
func NewPulse(c, secondary rgb.Color, duration, interval time.Duration, now time.Time) *EntireEffect {
	return &EntireEffect{Kind: Pulse, Base: c, Secondary: secondary, Duration: duration, Interval: interval, Started: now}
}

func NewMorph(primary, secondary rgb.Color, duration time.Duration, now time.Time) *EntireEffect {
	return &EntireEffect{Kind: Morph, Base: primary, Secondary: secondary, Duration: duration, Started: now}
}

func NewSolid(c rgb.Color, now time.Time) *EntireEffect {
	return &EntireEffect{Kind: Solid, Base: c, Started: now}
}

// NewBreathing blends primary and secondary back and forth. In RandomColors mode the primary
// is drawn from random up front, the secondary keeps the given color until the first re-draw
// while sampling; random must be non-nil then.
func NewBreathing(primary, secondary rgb.Color, mode BreathingMode, random func() rgb.Color, now time.Time) *EntireEffect {
	e := &EntireEffect{Kind: Breathing, Base: primary, Secondary: secondary, Mode: mode, Started: now, random: random}
	if mode == RandomColors && random != nil {
		e.Base = random()
	}
	return e
}

// At evaluates the effect at now. Breathing in RandomColors mode mutates its colors as a side effect.
func (e *EntireEffect) At(now time.Time) rgb.Color {
	t := elapsedMS(e.Started, now)
	switch e.Kind {
	case Flash:
		return flash(e.Base, t, e.Interval)
	case Pulse:
		return e.Base.Scale(sineSquared(t, defaultPeriod))
	case Morph:
		return morph(e.Base, e.Secondary, t, e.Duration.Milliseconds())
	case Breathing:
		return e.breathe(t)
	default:
		return e.Base
	}
}

func (e *EntireEffect) breathe(t int64) rgb.Color {
	blend := sineSquared(t, defaultPeriod)
	if e.Mode == RandomColors && e.random != nil {
		// re-evaluated on every sample, not once per crossing
		if blend >= 0.95 {
			e.Base = e.random()
		} else if blend >= 0.5 {
			e.Secondary = e.random()
		}
	}
	return rgb.Blend(e.Base, e.Secondary, blend)
}

// The blend weight is t mod d in raw milliseconds, so anything past the
// first millisecond saturates to the secondary color.
func morph(primary, secondary rgb.Color, t, d int64) rgb.Color {
	if d <= 0 || t >= d {
		return secondary
	}
	return rgb.Blend(primary, secondary, float64(t%d))
}

// Blink on/off: round(sin(t/interval*pi)^2). An interval of zero is always off.
func flash(c rgb.Color, t int64, interval time.Duration) rgb.Color {
	iv := interval.Milliseconds()
	if iv <= 0 {
		return c.Scale(0)
	}
	s := math.Sin(float64(t) / float64(iv) * math.Pi)
	return c.Scale(math.RoundToEven(s * s))
}

func sineSquared(t int64, period time.Duration) float64 {
	s := math.Sin(float64(t) / float64(period.Milliseconds()) * math.Pi)
	return s * s
}

func elapsedMS(start, now time.Time) int64 {
	return now.Sub(start).Milliseconds()
}

// RandomColor draws a color with every channel in [0,255).
func RandomColor(r *rand.Rand) rgb.Color {
	return rgb.New(uint8(r.Intn(255)), uint8(r.Intn(255)), uint8(r.Intn(255)))
}
