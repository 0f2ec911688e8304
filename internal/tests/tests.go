// Package tests runs wiring test patterns in place of the wrapper output.
package tests

import (
	"fmt"
	"sync"
	"time"

	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep"
	RGBTest    Kind = "rgb_channels"
	RowSweep   Kind = "row_sweep"
)

// Kinds lists every runnable pattern.
var Kinds = []Kind{IndexSweep, RGBTest, RowSweep}

type Plan struct {
	Kind Kind
	Hold int // frames per step, at least 1
}

// Source is anything that can produce a frame image.
type Source interface {
	Render(now time.Time) map[keymap.LED]rgb.Color
}

// Runner renders the active plan one step per Hold frames and otherwise
// passes the base source through.
type Runner struct {
	mu     sync.Mutex
	lay    *layout.Layout
	base   Source
	plan   Plan
	step   int
	frames int

	// OnDone is called when a plan completes.
	OnDone func(Kind)
}

func NewRunner(l *layout.Layout, base Source) *Runner {
	return &Runner{lay: l, base: base}
}

// Start replaces any running plan.
func (r *Runner) Start(p Plan) error {
	switch p.Kind {
	case IndexSweep, RGBTest, RowSweep:
	default:
		return fmt.Errorf("unknown test %q", p.Kind)
	}
	if p.Hold < 1 {
		p.Hold = 1
	}
	r.mu.Lock()
	r.plan, r.step, r.frames = p, 0, 0
	r.mu.Unlock()
	return nil
}

func (r *Runner) Kind() Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.plan.Kind
}

func (r *Runner) Render(now time.Time) map[keymap.LED]rgb.Color {
	r.mu.Lock()
	if r.plan.Kind == None {
		r.mu.Unlock()
		return r.base.Render(now)
	}
	out, ok := r.fill()
	var done Kind
	if ok {
		r.frames++
		if r.frames >= r.plan.Hold {
			r.frames = 0
			r.step++
		}
	} else {
		done = r.plan.Kind
		r.plan = Plan{}
	}
	r.mu.Unlock()

	if done != None {
		if r.OnDone != nil {
			r.OnDone(done)
		}
		return r.base.Render(now)
	}
	return out
}

// fill draws the current step; false once the plan has no steps left.
func (r *Runner) fill() (map[keymap.LED]rgb.Color, bool) {
	leds := r.lay.LEDs()
	out := make(map[keymap.LED]rgb.Color, len(leds))
	for _, l := range leds {
		out[l] = rgb.Black
	}

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= len(leds) {
			return nil, false
		}
		out[leds[r.step]] = rgb.White
	case RGBTest:
		if r.step >= 3 {
			return nil, false
		}
		c := []rgb.Color{rgb.Red, rgb.Green, rgb.Blue}[r.step]
		for _, l := range leds {
			out[l] = c
		}
	case RowSweep:
		_, h := r.lay.Size()
		if r.step >= h {
			return nil, false
		}
		cyan := rgb.New(0, 255, 255)
		for _, l := range leds {
			if p, _ := r.lay.Position(l); p.Y == r.step {
				out[l] = cyan
			}
		}
	default:
		return nil, false
	}
	return out, true
}
