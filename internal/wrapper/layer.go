// Package wrapper turns commands from wrapped vendor lighting SDKs into a
// continuously evolving LED image.
//
// A Layer owns all mutable state behind one mutex. Commands arrive through
// Apply from the transport; frames are sampled through Render by the frame
// loop. The two never interleave.
package wrapper

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightwrap/internal/effect"
	"github.com/coreman2200/lightwrap/internal/enhance"
	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

// KeyResolver maps vendor key identifiers onto LEDs and bitmap slots.
type KeyResolver interface {
	BitmapSlot(l keymap.LED) (int, bool)
	KeyLED(code int) (keymap.LED, bool)
}

// CloningMap mirrors each source LED onto a set of target LEDs.
type CloningMap map[keymap.LED][]keymap.LED

type Options struct {
	Keys    KeyResolver
	Enhance enhance.Config
	Cloning CloningMap
	Rand    *rand.Rand
	Logger  *zerolog.Logger
	Clock   func() time.Time

	// OnUnknown is called with the name of every unrecognized command.
	OnUnknown func(command string)
}

type Layer struct {
	mu sync.Mutex

	leds []keymap.LED
	keys KeyResolver

	cfg          enhance.Config
	cloning      CloningMap
	cloneTargets map[keymap.LED]bool

	bitmap     []int
	extraKeys  map[keymap.LED]rgb.Color
	lastFill   rgb.Color
	keyEffects *effect.Table
	current    *effect.EntireEffect

	rand      *rand.Rand
	log       zerolog.Logger
	now       func() time.Time
	onUnknown func(string)
}

// New builds a Layer that renders the given LEDs.
func New(leds []keymap.LED, opts Options) *Layer {
	w := &Layer{
		leds:       append([]keymap.LED(nil), leds...),
		keys:       opts.Keys,
		bitmap:     make([]int, keymap.BitmapSize),
		extraKeys:  map[keymap.LED]rgb.Color{},
		lastFill:   rgb.Black,
		keyEffects: effect.NewTable(),
		rand:       opts.Rand,
		log:        log.Logger,
		now:        opts.Clock,
		onUnknown:  opts.OnUnknown,
	}
	if w.keys == nil {
		w.keys = keymap.Logitech{}
	}
	if w.rand == nil {
		w.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger != nil {
		w.log = *opts.Logger
	}
	if w.now == nil {
		w.now = time.Now
	}
	w.setConfig(opts.Enhance, opts.Cloning)
	return w
}

// SetConfig swaps the enhancement and cloning snapshot used by later renders.
func (w *Layer) SetConfig(cfg enhance.Config, cloning CloningMap) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setConfig(cfg, cloning)
}

func (w *Layer) setConfig(cfg enhance.Config, cloning CloningMap) {
	w.cfg = cfg
	w.cloning = CloningMap{}
	w.cloneTargets = map[keymap.LED]bool{}
	for src, targets := range cloning {
		w.cloning[src] = append([]keymap.LED(nil), targets...)
		for _, t := range targets {
			w.cloneTargets[t] = true
		}
	}
}

// SetBitmap replaces the bitmap contents. The buffer keeps its fixed length:
// extra values are ignored and missing slots keep their current color.
func (w *Layer) SetBitmap(bitmap []int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	copy(w.bitmap, bitmap)
}

// Apply interprets one payload at the current time.
func (w *Layer) Apply(gs GameState) {
	w.ApplyAt(gs, w.now())
}

// ApplyAt interprets one payload as if it arrived at now.
func (w *Layer) ApplyAt(gs GameState, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(gs.Bitmap) != 0 {
		copy(w.bitmap, gs.Bitmap)
	}
	if gs.ExtraKeys != nil {
		for l, c := range gs.ExtraKeys.Colors() {
			w.extraKeys[l] = c
		}
	}
	w.interpret(gs.Command, gs.Data, now)
}

// Stats summarizes the live state for health reporting.
type Stats struct {
	KeyEffects   int       `json:"key_effects"`
	EntireEffect string    `json:"entire_effect,omitempty"`
	LastFill     rgb.Color `json:"last_fill"`
	ExtraKeys    int       `json:"extra_keys"`
}

func (w *Layer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Stats{
		KeyEffects: w.keyEffects.Len(),
		LastFill:   w.lastFill,
		ExtraKeys:  len(w.extraKeys),
	}
	if w.current != nil {
		s.EntireEffect = w.current.Kind.String()
	}
	return s
}
