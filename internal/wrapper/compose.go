package wrapper

import (
	"time"

	"github.com/coreman2200/lightwrap/internal/enhance"
	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

// Render composites the fill, bitmap, per-key and whole-device layers at now.
// Later layers overwrite earlier ones wherever they set an LED. Expired per-key
// effects are evicted as a side effect.
func (w *Layer) Render(now time.Time) map[keymap.LED]rgb.Color {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[keymap.LED]rgb.Color, len(w.leds))

	fill := w.boost(w.lastFill)
	for _, l := range w.leds {
		out[l] = fill
	}

	for _, l := range w.leds {
		// clone targets only ever take their source's color
		if w.cloneTargets[l] {
			continue
		}
		c, ok := w.sourceColor(l)
		if !ok {
			continue
		}
		c = w.boost(c)
		out[l] = c
		for _, target := range w.cloning[l] {
			out[target] = c
		}
	}

	for _, e := range w.keyEffects.Live(now) {
		out[e.LED] = w.boost(e.At(now))
	}

	if w.current != nil {
		c := w.boost(w.current.At(now))
		for _, l := range w.leds {
			out[l] = c
		}
	}

	return out
}

// sourceColor resolves an LED through the extra-key map, then the bitmap.
func (w *Layer) sourceColor(l keymap.LED) (rgb.Color, bool) {
	if c, ok := w.extraKeys[l]; ok {
		return c, true
	}
	slot, ok := w.keys.BitmapSlot(l)
	if !ok || slot >= len(w.bitmap) {
		return rgb.Color{}, false
	}
	return rgb.FromPacked(w.bitmap[slot]), true
}

func (w *Layer) boost(c rgb.Color) rgb.Color {
	return enhance.Apply(c, w.cfg)
}
