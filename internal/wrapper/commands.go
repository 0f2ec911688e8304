package wrapper

import (
	"strings"
	"time"

	"github.com/coreman2200/lightwrap/internal/effect"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

// interpret mutates state for one command. Callers hold w.mu.
func (w *Layer) interpret(cmd string, d CommandData, now time.Time) {
	switch cmd {
	case SetLighting:
		w.fill(d.Start())

	case LFXUpdate:
		c := d.Start()
		w.fill(c)
		for l := range w.extraKeys {
			w.extraKeys[l] = c
		}

	case SetLightingForKeyWithKeyName, SetLightingForKeyWithScanCode:
		led, ok := w.keys.KeyLED(d.Key)
		if !ok {
			return
		}
		if slot, ok := w.keys.BitmapSlot(led); ok && slot < len(w.bitmap) {
			w.bitmap[slot] = d.Start().Packed()
		}

	case FlashSingleKey:
		if led, ok := w.keys.KeyLED(d.Key); ok {
			w.keyEffects.Put(effect.NewFlashKey(led, d.Start(), d.duration(), d.interval(), now))
		}

	case PulseSingleKey:
		led, ok := w.keys.KeyLED(d.Key)
		if !ok {
			return
		}
		duration := d.duration()
		if d.Interval == 0 {
			duration = 0
		}
		w.keyEffects.Put(effect.NewPulseKey(led, d.Start(), d.End(), duration, now))

	case PulseLighting:
		w.current = effect.NewPulse(d.Start(), d.End(), d.duration(), d.interval(), now)

	case FlashLighting:
		w.current = effect.NewFlash(d.Start(), d.duration(), d.interval(), now)

	case StopEffects:
		w.keyEffects.Clear()
		w.current = nil

	case LFXGetNumDevices, LFXGetNumLights, LFXLight, LFXSetLightColor:
		w.retain()

	case LFXSetLightActionColor, LFXActionColor:
		primary := rgb.Transparent
		if w.current != nil {
			primary = w.current.At(now)
		}
		w.current = lfxAction(d.EffectType, primary, d.Start(), d.duration(), now)

	case LFXSetLightActionColorEx, LFXActionColorEx:
		w.current = lfxAction(d.EffectType, d.Start(), d.End(), d.duration(), now)

	case LFXReset:
		w.current = nil

	case CreateKeyboardEffect:
		primary, secondary := rgb.Red, rgb.Blue
		if d.hasStart() {
			primary = d.Start()
		}
		if d.hasEnd() {
			secondary = d.End()
		}
		w.current = w.keyboardEffect(d, primary, secondary, now)

	case CreateMouseEffect, CreateMousepadEffect, SetLightingFromBitmap:
		// reserved

	default:
		w.log.Info().Str("command", cmd).Msg("unknown wrapper command")
		if w.onUnknown != nil {
			w.onUnknown(cmd)
		}
	}
}

// fill paints the whole bitmap with c unless c is already the fill color.
func (w *Layer) fill(c rgb.Color) {
	if w.lastFill.Equal(c) {
		return
	}
	w.lastFill = c
	packed := c.Packed()
	for i := range w.bitmap {
		w.bitmap[i] = packed
	}
}

// retain re-asserts the last fill color over the bitmap and every extra key.
func (w *Layer) retain() {
	packed := w.lastFill.Packed()
	for i := range w.bitmap {
		w.bitmap[i] = packed
	}
	for l := range w.extraKeys {
		w.extraKeys[l] = w.lastFill
	}
}

func lfxAction(kind string, primary, secondary rgb.Color, duration time.Duration, now time.Time) *effect.EntireEffect {
	switch kind {
	case LFXActionColorType:
		return effect.NewSolid(primary, now)
	case LFXActionPulseType:
		return effect.NewPulse(primary, secondary, duration, 0, now)
	case LFXActionMorphType:
		return effect.NewMorph(primary, secondary, duration, now)
	default:
		return nil
	}
}

func (w *Layer) keyboardEffect(d CommandData, primary, secondary rgb.Color, now time.Time) *effect.EntireEffect {
	switch strings.ToUpper(d.EffectType) {
	case ChromaBreathing, Breathing:
		mode := effect.TwoColors
		if strings.EqualFold(d.EffectConfig, RandomColorsConfig) {
			mode = effect.RandomColors
		}
		return effect.NewBreathing(primary, secondary, mode, w.randomColor, now)
	default:
		return nil
	}
}

func (w *Layer) randomColor() rgb.Color {
	return effect.RandomColor(w.rand)
}
