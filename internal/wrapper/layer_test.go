package wrapper

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/lightwrap/internal/effect"
	"github.com/coreman2200/lightwrap/internal/enhance"
	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

const (
	scanESC = 0x01
	scanW   = 0x11
	scanA   = 0x1e
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int64) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func newLayer(t *testing.T, opts Options) *Layer {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return t0 }
	}
	return New(layout.Keyboard().LEDs(), opts)
}

func color(c rgb.Color) CommandData {
	return CommandData{
		RedStart: int(c.R), GreenStart: int(c.G), BlueStart: int(c.B),
		RedEnd: -1, GreenEnd: -1, BlueEnd: -1,
	}
}

func cmd(name string, d CommandData) GameState {
	return GameState{Command: name, Data: d}
}

func TestSetLightingFillsEveryLED(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)

	out := w.Render(t0)
	require.NotEmpty(t, out)
	for l, c := range out {
		assert.Equal(t, rgb.Red, c, l)
	}
}

func TestSetLightingUnchangedColorLeavesBitmap(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)

	key := color(rgb.Blue)
	key.Key = scanW
	w.ApplyAt(cmd(SetLightingForKeyWithScanCode, key), t0)

	// equal by value, not identity
	w.ApplyAt(cmd(SetLighting, color(rgb.New(255, 0, 0))), t0)

	out := w.Render(t0)
	assert.Equal(t, rgb.Blue, out["W"])
	assert.Equal(t, rgb.Red, out["ESC"])
}

func TestLFXUpdateOverwritesExtraKeys(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(GameState{Command: "noop", ExtraKeys: &ExtraKeys{Logo: 0x0000FF}}, t0)
	assert.Equal(t, rgb.Blue, w.Render(t0)[keymap.Logo])

	w.ApplyAt(cmd(LFXUpdate, color(rgb.Green)), t0)
	out := w.Render(t0)
	assert.Equal(t, rgb.Green, out[keymap.Logo])
	assert.Equal(t, rgb.Green, out[keymap.G(3)])
	assert.Equal(t, rgb.Green, out["ESC"])
}

func TestRetainCommandsReassertFill(t *testing.T) {
	for _, name := range []string{LFXGetNumDevices, LFXGetNumLights, LFXLight, LFXSetLightColor} {
		t.Run(name, func(t *testing.T) {
			w := newLayer(t, Options{})
			w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)
			key := color(rgb.Blue)
			key.Key = scanW
			w.ApplyAt(cmd(SetLightingForKeyWithKeyName, key), t0)
			w.ApplyAt(GameState{Command: "noop", ExtraKeys: &ExtraKeys{Logo: 0x00FF00}}, t0)

			w.ApplyAt(cmd(name, color(rgb.White)), t0)
			out := w.Render(t0)
			assert.Equal(t, rgb.Red, out["W"])
			assert.Equal(t, rgb.Red, out[keymap.Logo])
		})
	}
}

func TestUnaddressableKeyIsDropped(t *testing.T) {
	w := newLayer(t, Options{})
	d := color(rgb.Green)
	d.Key = 0x7777
	w.ApplyAt(cmd(SetLightingForKeyWithScanCode, d), t0)
	w.ApplyAt(cmd(FlashSingleKey, d), t0)
	assert.Zero(t, w.Stats().KeyEffects)
}

func TestPulseSingleKeyZeroIntervalIsInfinite(t *testing.T) {
	w := newLayer(t, Options{})
	d := CommandData{RedStart: 255, RedEnd: 0, GreenEnd: 0, BlueEnd: 255, Duration: 500, Interval: 0, Key: scanA}

	for i := 0; i < 2; i++ {
		w.ApplyAt(cmd(PulseSingleKey, d), t0)
		e, ok := w.keyEffects.Get("A")
		require.True(t, ok)
		assert.Equal(t, effect.Pulse, e.Kind)
		assert.Zero(t, e.Duration)
	}

	w.Render(at(60_000))
	assert.Equal(t, 1, w.Stats().KeyEffects)
}

func TestKeyEffectEvictedAtDuration(t *testing.T) {
	w := newLayer(t, Options{})
	d := color(rgb.Green)
	d.Key = scanA
	d.Duration = 500
	d.Interval = 1000
	w.ApplyAt(cmd(FlashSingleKey, d), t0)

	// sin^2(499/1000*pi) rounds to 1
	assert.Equal(t, rgb.Green, w.Render(at(499))["A"])
	assert.Equal(t, 1, w.Stats().KeyEffects)

	assert.Equal(t, rgb.Black, w.Render(at(500))["A"])
	assert.Zero(t, w.Stats().KeyEffects)
}

func TestCloningMirrorsSource(t *testing.T) {
	w := newLayer(t, Options{Cloning: CloningMap{"A": {"B", "C"}}})

	bitmap := make([]int, keymap.BitmapSize)
	slotA, _ := keymap.BitmapSlot("A")
	slotB, _ := keymap.BitmapSlot("B")
	slotC, _ := keymap.BitmapSlot("C")
	bitmap[slotA] = 0x102030
	bitmap[slotB] = 0xFF0000
	bitmap[slotC] = 0x00FF00
	w.ApplyAt(GameState{Command: "noop", Bitmap: bitmap}, t0)

	out := w.Render(t0)
	want := rgb.New(0x10, 0x20, 0x30)
	assert.Equal(t, want, out["A"])
	assert.Equal(t, want, out["B"])
	assert.Equal(t, want, out["C"])
}

func TestCloningUsesEnhancedColor(t *testing.T) {
	cfg := enhance.Default()
	w := newLayer(t, Options{Enhance: cfg, Cloning: CloningMap{keymap.Logo: {"ESC"}}})
	w.ApplyAt(GameState{Command: "noop", ExtraKeys: &ExtraKeys{Logo: 0x0A1400}}, t0)

	out := w.Render(t0)
	want := enhance.Apply(rgb.New(10, 20, 0), cfg)
	assert.Equal(t, want, out[keymap.Logo])
	assert.Equal(t, want, out["ESC"])
}

func TestFlashKeyOverFill(t *testing.T) {
	cfg := enhance.Default()
	w := newLayer(t, Options{Enhance: cfg})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)

	red := enhance.Apply(rgb.Red, cfg)
	for l, c := range w.Render(t0) {
		assert.Equal(t, red, c, l)
	}

	d := color(rgb.Green)
	d.Key = scanESC
	d.Duration = 1000
	d.Interval = 500
	w.ApplyAt(cmd(FlashSingleKey, d), t0)

	out := w.Render(at(250))
	assert.Equal(t, enhance.Apply(rgb.Green, cfg), out["ESC"])
	for l, c := range out {
		if l != "ESC" {
			assert.Equal(t, red, c, l)
		}
	}
}

func TestWholeDeviceEffectCoversEverything(t *testing.T) {
	w := newLayer(t, Options{})
	d := color(rgb.Green)
	d.Key = scanESC
	d.Interval = 500
	w.ApplyAt(cmd(PulseSingleKey, d), t0)

	w.ApplyAt(cmd(FlashLighting, CommandData{BlueStart: 255, Duration: 0, Interval: 500}), t0)
	for l, c := range w.Render(at(250)) {
		assert.Equal(t, rgb.Blue, c, l)
	}
	assert.Equal(t, "flash", w.Stats().EntireEffect)
}

func TestStopEffectsClearsBothLayers(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)

	d := color(rgb.Green)
	d.Key = scanESC
	d.Interval = 500
	w.ApplyAt(cmd(FlashSingleKey, d), t0)
	w.ApplyAt(cmd(PulseLighting, color(rgb.Blue)), t0)

	w.ApplyAt(cmd(StopEffects, CommandData{}), t0)
	s := w.Stats()
	assert.Zero(t, s.KeyEffects)
	assert.Empty(t, s.EntireEffect)

	for l, c := range w.Render(at(250)) {
		assert.Equal(t, rgb.Red, c, l)
	}
}

func TestLFXResetKeepsKeyEffects(t *testing.T) {
	w := newLayer(t, Options{})
	d := color(rgb.Green)
	d.Key = scanESC
	w.ApplyAt(cmd(FlashSingleKey, d), t0)
	w.ApplyAt(cmd(PulseLighting, color(rgb.Blue)), t0)

	w.ApplyAt(cmd(LFXReset, CommandData{}), t0)
	s := w.Stats()
	assert.Equal(t, 1, s.KeyEffects)
	assert.Empty(t, s.EntireEffect)
}

func TestLFXActionColorUsesCurrentEffectAsPrimary(t *testing.T) {
	w := newLayer(t, Options{})

	d := color(rgb.Green)
	d.EffectType = LFXActionColorType
	w.ApplyAt(cmd(LFXSetLightActionColor, d), t0)
	// nothing was running, so the primary is transparent
	assert.Equal(t, rgb.Transparent, w.Render(t0)["ESC"])

	w.ApplyAt(cmd(LFXSetLightActionColorEx, CommandData{RedStart: 255, BlueEnd: 255, EffectType: LFXActionColorType}), t0)
	assert.Equal(t, rgb.Red, w.Render(t0)["ESC"])

	d = color(rgb.Blue)
	d.EffectType = LFXActionMorphType
	d.Duration = 1000
	w.ApplyAt(cmd(LFXActionColor, d), t0)
	out := w.Render(t0)
	assert.Equal(t, rgb.Red, out["ESC"])
	assert.Equal(t, rgb.Blue, w.Render(at(1000))["ESC"])
	assert.Equal(t, "morph", w.Stats().EntireEffect)
}

func TestLFXActionPulse(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(LFXActionColorEx, CommandData{RedStart: 200, BlueEnd: 255, Duration: 2000, EffectType: LFXActionPulseType}), t0)

	assert.Equal(t, rgb.Black, w.Render(t0)["ESC"])
	assert.Equal(t, rgb.New(200, 0, 0), w.Render(at(500))["ESC"])
}

func TestLFXActionUnknownTypeClears(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(PulseLighting, color(rgb.Blue)), t0)
	w.ApplyAt(cmd(LFXActionColorEx, CommandData{EffectType: "LFX_ACTION_SPIN"}), t0)
	assert.Empty(t, w.Stats().EntireEffect)
}

func TestCreateKeyboardEffectDefaults(t *testing.T) {
	w := newLayer(t, Options{})
	d := CommandData{RedStart: -1, GreenStart: -1, BlueStart: -1, RedEnd: -1, GreenEnd: 0, BlueEnd: 0, EffectType: ChromaBreathing}
	w.ApplyAt(cmd(CreateKeyboardEffect, d), t0)

	require.NotNil(t, w.current)
	assert.Equal(t, effect.Breathing, w.current.Kind)
	assert.Equal(t, rgb.Red, w.current.Base)
	assert.Equal(t, rgb.Blue, w.current.Secondary)

	// blend is zero at t=0
	assert.Equal(t, rgb.Red, w.Render(t0)["ESC"])
}

func TestCreateKeyboardEffectRandom(t *testing.T) {
	w := newLayer(t, Options{})
	d := color(rgb.White)
	d.EffectType = "breathing"
	d.EffectConfig = RandomColorsConfig
	w.ApplyAt(cmd(CreateKeyboardEffect, d), t0)

	require.NotNil(t, w.current)
	assert.Equal(t, effect.RandomColors, w.current.Mode)

	before := w.current.Base
	w.Render(at(500)) // blend 1.0
	assert.NotEqual(t, before, w.current.Base)
}

func TestCreateKeyboardEffectUnknownClears(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(PulseLighting, color(rgb.Blue)), t0)
	w.ApplyAt(cmd(CreateKeyboardEffect, CommandData{EffectType: "WAVE"}), t0)
	assert.Nil(t, w.current)
}

func TestReservedCommandsAreNoops(t *testing.T) {
	var unknown []string
	w := newLayer(t, Options{OnUnknown: func(c string) { unknown = append(unknown, c) }})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)
	before := w.Render(t0)

	for _, name := range []string{CreateMouseEffect, CreateMousepadEffect, SetLightingFromBitmap} {
		w.ApplyAt(cmd(name, color(rgb.Blue)), t0)
	}
	assert.Equal(t, before, w.Render(t0))
	assert.Empty(t, unknown)
}

func TestUnknownCommandReported(t *testing.T) {
	var unknown []string
	w := newLayer(t, Options{OnUnknown: func(c string) { unknown = append(unknown, c) }})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)
	before := w.Render(t0)

	w.ApplyAt(cmd("LFX_Teleport", color(rgb.Blue)), t0)
	assert.Equal(t, []string{"LFX_Teleport"}, unknown)
	assert.Equal(t, before, w.Render(t0))
}

func TestShortBitmapKeepsRemainingSlots(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(SetLighting, color(rgb.Red)), t0)
	w.SetBitmap([]int{0x00FF00})

	out := w.Render(t0)
	assert.Equal(t, rgb.Green, out["ESC"])
	assert.Equal(t, rgb.Red, out["F1"])
}

func TestMissingExtraKeysSnapshotIsIgnored(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(GameState{Command: "noop", ExtraKeys: &ExtraKeys{Logo: 0xFF0000}}, t0)
	w.ApplyAt(GameState{Command: "noop"}, t0)
	assert.Equal(t, rgb.Red, w.Render(t0)[keymap.Logo])
}

func TestApplyUsesClock(t *testing.T) {
	now := t0
	w := newLayer(t, Options{Clock: func() time.Time { return now }})
	d := color(rgb.Green)
	d.Key = scanA
	d.Duration = 100
	d.Interval = 1000
	w.Apply(cmd(FlashSingleKey, d))

	e, ok := w.keyEffects.Get("A")
	require.True(t, ok)
	assert.Equal(t, t0, e.Started)
}

func TestSetConfigSwapsSnapshot(t *testing.T) {
	w := newLayer(t, Options{})
	w.ApplyAt(cmd(SetLighting, CommandData{RedStart: 10, GreenStart: 20}), t0)
	assert.Equal(t, rgb.New(10, 20, 0), w.Render(t0)["ESC"])

	w.SetConfig(enhance.Default(), nil)
	assert.Equal(t, rgb.New(30, 60, 0), w.Render(t0)["ESC"])
}

func TestApplyAndRenderAreExclusive(t *testing.T) {
	w := newLayer(t, Options{})
	red, blue := rgb.Red.Packed(), rgb.Blue.Packed()
	pulse := CommandData{RedStart: 0, GreenStart: 255, BlueStart: 0, RedEnd: 0, GreenEnd: 0, BlueEnd: 255, Duration: 1000, Key: scanA}

	const rounds = 500
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			w.Apply(cmd(SetLighting, color(rgb.Red)))
			w.Apply(cmd(PulseSingleKey, pulse))
			w.Apply(cmd(SetLighting, color(rgb.Blue)))
			w.Apply(cmd(StopEffects, CommandData{}))
		}
	}()

	torn := 0
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			out := w.Render(t0)
			want := out["ESC"].Packed()
			if want != red && want != blue && want != 0 {
				torn++
				continue
			}
			for l, c := range out {
				// the pulsed key may differ from the fill
				if l == "A" {
					continue
				}
				if c.Packed() != want {
					torn++
					break
				}
			}
		}
	}()
	wg.Wait()

	assert.Zero(t, torn, "a render observed a partially applied fill")
	assert.Equal(t, rgb.Blue, w.Render(t0)["ESC"])
	assert.Zero(t, w.Stats().KeyEffects)
}
