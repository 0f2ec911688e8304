package wrapper

import (
	"time"

	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

// Command names understood by the interpreter.
const (
	SetLighting                   = "SetLighting"
	SetLightingForKeyWithKeyName  = "SetLightingForKeyWithKeyName"
	SetLightingForKeyWithScanCode = "SetLightingForKeyWithScanCode"
	SetLightingFromBitmap         = "SetLightingFromBitmap"
	FlashSingleKey                = "FlashSingleKey"
	PulseSingleKey                = "PulseSingleKey"
	PulseLighting                 = "PulseLighting"
	FlashLighting                 = "FlashLighting"
	StopEffects                   = "StopEffects"

	LFXGetNumDevices         = "LFX_GetNumDevices"
	LFXGetNumLights          = "LFX_GetNumLights"
	LFXLight                 = "LFX_Light"
	LFXSetLightColor         = "LFX_SetLightColor"
	LFXUpdate                = "LFX_Update"
	LFXSetLightActionColor   = "LFX_SetLightActionColor"
	LFXActionColor           = "LFX_ActionColor"
	LFXSetLightActionColorEx = "LFX_SetLightActionColorEx"
	LFXActionColorEx         = "LFX_ActionColorEx"
	LFXReset                 = "LFX_Reset"

	CreateKeyboardEffect = "CreateKeyboardEffect"
	CreateMouseEffect    = "CreateMouseEffect"
	CreateMousepadEffect = "CreateMousepadEffect"
)

// Action and effect type strings embedded in command data.
const (
	LFXActionColorType = "LFX_ACTION_COLOR"
	LFXActionPulseType = "LFX_ACTION_PULSE"
	LFXActionMorphType = "LFX_ACTION_MORPH"

	ChromaBreathing = "CHROMA_BREATHING"
	Breathing       = "BREATHING"

	TwoColorsConfig    = "TWO_COLORS"
	RandomColorsConfig = "RANDOM_COLORS"
)

// CommandData is the argument block of a command. Negative channels mean "unspecified";
// Duration and Interval are milliseconds.
type CommandData struct {
	RedStart     int    `json:"red_start" yaml:"red_start"`
	GreenStart   int    `json:"green_start" yaml:"green_start"`
	BlueStart    int    `json:"blue_start" yaml:"blue_start"`
	RedEnd       int    `json:"red_end" yaml:"red_end"`
	GreenEnd     int    `json:"green_end" yaml:"green_end"`
	BlueEnd      int    `json:"blue_end" yaml:"blue_end"`
	Duration     int64  `json:"duration" yaml:"duration"`
	Interval     int64  `json:"interval" yaml:"interval"`
	Key          int    `json:"key" yaml:"key"`
	EffectType   string `json:"effect_type,omitempty" yaml:"effect_type,omitempty"`
	EffectConfig string `json:"effect_config,omitempty" yaml:"effect_config,omitempty"`
}

func (d CommandData) Start() rgb.Color {
	return rgb.Clamped(d.RedStart, d.GreenStart, d.BlueStart)
}

func (d CommandData) End() rgb.Color {
	return rgb.Clamped(d.RedEnd, d.GreenEnd, d.BlueEnd)
}

func (d CommandData) hasStart() bool {
	return d.RedStart >= 0 && d.GreenStart >= 0 && d.BlueStart >= 0
}

func (d CommandData) hasEnd() bool {
	return d.RedEnd >= 0 && d.GreenEnd >= 0 && d.BlueEnd >= 0
}

func (d CommandData) duration() time.Duration {
	return time.Duration(d.Duration) * time.Millisecond
}

func (d CommandData) interval() time.Duration {
	return time.Duration(d.Interval) * time.Millisecond
}

// ExtraKeys carries packed 0xRRGGBB colors for LEDs outside the bitmap.
type ExtraKeys struct {
	Logo       int   `json:"logo" yaml:"logo"`
	Badge      int   `json:"badge" yaml:"badge"`
	Peripheral int   `json:"peripheral" yaml:"peripheral"`
	G          []int `json:"g" yaml:"g"`
}

// Colors returns the snapshot keyed by LED. Missing macro keys are black.
func (e ExtraKeys) Colors() map[keymap.LED]rgb.Color {
	out := map[keymap.LED]rgb.Color{
		keymap.Logo:       rgb.FromPacked(e.Logo),
		keymap.Logo2:      rgb.FromPacked(e.Badge),
		keymap.Peripheral: rgb.FromPacked(e.Peripheral),
	}
	for i := 0; i < keymap.MacroKeys; i++ {
		v := 0
		if i < len(e.G) {
			v = e.G[i]
		}
		out[keymap.G(i+1)] = rgb.FromPacked(v)
	}
	return out
}

// GameState is one payload from a wrapped application: a command plus optional
// extra-key and bitmap snapshots.
type GameState struct {
	Command   string      `json:"command" yaml:"command"`
	Data      CommandData `json:"command_data" yaml:"command_data"`
	ExtraKeys *ExtraKeys  `json:"extra_keys,omitempty" yaml:"extra_keys,omitempty"`
	Bitmap    []int       `json:"bitmap,omitempty" yaml:"bitmap,omitempty"`
}
