package sequence

import (
	"time"

	"github.com/coreman2200/lightwrap/internal/wrapper"
)

// Version is the only script format understood by Load.
const Version = "wrap.v1"

// Step is one payload delivered AtMS milliseconds into the script.
type Step struct {
	AtMS  int64             `yaml:"at_ms" json:"at_ms"`
	Name  string            `yaml:"name,omitempty" json:"name,omitempty"`
	State wrapper.GameState `yaml:"state" json:"state"`
}

func (s Step) At() time.Duration { return time.Duration(s.AtMS) * time.Millisecond }

// Script is a timeline of wrapper payloads.
type Script struct {
	Version string `yaml:"version" json:"version"`
	Loop    bool   `yaml:"loop,omitempty" json:"loop,omitempty"`
	// LengthMS is the loop length; defaults to the last step's time.
	LengthMS int64  `yaml:"length_ms,omitempty" json:"length_ms,omitempty"`
	Steps    []Step `yaml:"steps" json:"steps"`
}

// PlayerState enumerates player states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are dependency-injected callbacks into the wrapper layer.
type Hooks struct {
	// Apply delivers one due payload.
	Apply func(gs wrapper.GameState)
	// Looped fires each time a looping script wraps around.
	Looped func()
	// Done fires once a non-looping script has delivered every step.
	Done func()
}

// Player owns the current Script timeline and uses Hooks to drive the layer.
type Player struct {
	State PlayerState

	script Script
	pos    time.Duration // position within script
	idx    int           // next step to fire

	hooks Hooks
}
