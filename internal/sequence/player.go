package sequence

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// NewPlayer constructs a Player with provided hooks.
func NewPlayer(h Hooks) *Player {
	return &Player{
		State: Idle,
		hooks: h,
	}
}

// Parse decodes and validates a YAML script. Steps are ordered by time;
// steps sharing a time keep their file order.
func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	if s.Version == "" {
		s.Version = Version
	}
	if s.Version != Version {
		return Script{}, fmt.Errorf("unsupported script version %q", s.Version)
	}
	for i, st := range s.Steps {
		if st.AtMS < 0 {
			return Script{}, fmt.Errorf("step %d: negative at_ms", i)
		}
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].AtMS < s.Steps[j].AtMS })
	return s, nil
}

// ReadFile loads a script from disk.
func ReadFile(path string) (Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Script{}, err
	}
	return Parse(b)
}

// Load replaces the current script. Resets time and state to Idle.
func (p *Player) Load(s Script) error {
	if len(s.Steps) == 0 {
		return errors.New("script has no steps")
	}
	p.script = s
	p.pos = 0
	p.idx = 0
	p.State = Idle
	return nil
}

// Start moves to Running and fires every step due at time zero.
func (p *Player) Start() {
	if p.State == Running || len(p.script.Steps) == 0 {
		return
	}
	p.State = Running
	p.fireDue()
}

// Pause pauses playback.
func (p *Player) Pause() { p.State = Paused }

// Resume resumes playback.
func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop stops and resets to start.
func (p *Player) Stop() {
	p.State = Idle
	p.pos = 0
	p.idx = 0
}

// Position returns the current script time.
func (p *Player) Position() time.Duration { return p.pos }

// Seek jumps to absolute script time t, clamped into [0, length].
// Steps before t are skipped without firing; steps exactly at t fire on the next Tick.
func (p *Player) Seek(t time.Duration) {
	if len(p.script.Steps) == 0 {
		return
	}
	if t < 0 {
		t = 0
	}
	if total := p.length(); t > total {
		t = total
	}
	p.pos = t
	p.idx = sort.Search(len(p.script.Steps), func(i int) bool {
		return p.script.Steps[i].At() >= t
	})
}

// Tick advances the player by dt and fires every step that became due.
func (p *Player) Tick(dt time.Duration) {
	if p.State != Running || len(p.script.Steps) == 0 {
		return
	}
	if dt <= 0 {
		return
	}
	p.pos += dt
	p.fireDue()
}

func (p *Player) fireDue() {
	for {
		for p.idx < len(p.script.Steps) && p.script.Steps[p.idx].At() <= p.pos {
			if p.hooks.Apply != nil {
				p.hooks.Apply(p.script.Steps[p.idx].State)
			}
			p.idx++
		}
		if p.idx < len(p.script.Steps) {
			return
		}
		total := p.length()
		if !p.script.Loop {
			p.State = Idle
			if p.hooks.Done != nil {
				p.hooks.Done()
			}
			return
		}
		// a zero-length loop only wraps once per tick
		if p.pos < total || total == 0 {
			if total == 0 {
				p.wrap(0)
			}
			return
		}
		p.wrap(p.pos - total)
	}
}

func (p *Player) wrap(pos time.Duration) {
	p.pos = pos
	p.idx = 0
	if p.hooks.Looped != nil {
		p.hooks.Looped()
	}
}

func (p *Player) length() time.Duration {
	if p.script.LengthMS > 0 {
		return time.Duration(p.script.LengthMS) * time.Millisecond
	}
	return p.script.Steps[len(p.script.Steps)-1].At()
}

// SafePlayer serializes access to a Player shared between goroutines.
type SafePlayer struct {
	mu sync.Mutex
	P  *Player
}

func NewSafePlayer(h Hooks) *SafePlayer {
	return &SafePlayer{P: NewPlayer(h)}
}

func (s *SafePlayer) With(f func(p *Player)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.P)
}
