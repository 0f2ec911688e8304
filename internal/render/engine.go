package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightwrap/internal/keymap"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/rgb"
)

// Source produces the color of every LED at a point in time.
type Source interface {
	Render(now time.Time) map[keymap.LED]rgb.Color
}

// Driver abstracts the LED transport (SPI, terminal, etc.).
type Driver interface {
	Write(rgb []byte) error
}

// Engine samples a Source, flattens the image into layout order,
// applies post-processing, then writes to the driver.
type Engine struct {
	Layout *layout.Layout
	Src    Source
	Drv    Driver

	mu      sync.RWMutex
	out     []byte
	frameID uint64
	post    PostPipeline

	// OnFrame, if set, receives a copy of every written frame.
	OnFrame func(id uint64, rgb []byte)
	// Advance, if set, runs before every frame Run renders with the tick interval.
	Advance func(dt time.Duration)

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		WriteMS  float64
		TotalMS  float64
	}
}

// PostPipeline groups post stages; all are optional.
type PostPipeline struct {
	Limiter func([]byte)
}

// NewEngine allocates the frame buffer and returns an Engine with no post stages.
func NewEngine(l *layout.Layout, src Source, drv Driver) (*Engine, error) {
	if l == nil || l.Count() == 0 {
		return nil, errors.New("empty layout")
	}
	if src == nil {
		return nil, errors.New("nil source")
	}
	return &Engine{
		Layout: l,
		Src:    src,
		Drv:    drv,
		out:    make([]byte, l.Count()*3),
	}, nil
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// SetDriver swaps the output driver between frames.
func (e *Engine) SetDriver(d Driver) {
	e.mu.Lock()
	e.Drv = d
	e.mu.Unlock()
}

// RenderOnce renders and writes a single frame sampled at now.
func (e *Engine) RenderOnce(now time.Time) error {
	start := time.Now()
	img := e.Src.Render(now)

	e.mu.Lock()
	for i, l := range e.Layout.LEDs() {
		c := img[l]
		e.out[i*3+0] = c.R
		e.out[i*3+1] = c.G
		e.out[i*3+2] = c.B
	}
	if e.post.Limiter != nil {
		e.post.Limiter(e.out)
	}
	e.frameID++
	id := e.frameID
	buf := append([]byte(nil), e.out...)
	drv := e.Drv
	e.mu.Unlock()

	e.Last.RenderMS = float64(time.Since(start).Microseconds()) / 1000.0

	writeStart := time.Now()
	if drv != nil {
		if err := drv.Write(buf); err != nil {
			return err
		}
	}
	e.Last.WriteMS = float64(time.Since(writeStart).Microseconds()) / 1000.0
	e.Last.TotalMS = float64(time.Since(start).Microseconds()) / 1000.0

	if e.OnFrame != nil {
		e.OnFrame(id, buf)
	}
	return nil
}

// Frame returns the id and a copy of the last rendered frame.
func (e *Engine) Frame() (uint64, []byte) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frameID, append([]byte(nil), e.out...)
}

// Run renders at fps until ctx is done. Driver errors are logged and the loop continues.
func (e *Engine) Run(ctx context.Context, fps int) {
	dt := time.Second / time.Duration(max(1, fps))
	ticker := time.NewTicker(dt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if e.Advance != nil {
				e.Advance(dt)
			}
			if err := e.RenderOnce(now); err != nil {
				log.Warn().Err(err).Msg("write frame")
			}
		}
	}
}
