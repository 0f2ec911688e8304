package app

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightwrap/internal/enhance"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/render"
	"github.com/coreman2200/lightwrap/internal/sequence"
	"github.com/coreman2200/lightwrap/internal/tests"
	"github.com/coreman2200/lightwrap/internal/wrapper"
)

// Core ties the wrapper layer to the frame engine and the script player.
type Core struct {
	Layout *layout.Layout
	Layer  *wrapper.Layer
	Eng    *render.Engine
	Seq    *sequence.SafePlayer
	Tests  *tests.Runner
	FPS    int

	cancel context.CancelFunc
	done   chan struct{}
}

type HWConfig struct {
	Layout   *layout.Layout // nil means the full keyboard
	Drv      render.Driver
	FPS      int
	WhiteCap float64

	Enhance enhance.Config
	Cloning wrapper.CloningMap
	Seed    int64 // 0 seeds from the clock

	// OnUnknown receives every command the layer ignored.
	OnUnknown func(command string)
	// OnFrame receives every frame after it reaches the driver.
	OnFrame func(id uint64, rgb []byte)
	// OnTestDone fires when a wiring test pattern completes.
	OnTestDone func(tests.Kind)
}

func InitCore(hw HWConfig) (*Core, error) {
	l := hw.Layout
	if l == nil {
		l = layout.Keyboard()
	}
	seed := hw.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	layer := wrapper.New(l.LEDs(), wrapper.Options{
		Enhance:   hw.Enhance,
		Cloning:   hw.Cloning,
		Rand:      rand.New(rand.NewSource(seed)),
		OnUnknown: hw.OnUnknown,
	})

	// test patterns take over the frame while running
	runner := tests.NewRunner(l, layer)
	runner.OnDone = hw.OnTestDone

	eng, err := render.NewEngine(l, runner, hw.Drv)
	if err != nil {
		return nil, err
	}
	eng.SetPost(render.PostPipeline{Limiter: render.WhiteCap(hw.WhiteCap)})
	eng.OnFrame = hw.OnFrame

	seq := sequence.NewSafePlayer(sequence.Hooks{
		Apply: layer.Apply,
		Done:  func() { log.Info().Msg("script finished") },
	})
	eng.Advance = func(dt time.Duration) {
		seq.With(func(p *sequence.Player) { p.Tick(dt) })
	}

	fps := hw.FPS
	if fps <= 0 {
		fps = 30
	}
	return &Core{Layout: l, Layer: layer, Eng: eng, Seq: seq, Tests: runner, FPS: fps}, nil
}

// Play loads a script and starts it immediately.
func (c *Core) Play(s sequence.Script) error {
	var err error
	c.Seq.With(func(p *sequence.Player) {
		if err = p.Load(s); err == nil {
			p.Start()
		}
	})
	return err
}

// Step advances the script by dt and renders one frame at now.
func (c *Core) Step(now time.Time, dt time.Duration) error {
	c.Eng.Advance(dt)
	return c.Eng.RenderOnce(now)
}

// Start runs the engine's frame loop, which also drives the script, until ctx is done or Stop is called.
func (c *Core) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.Eng.Run(ctx, c.FPS)
	}()
}

// Reload swaps the enhancement and cloning settings used by later frames.
func (c *Core) Reload(e enhance.Config, cloning wrapper.CloningMap) {
	c.Layer.SetConfig(e, cloning)
	log.Info().Bool("enhance", e.Enabled).Int("clones", len(cloning)).Msg("settings reloaded")
}

// Stop cancels the loop and waits for it to exit.
func (c *Core) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}
