package main

import (
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightwrap/internal/config"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/led"
	"github.com/coreman2200/lightwrap/internal/render"
	"github.com/coreman2200/lightwrap/internal/sequence"
	"github.com/coreman2200/lightwrap/internal/wrapper"
)

func main() {
	var (
		scriptPath string
		configPath string
		driver     string
		fps        int
		seed       int64
		hold       time.Duration
	)
	flag.StringVar(&scriptPath, "script", "", "Path to a command script (wrap.v1 YAML)")
	flag.StringVar(&configPath, "config", "", "optional config.yaml for enhancement and cloning")
	flag.StringVar(&driver, "driver", "terminal", "output: terminal | sim")
	flag.IntVar(&fps, "fps", 30, "Simulation frames per second")
	flag.Int64Var(&seed, "seed", 1, "random seed for breathing effects")
	flag.DurationVar(&hold, "hold", 2*time.Second, "keep rendering this long after the last step")
	flag.Parse()

	out := os.Stdout
	if driver == "terminal" {
		out = os.Stderr
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})

	if scriptPath == "" {
		log.Fatal().Msg("Provide -script path to a command script")
	}
	script, err := sequence.ReadFile(scriptPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read script")
	}

	cfg := config.Default()
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
	}

	lay := layout.Keyboard()
	layer := wrapper.New(lay.LEDs(), wrapper.Options{
		Enhance: cfg.Enhance,
		Cloning: wrapper.CloningMap(cfg.Cloning),
		Rand:    rand.New(rand.NewSource(seed)),
	})
	eng, err := render.NewEngine(lay, layer, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	eng.SetPost(render.PostPipeline{Limiter: render.WhiteCap(cfg.Power.WhiteCap)})

	// simple logger hooks
	var finished time.Time
	h := sequence.Hooks{
		Apply: func(gs wrapper.GameState) {
			log.Info().Str("command", gs.Command).Int("key", gs.Data.Key).Msg("apply")
			layer.Apply(gs)
		},
		Looped: func() { log.Info().Msg("loop") },
		Done:   func() { finished = time.Now() },
	}
	player := sequence.NewPlayer(h)
	if err := player.Load(script); err != nil {
		log.Fatal().Err(err).Msg("load")
	}

	// the driver is opened last: nothing below exits without closing it
	var (
		drv  led.Driver
		quit <-chan struct{}
	)
	switch driver {
	case "terminal":
		t, err := led.NewTerminal(lay)
		if err != nil {
			log.Fatal().Err(err).Msg("terminal")
		}
		drv, quit = t, t.Interrupts()
	default:
		drv = led.NewSim()
	}
	defer drv.Close()
	eng.SetDriver(drv)
	player.Start()

	dt := time.Second / time.Duration(max(1, fps))
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-quit:
			return
		case now := <-ticker.C:
			player.Tick(dt)
			if err := eng.RenderOnce(now); err != nil {
				log.Warn().Err(err).Msg("render")
			}
			// End once the player is Idle (no loop) and the hold has elapsed
			if player.State == sequence.Idle && !finished.IsZero() && now.Sub(finished) >= hold {
				log.Info().Dur("elapsed", time.Since(start)).Interface("stats", layer.Stats()).Msg("done")
				return
			}
		}
	}
}
