package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lightwrap/internal/app"
	"github.com/coreman2200/lightwrap/internal/config"
	diag "github.com/coreman2200/lightwrap/internal/diagnostics"
	"github.com/coreman2200/lightwrap/internal/layout"
	"github.com/coreman2200/lightwrap/internal/led"
	"github.com/coreman2200/lightwrap/internal/sequence"
	"github.com/coreman2200/lightwrap/internal/tests"
	"github.com/coreman2200/lightwrap/internal/wrapper"
	"github.com/coreman2200/lightwrap/internal/ws"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		fps        = flag.Int("fps", 30, "target frames per second")
		driver     = flag.String("driver", "sim", "driver: spi | terminal | sim")
		colorOrder = flag.String("color", "RGB", "LED color order on the wire (e.g. GRB, RGB)")
		spiDev     = flag.String("spi-dev", "", "SPI port name; empty opens the first one")
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		script     = flag.String("script", "", "optional command script to play at startup")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		}
	} else {
		cfg = c
	}

	// ---- Effective params (config overrides flags where available) ----
	selected := firstNonEmpty(cfg.Driver, *driver)
	if *simOnly {
		selected = "sim"
	}
	eFPS := *fps
	if cfg.FPS > 0 {
		eFPS = cfg.FPS
	}
	eAddr := firstNonEmpty(cfg.Addr, *addr)
	eColor := firstNonEmpty(cfg.ColorOrder, *colorOrder)
	eDev := firstNonEmpty(cfg.SPI.Dev, *spiDev)

	// ---- Logging ----
	// the terminal preview owns stdout
	var out io.Writer = os.Stdout
	if selected == "terminal" {
		out = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen})

	lay := layout.Keyboard()

	// ---- Driver selection with fallback ----
	var (
		drv     led.Driver
		term    *led.Terminal
		pending []diag.Diagnostic
	)
	switch selected {
	case "sim":
		drv = led.NewSim()

	case "spi":
		d, err := led.NewSPI(led.SPIConfig{Dev: eDev, FreqKHz: cfg.SPI.FreqKHz, ColorOrder: eColor}, lay.Count())
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", eDev).
				Msg("SPI init failed; falling back to SIM")
			pending = append(pending, diag.DriverFallback("spi", err))
			drv, selected = led.NewSim(), "sim"
		} else {
			drv = d
		}

	case "terminal":
		t, err := led.NewTerminal(lay)
		if err != nil {
			log.Warn().Err(err).Msg("terminal init failed; falling back to SIM")
			pending = append(pending, diag.DriverFallback("terminal", err))
			drv, selected = led.NewSim(), "sim"
		} else {
			drv, term = t, t
		}

	default:
		log.Warn().Str("driver", selected).Msg("unknown driver; using SIM")
		drv, selected = led.NewSim(), "sim"
	}

	// ---- Core + transport ----
	var srv *ws.Server
	core, err := app.InitCore(app.HWConfig{
		Layout:    lay,
		Drv:       drv,
		FPS:       eFPS,
		WhiteCap:  cfg.Power.WhiteCap,
		Enhance:   cfg.Enhance,
		Cloning:   wrapper.CloningMap(cfg.Cloning),
		OnUnknown: func(c string) { srv.OnUnknownCommand(c) },
		OnFrame:   func(id uint64, rgb []byte) { srv.BroadcastFrame(id, rgb) },
		OnTestDone: func(k tests.Kind) {
			log.Info().Str("test", string(k)).Msg("test complete")
			srv.OnTestDone(k)
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init core")
	}
	srv = ws.NewServer(lay, eFPS, core.Layer)
	srv.CurrentDriver = selected
	srv.Tests = core.Tests
	srv.Frames = core.Eng
	for _, d := range pending {
		srv.PushDiag(d)
	}

	if *script != "" {
		s, err := sequence.ReadFile(*script)
		if err != nil {
			log.Fatal().Err(err).Str("script", *script).Msg("load script")
		}
		if err := core.Play(s); err != nil {
			log.Fatal().Err(err).Msg("play script")
		}
		log.Info().Str("script", *script).Int("steps", len(s.Steps)).Msg("script playing")
	}

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	srv.Routes(mux)

	hs := &http.Server{
		Addr:         eAddr,
		Handler:      ws.WithCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ---- Run render loop & server ----
	core.Start(context.Background())
	go func() {
		log.Info().Str("addr", eAddr).Str("driver", selected).Int("leds", lay.Count()).Msg("HTTP server starting")
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Reload on SIGHUP, graceful shutdown otherwise ----
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	var quit <-chan struct{}
	if term != nil {
		quit = term.Interrupts()
	}
wait:
	for {
		select {
		case <-hup:
			c, err := config.Load(*configPath)
			if err != nil {
				log.Warn().Err(err).Str("path", *configPath).Msg("reload failed; keeping current settings")
				continue
			}
			core.Reload(c.Enhance, wrapper.CloningMap(c.Cloning))
		case s := <-ch:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			break wait
		case <-quit:
			log.Info().Msg("terminal closed; shutting down")
			break wait
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = hs.Shutdown(ctx)
	core.Stop()
	if err := drv.Close(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
