package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/lightwrap/internal/enhance"
	"github.com/coreman2200/lightwrap/internal/keymap"
)

type PowerCfg struct {
	WhiteCap float64 `yaml:"white_cap"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // e.g. /dev/spidev0.0, empty for the first port
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500
}

type Config struct {
	Driver     string `yaml:"driver"` // "spi" | "terminal" | "sim"
	ColorOrder string `yaml:"color_order"`
	FPS        int    `yaml:"fps"`
	Addr       string `yaml:"addr"`

	Enhance enhance.Config              `yaml:"enhance"`
	Cloning map[keymap.LED][]keymap.LED `yaml:"cloning,omitempty"`

	Power PowerCfg `yaml:"power"`
	SPI   SPI      `yaml:"spi,omitempty"`
}

// Default is the configuration used when no file exists. Empty driver, address,
// color order and fps leave the command-line flags in charge.
func Default() *Config {
	return &Config{
		Enhance: enhance.Default(),
		Power:   PowerCfg{WhiteCap: 0.85},
	}
}

// Load reads path on top of Default, so omitted keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate rejects values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.FPS < 0 {
		return fmt.Errorf("fps must not be negative: %d", c.FPS)
	}
	if c.Power.WhiteCap < 0 || c.Power.WhiteCap > 1 {
		return fmt.Errorf("power.white_cap must be within [0,1]: %v", c.Power.WhiteCap)
	}
	for src, targets := range c.Cloning {
		for _, t := range targets {
			if t == src {
				return fmt.Errorf("cloning: %s clones itself", src)
			}
		}
	}
	return nil
}
