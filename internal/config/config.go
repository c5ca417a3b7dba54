// Package config holds the YAML configuration for the hlwmeter tool.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/libmcu/hlw811x"
)

// Config is the meter tool configuration.
type Config struct {
	Port       string  `yaml:"port"`
	Baud       int     `yaml:"baud"`
	IntervalMs int     `yaml:"interval_ms"`
	LineFreq   int     `yaml:"line_freq"`   // 50 or 60
	UpdateRate float64 `yaml:"update_rate"` // register refresh rate in Hz

	Ratio    RatioConfig `yaml:"ratio"`
	PGA      PGAConfig   `yaml:"pga"`
	Channels []string    `yaml:"channels"` // any of "a", "b", "u"
}

// RatioConfig is the external resistor network scaling.
type RatioConfig struct {
	K1A float64 `yaml:"k1a"`
	K1B float64 `yaml:"k1b"`
	K2  float64 `yaml:"k2"`
}

// PGAConfig holds per-channel amplification factors (1, 2, 4, 8 or 16).
type PGAConfig struct {
	A int `yaml:"a"`
	B int `yaml:"b"`
	U int `yaml:"u"`
}

// Default returns the configuration for a bare eval board on the first
// USB serial adapter.
func Default() *Config {
	return &Config{
		Port:       "/dev/ttyUSB0",
		Baud:       9600,
		IntervalMs: 1000,
		LineFreq:   50,
		UpdateRate: 3.4,
		Ratio:      RatioConfig{K1A: 1, K1B: 1, K2: 1},
		PGA:        PGAConfig{A: 2, B: 2, U: 2},
		Channels:   []string{"a", "u"},
	}
}

// Load reads a configuration file, fills in defaults for absent fields and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	normalize(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// normalize fills holes a partial file can leave behind. It must be kept
// free of validation.
func normalize(cfg *Config) {
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	if cfg.IntervalMs == 0 {
		cfg.IntervalMs = 1000
	}
	if cfg.Ratio.K1A == 0 {
		cfg.Ratio.K1A = 1
	}
	if cfg.Ratio.K1B == 0 {
		cfg.Ratio.K1B = 1
	}
	if cfg.Ratio.K2 == 0 {
		cfg.Ratio.K2 = 1
	}
}

// DeviceRatio converts the ratio section to driver form.
func (c *Config) DeviceRatio() hlw811x.Ratio {
	return hlw811x.Ratio{K1A: c.Ratio.K1A, K1B: c.Ratio.K1B, K2: c.Ratio.K2}
}

// DevicePGA converts the pga section to driver form.
func (c *Config) DevicePGA() (hlw811x.PGA, error) {
	a, err := pgaGain(c.PGA.A)
	if err != nil {
		return hlw811x.PGA{}, err
	}
	b, err := pgaGain(c.PGA.B)
	if err != nil {
		return hlw811x.PGA{}, err
	}
	u, err := pgaGain(c.PGA.U)
	if err != nil {
		return hlw811x.PGA{}, err
	}
	return hlw811x.PGA{A: a, B: b, U: u}, nil
}

func pgaGain(factor int) (hlw811x.PGAGain, error) {
	for g := hlw811x.Gain1; g <= hlw811x.Gain16; g++ {
		if g.Factor() == factor {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unsupported pga factor %d", factor)
}

// DeviceChannels converts the channel list to a driver channel set.
func (c *Config) DeviceChannels() (hlw811x.Channel, error) {
	var set hlw811x.Channel
	for _, name := range c.Channels {
		switch name {
		case "a", "A":
			set |= hlw811x.ChannelA
		case "b", "B":
			set |= hlw811x.ChannelB
		case "u", "U":
			set |= hlw811x.ChannelU
		default:
			return 0, fmt.Errorf("unknown channel %q", name)
		}
	}
	return set, nil
}

// DeviceUpdateRate converts the refresh rate to driver form.
func (c *Config) DeviceUpdateRate() (hlw811x.DataUpdateRate, error) {
	switch c.UpdateRate {
	case 3.4:
		return hlw811x.UpdateRate3_4Hz, nil
	case 6.8:
		return hlw811x.UpdateRate6_8Hz, nil
	case 13.65:
		return hlw811x.UpdateRate13_65Hz, nil
	case 27.3:
		return hlw811x.UpdateRate27_3Hz, nil
	}
	return 0, fmt.Errorf("unsupported update rate %v", c.UpdateRate)
}

// DeviceLineFreq converts the mains frequency to driver form.
func (c *Config) DeviceLineFreq() (hlw811x.LineFreq, error) {
	switch c.LineFreq {
	case 50:
		return hlw811x.LineFreq50Hz, nil
	case 60:
		return hlw811x.LineFreq60Hz, nil
	}
	return 0, fmt.Errorf("line frequency must be 50 or 60, got %d", c.LineFreq)
}
