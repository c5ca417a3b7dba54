package config

import "fmt"

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate the configuration.
func Validate(cfg *Config) error {
	if cfg.Port == "" {
		return fmt.Errorf("port is required")
	}
	if cfg.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", cfg.Baud)
	}
	if cfg.IntervalMs < 100 {
		return fmt.Errorf("interval_ms must be at least 100, got %d", cfg.IntervalMs)
	}
	if cfg.Ratio.K1A <= 0 || cfg.Ratio.K1B <= 0 || cfg.Ratio.K2 <= 0 {
		return fmt.Errorf("ratio factors must be positive, got %+v", cfg.Ratio)
	}
	if _, err := cfg.DevicePGA(); err != nil {
		return err
	}
	if len(cfg.Channels) == 0 {
		return fmt.Errorf("at least one channel is required")
	}
	if _, err := cfg.DeviceChannels(); err != nil {
		return err
	}
	if _, err := cfg.DeviceUpdateRate(); err != nil {
		return err
	}
	if _, err := cfg.DeviceLineFreq(); err != nil {
		return err
	}
	return nil
}
