// Command hlwmeter reads out an HLW8110/HLW8112 energy meter over UART.
// Run with -mock to use a simulated chip (no hardware required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/libmcu/hlw811x"
	"github.com/libmcu/hlw811x/internal/config"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "meter configuration file (YAML)")
		port    = flag.String("port", "", "serial port (overrides config)")
		baud    = flag.Int("baud", 0, "baud rate (overrides config)")
		every   = flag.Int("interval", 0, "readout interval in milliseconds (overrides config)")
		calPath = flag.String("calibration", "", "calibration record to apply (YAML)")
		watch   = flag.Bool("watch", false, "re-apply the calibration file when it changes")
		mock    = flag.Bool("mock", false, "use a simulated chip (no hardware required)")
		debug   = flag.Bool("debug", false, "enable debug logging, including frame dumps")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			slog.Error("cannot load configuration", "err", err)
			os.Exit(1)
		}
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *every != 0 {
		cfg.IntervalMs = *every
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var transport hlw811x.Transport
	if *mock {
		slog.Info("using simulated chip")
		transport = simulatedChip()
	} else {
		slog.Info("opening serial port", "port", cfg.Port, "baud", cfg.Baud)
		uart, err := hlw811x.OpenUART(cfg.Port, cfg.Baud)
		if err != nil {
			slog.Error("cannot open serial port", "err", err)
			os.Exit(1)
		}
		transport = uart
	}

	dev, err := hlw811x.New(transport, hlw811x.InterfaceUART)
	if err != nil {
		slog.Error("cannot create device", "err", err)
		os.Exit(1)
	}
	defer dev.Close()

	if err := run(ctx, dev, cfg, *calPath, *watch); err != nil && ctx.Err() == nil {
		slog.Error("meter stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func run(ctx context.Context, dev *hlw811x.Device, cfg *config.Config, calPath string, watch bool) error {
	if err := dev.Reset(ctx); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond) // chip settle after reset

	coeff, err := dev.ReadCoefficients(ctx)
	if err != nil {
		return err
	}
	slog.Info("coefficients loaded", "hfconst", coeff.HFConst)

	if err := setup(ctx, dev, cfg); err != nil {
		return err
	}

	if calPath != "" {
		if err := applyCalibration(ctx, dev, calPath); err != nil {
			return err
		}
		if watch {
			go watchCalibration(ctx, dev, calPath)
		}
	}

	lineFreq, err := cfg.DeviceLineFreq()
	if err != nil {
		return err
	}
	channels, err := cfg.DeviceChannels()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.IntervalMs) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			report(ctx, dev, channels, lineFreq)
		}
	}
}

func setup(ctx context.Context, dev *hlw811x.Device, cfg *config.Config) error {
	if err := dev.SetRatio(cfg.DeviceRatio()); err != nil {
		return err
	}
	pga, err := cfg.DevicePGA()
	if err != nil {
		return err
	}
	if err := dev.SetPGA(ctx, pga); err != nil {
		return err
	}
	rate, err := cfg.DeviceUpdateRate()
	if err != nil {
		return err
	}
	if err := dev.SetDataUpdateRate(ctx, rate); err != nil {
		return err
	}
	channels, err := cfg.DeviceChannels()
	if err != nil {
		return err
	}
	if err := dev.EnableChannel(ctx, channels); err != nil {
		return err
	}
	for _, ch := range []hlw811x.Channel{hlw811x.ChannelA, hlw811x.ChannelB} {
		if channels&ch != 0 {
			if err := dev.EnablePulse(ctx, ch); err != nil {
				return err
			}
		}
	}
	// Needed for frequency, power factor and phase angle readings.
	if err := dev.EnableWaveform(ctx); err != nil {
		return err
	}
	if err := dev.EnableZeroCrossing(ctx); err != nil {
		return err
	}
	return dev.EnablePowerFactor(ctx)
}

func report(ctx context.Context, dev *hlw811x.Device, channels hlw811x.Channel, lineFreq hlw811x.LineFreq) {
	attrs := make([]any, 0, 16)
	if channels&hlw811x.ChannelU != 0 {
		if mV, err := dev.ReadRMS(ctx, hlw811x.ChannelU); err == nil {
			attrs = append(attrs, "voltage_mv", mV)
		} else {
			slog.Warn("voltage read failed", "err", err)
		}
	}
	for _, ch := range []hlw811x.Channel{hlw811x.ChannelA, hlw811x.ChannelB} {
		if channels&ch == 0 {
			continue
		}
		name := "a"
		if ch == hlw811x.ChannelB {
			name = "b"
		}
		if mA, err := dev.ReadRMS(ctx, ch); err == nil {
			attrs = append(attrs, "current_"+name+"_ma", mA)
		}
		if mW, err := dev.ReadActivePower(ctx, ch); err == nil {
			attrs = append(attrs, "power_"+name+"_mw", mW)
		}
		if wh, err := dev.ReadEnergy(ctx, ch); err == nil {
			attrs = append(attrs, "energy_"+name+"_wh", wh)
		}
	}
	if cHz, err := dev.ReadFrequency(ctx); err == nil {
		attrs = append(attrs, "frequency_chz", cHz)
	}
	if pf, err := dev.ReadPowerFactor(ctx); err == nil {
		attrs = append(attrs, "power_factor", pf)
	}
	if deg, err := dev.ReadPhaseAngle(ctx, lineFreq); err == nil {
		attrs = append(attrs, "phase_centideg", deg)
	}
	slog.Info("reading", attrs...)
}

func applyCalibration(ctx context.Context, dev *hlw811x.Device, path string) error {
	rec, err := config.LoadCalibration(path)
	if err != nil {
		return err
	}
	if err := dev.ApplyCalibration(ctx, rec); err != nil {
		return err
	}
	slog.Info("calibration applied", "file", path)
	return nil
}

// watchCalibration re-applies the calibration file whenever it changes, so a
// bench operator can iterate on corrections without restarting the tool.
func watchCalibration(ctx context.Context, dev *hlw811x.Device, path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("cannot watch calibration file", "err", err)
		return
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		slog.Error("cannot watch calibration file", "path", path, "err", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := applyCalibration(ctx, dev, path); err != nil {
				slog.Warn("calibration re-apply failed", "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("calibration watcher error", "err", err)
		}
	}
}
