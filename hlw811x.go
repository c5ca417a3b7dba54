// Package hlw811x is a host-side driver for the HLW8110/HLW8112 single-phase
// AC energy-metering front end. It speaks the chip's framed register protocol
// over a pluggable Transport, converts raw register readings to physical units
// using the per-part OTP coefficients, and computes calibration register
// values from reference-meter errors.
package hlw811x

import (
	"fmt"
	"log/slog"
	"sync"
)

// Interface selects the wire interface the chip is strapped for.
type Interface int

const (
	InterfaceUART Interface = iota
	InterfaceSPI
)

// Channel identifies a measurement channel. Channels form a bit set so that
// EnableChannel and DisableChannel can act on several at once.
type Channel byte

const (
	ChannelA Channel = 0x01 // current channel A
	ChannelB Channel = 0x02 // current channel B
	ChannelU Channel = 0x04 // voltage channel
)

func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	case ChannelU:
		return "U"
	}
	return fmt.Sprintf("Channel(%#02x)", byte(c))
}

// Ratio holds the external resistor network scaling: K1A and K1B are the
// current transformer / shunt ratios for channels A and B, K2 is the voltage
// divider ratio. All readings are divided by the applicable factors.
type Ratio struct {
	K1A float64
	K1B float64
	K2  float64
}

// Device is a driver context bound to one chip on one transport.
// All operations are safe for concurrent use.
type Device struct {
	mu    sync.Mutex
	t     Transport
	iface Interface
	log   *slog.Logger

	selected Channel // last channel selected with SelectChannel
	pga      PGA
	ratio    Ratio
	coeff    *Coefficients // nil until ReadCoefficients succeeds
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used for frame-level debug logging.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// New creates a device context bound to the given transport and interface
// kind. Only UART framing is implemented; a device bound to InterfaceSPI is
// created successfully but its register operations return ErrNotImplemented.
//
// The conversion coefficients burnt into the chip are referenced to a PGA
// gain of x2; the cached PGA starts there and should be brought in line with
// the real front end via SetPGA before taking readings.
func New(t Transport, iface Interface, opts ...Option) (*Device, error) {
	if t == nil {
		return nil, fmt.Errorf("hlw811x: nil transport: %w", ErrInvalidParam)
	}
	if iface != InterfaceUART && iface != InterfaceSPI {
		return nil, fmt.Errorf("hlw811x: unknown interface %d: %w", iface, ErrInvalidParam)
	}
	d := &Device{
		t:        t,
		iface:    iface,
		log:      slog.Default(),
		selected: ChannelA,
		pga:      PGA{A: Gain2, B: Gain2, U: Gain2},
		ratio:    Ratio{K1A: 1, K1B: 1, K2: 1},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close releases the underlying transport.
func (d *Device) Close() error {
	return d.t.Close()
}

// SetRatio sets the resistor network scaling applied to all conversions.
func (d *Device) SetRatio(r Ratio) error {
	if r.K1A <= 0 || r.K1B <= 0 || r.K2 <= 0 {
		return fmt.Errorf("hlw811x: ratio factors must be positive: %w", ErrInvalidParam)
	}
	d.mu.Lock()
	d.ratio = r
	d.mu.Unlock()
	return nil
}

// Ratio returns the configured resistor network scaling.
func (d *Device) Ratio() Ratio {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ratio
}

// CurrentChannel returns the channel last selected with SelectChannel.
// Selection is independent of channel enablement.
func (d *Device) CurrentChannel() Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}
