package hlw811x

import (
	"context"
	"fmt"
)

// PGAGain is a programmable gain amplifier setting. The stored value is the
// register code; Factor returns the amplification it stands for.
type PGAGain int

const (
	Gain1 PGAGain = iota
	Gain2
	Gain4
	Gain8
	Gain16
)

// Factor returns the amplification factor, e.g. 16 for Gain16.
func (g PGAGain) Factor() int {
	return 1 << g
}

func (g PGAGain) valid() bool {
	return g >= Gain1 && g <= Gain16
}

// PGA holds the gain setting of each analog front-end channel.
type PGA struct {
	A PGAGain // current channel A
	B PGAGain // current channel B
	U PGAGain // voltage channel
}

// SetPGA programs the per-channel amplifier gains and caches them for use by
// the conversion routines.
func (d *Device) SetPGA(ctx context.Context, pga PGA) error {
	if !pga.A.valid() || !pga.B.valid() || !pga.U.valid() {
		return fmt.Errorf("hlw811x: pga %+v: %w", pga, ErrInvalidParam)
	}
	bits := uint16(pga.A)<<sysconPGAIAShift |
		uint16(pga.U)<<sysconPGAUShift |
		uint16(pga.B)<<sysconPGAIBShift
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.updateBits(ctx, RegSysCon, sysconPGAMask, bits); err != nil {
		return err
	}
	d.pga = pga
	return nil
}

// GetPGA reads the per-channel amplifier gains back from the chip and
// refreshes the cached values.
func (d *Device) GetPGA(ctx context.Context) (PGA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readUint(ctx, RegSysCon)
	if err != nil {
		return PGA{}, err
	}
	pga := PGA{
		A: PGAGain(v >> sysconPGAIAShift & 0x7),
		U: PGAGain(v >> sysconPGAUShift & 0x7),
		B: PGAGain(v >> sysconPGAIBShift & 0x7),
	}
	if !pga.A.valid() || !pga.B.valid() || !pga.U.valid() {
		return PGA{}, fmt.Errorf("hlw811x: reserved pga code in syscon %#04x: %w", v, ErrIncorrectResponse)
	}
	d.pga = pga
	return pga, nil
}

func channelBits(ch Channel) (uint16, error) {
	var bits uint16
	if ch&ChannelA != 0 {
		bits |= sysconADCIAEn
	}
	if ch&ChannelB != 0 {
		bits |= sysconADCIBEn
	}
	if ch&ChannelU != 0 {
		bits |= sysconADCUEn
	}
	if bits == 0 || ch&^(ChannelA|ChannelB|ChannelU) != 0 {
		return 0, fmt.Errorf("hlw811x: channel set %#02x: %w", byte(ch), ErrInvalidParam)
	}
	return bits, nil
}

// EnableChannel powers the ADCs of the given channel set. Channels may be
// OR-ed together. Enablement is independent of SelectChannel.
func (d *Device) EnableChannel(ctx context.Context, ch Channel) error {
	bits, err := channelBits(ch)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegSysCon, bits, bits)
}

// DisableChannel powers down the ADCs of the given channel set.
func (d *Device) DisableChannel(ctx context.Context, ch Channel) error {
	bits, err := channelBits(ch)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegSysCon, bits, 0)
}

func currentChannelBit(ch Channel, a, b uint16) (uint16, error) {
	switch ch {
	case ChannelA:
		return a, nil
	case ChannelB:
		return b, nil
	}
	return 0, fmt.Errorf("hlw811x: channel %v: %w", ch, ErrInvalidParam)
}

// EnablePulse turns on energy accumulation and pulse output for a current
// channel.
func (d *Device) EnablePulse(ctx context.Context, ch Channel) error {
	bit, err := currentChannelBit(ch, emuconEnPA, emuconEnPB)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon, bit, bit)
}

// DisablePulse turns off energy accumulation and pulse output for a current
// channel.
func (d *Device) DisablePulse(ctx context.Context, ch Channel) error {
	bit, err := currentChannelBit(ch, emuconEnPA, emuconEnPB)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon, bit, 0)
}

// EnableEnergyClearance makes the energy accumulator of a current channel
// clear itself after each read.
func (d *Device) EnableEnergyClearance(ctx context.Context, ch Channel) error {
	bit, err := currentChannelBit(ch, emucon2EpaCb, emucon2EpbCb)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon2, bit, bit)
}

// DisableEnergyClearance makes the energy accumulator of a current channel
// hold its value across reads.
func (d *Device) DisableEnergyClearance(ctx context.Context, ch Channel) error {
	bit, err := currentChannelBit(ch, emucon2EpaCb, emucon2EpbCb)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon2, bit, 0)
}

func (d *Device) setEMUCon2Bit(ctx context.Context, bit uint16, on bool) error {
	var v uint16
	if on {
		v = bit
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon2, bit, v)
}

// EnableWaveform turns on the waveform machinery. Frequency, power factor and
// phase angle readings are garbage without it.
func (d *Device) EnableWaveform(ctx context.Context) error {
	return d.setEMUCon2Bit(ctx, emucon2WaveEn, true)
}

// DisableWaveform turns off the waveform machinery.
func (d *Device) DisableWaveform(ctx context.Context) error {
	return d.setEMUCon2Bit(ctx, emucon2WaveEn, false)
}

// EnableZeroCrossing turns on zero-crossing detection.
func (d *Device) EnableZeroCrossing(ctx context.Context) error {
	return d.setEMUCon2Bit(ctx, emucon2ZxEn, true)
}

// DisableZeroCrossing turns off zero-crossing detection.
func (d *Device) DisableZeroCrossing(ctx context.Context) error {
	return d.setEMUCon2Bit(ctx, emucon2ZxEn, false)
}

// EnablePowerFactor turns on power factor computation.
func (d *Device) EnablePowerFactor(ctx context.Context) error {
	return d.setEMUCon2Bit(ctx, emucon2PFactorEn, true)
}

// DisablePowerFactor turns off power factor computation.
func (d *Device) DisablePowerFactor(ctx context.Context) error {
	return d.setEMUCon2Bit(ctx, emucon2PFactorEn, false)
}

// PowerCalcMode selects how active power is accumulated.
type PowerCalcMode int

const (
	PowerCalcSigned   PowerCalcMode = iota // algebraic, import and export cancel
	PowerCalcAbsolute                      // absolute value
	PowerCalcPositive                      // positive half only
)

// SetPowerCalcMode selects how active power is accumulated.
func (d *Device) SetPowerCalcMode(ctx context.Context, mode PowerCalcMode) error {
	if mode < PowerCalcSigned || mode > PowerCalcPositive {
		return fmt.Errorf("hlw811x: power calc mode %d: %w", mode, ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon, emuconPModeMask, uint16(mode)<<emuconPModeShift)
}

// GetPowerCalcMode reads back the active power accumulation mode.
func (d *Device) GetPowerCalcMode(ctx context.Context) (PowerCalcMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readUint(ctx, RegEMUCon)
	if err != nil {
		return 0, err
	}
	return PowerCalcMode(v & emuconPModeMask >> emuconPModeShift), nil
}

// RMSMode selects AC or DC RMS computation.
type RMSMode int

const (
	RMSModeAC RMSMode = iota
	RMSModeDC
)

// SetRMSMode selects AC or DC RMS computation.
func (d *Device) SetRMSMode(ctx context.Context, mode RMSMode) error {
	switch mode {
	case RMSModeAC:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.updateBits(ctx, RegEMUCon, emuconDCMode, 0)
	case RMSModeDC:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.updateBits(ctx, RegEMUCon, emuconDCMode, emuconDCMode)
	}
	return fmt.Errorf("hlw811x: rms mode %d: %w", mode, ErrInvalidParam)
}

// GetRMSMode reads back the RMS computation mode.
func (d *Device) GetRMSMode(ctx context.Context) (RMSMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readUint(ctx, RegEMUCon)
	if err != nil {
		return 0, err
	}
	if v&emuconDCMode != 0 {
		return RMSModeDC, nil
	}
	return RMSModeAC, nil
}

// ZeroCrossMode selects which voltage edges count as a zero crossing.
type ZeroCrossMode int

const (
	ZeroCrossPositive ZeroCrossMode = iota
	ZeroCrossNegative
	ZeroCrossBoth
)

// SetZeroCrossMode selects which voltage edges count as a zero crossing.
func (d *Device) SetZeroCrossMode(ctx context.Context, mode ZeroCrossMode) error {
	if mode < ZeroCrossPositive || mode > ZeroCrossBoth {
		return fmt.Errorf("hlw811x: zero-cross mode %d: %w", mode, ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon, emuconZXDMask, uint16(mode)<<emuconZXDShift)
}

// GetZeroCrossMode reads back the zero-crossing edge selection.
func (d *Device) GetZeroCrossMode(ctx context.Context) (ZeroCrossMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readUint(ctx, RegEMUCon)
	if err != nil {
		return 0, err
	}
	return ZeroCrossMode(v & emuconZXDMask >> emuconZXDShift), nil
}

// DataUpdateRate selects how often the measurement registers refresh.
type DataUpdateRate int

const (
	UpdateRate3_4Hz DataUpdateRate = iota
	UpdateRate6_8Hz
	UpdateRate13_65Hz
	UpdateRate27_3Hz
)

// SetDataUpdateRate selects how often the measurement registers refresh.
func (d *Device) SetDataUpdateRate(ctx context.Context, rate DataUpdateRate) error {
	if rate < UpdateRate3_4Hz || rate > UpdateRate27_3Hz {
		return fmt.Errorf("hlw811x: update rate %d: %w", rate, ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(ctx, RegEMUCon2, emucon2DupMask, uint16(rate)<<emucon2DupShift)
}

// GetDataUpdateRate reads back the measurement register refresh rate.
func (d *Device) GetDataUpdateRate(ctx context.Context) (DataUpdateRate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readUint(ctx, RegEMUCon2)
	if err != nil {
		return 0, err
	}
	return DataUpdateRate(v & emucon2DupMask >> emucon2DupShift), nil
}

// ChannelBMode selects what channel B samples.
type ChannelBMode int

const (
	ChannelBCurrent     ChannelBMode = iota // external current input
	ChannelBTemperature                     // internal temperature sensor
)

// SetChannelBMode switches channel B between current sensing and the
// internal temperature sensor.
func (d *Device) SetChannelBMode(ctx context.Context, mode ChannelBMode) error {
	switch mode {
	case ChannelBCurrent:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.updateBits(ctx, RegEMUCon, emuconBTemp, 0)
	case ChannelBTemperature:
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.updateBits(ctx, RegEMUCon, emuconBTemp, emuconBTemp)
	}
	return fmt.Errorf("hlw811x: channel b mode %d: %w", mode, ErrInvalidParam)
}

// GetChannelBMode reads back what channel B is sampling.
func (d *Device) GetChannelBMode(ctx context.Context) (ChannelBMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readUint(ctx, RegEMUCon)
	if err != nil {
		return 0, err
	}
	if v&emuconBTemp != 0 {
		return ChannelBTemperature, nil
	}
	return ChannelBCurrent, nil
}
