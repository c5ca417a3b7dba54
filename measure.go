package hlw811x

import (
	"context"
	"fmt"
)

// Divisions truncate toward zero so that results agree bit-for-bit with the
// chip vendor's reference math. PGA scaling is relative to the x2 gain the
// OTP coefficients are calibrated at.

const crystalHz = 3579545 // CLKI crystal

func pgaScale(g PGAGain) float64 {
	return float64(g.Factor()) / 2
}

// ReadRMS reads the RMS value of a channel: milliamps for the current
// channels A and B, millivolts for the voltage channel U.
func (d *Device) ReadRMS(ctx context.Context, ch Channel) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coeff == nil {
		return 0, fmt.Errorf("hlw811x: coefficients not loaded: %w", ErrInvalidData)
	}

	var reg Register
	var coeff uint16
	var shift uint
	var k float64
	switch ch {
	case ChannelA:
		reg, coeff, shift = RegRmsIA, d.coeff.RmsIA, 23
		k = d.ratio.K1A * pgaScale(d.pga.A)
	case ChannelB:
		reg, coeff, shift = RegRmsIB, d.coeff.RmsIB, 23
		k = d.ratio.K1B * pgaScale(d.pga.B)
	case ChannelU:
		reg, coeff, shift = RegRmsU, d.coeff.RmsU, 22
		k = d.ratio.K2 * pgaScale(d.pga.U)
	default:
		return 0, fmt.Errorf("hlw811x: rms channel %v: %w", ch, ErrInvalidParam)
	}

	raw, err := d.readUint(ctx, reg)
	if err != nil {
		return 0, err
	}
	v := int64(raw) * int64(coeff) >> shift
	return int32(float64(v) / k), nil
}

// ReadActivePower reads the active power of current channel A or B in
// milliwatts. Negative values mean exported power. The register's all-ones
// pattern marks an invalid sample and reads as 0.
func (d *Device) ReadActivePower(ctx context.Context, ch Channel) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coeff == nil {
		return 0, fmt.Errorf("hlw811x: coefficients not loaded: %w", ErrInvalidData)
	}

	var reg Register
	var coeff uint16
	var k float64
	switch ch {
	case ChannelA:
		reg, coeff = RegPowerPA, d.coeff.PowerA
		k = d.ratio.K1A * pgaScale(d.pga.A)
	case ChannelB:
		reg, coeff = RegPowerPB, d.coeff.PowerB
		k = d.ratio.K1B * pgaScale(d.pga.B)
	default:
		return 0, fmt.Errorf("hlw811x: power channel %v: %w", ch, ErrInvalidParam)
	}
	k *= d.ratio.K2 * pgaScale(d.pga.U)

	raw, err := d.readUint(ctx, reg)
	if err != nil {
		return 0, err
	}
	if raw == 0xFFFFFFFF {
		return 0, nil
	}
	mw := int64(int32(raw)) * int64(coeff) * 1000 / (1 << 31)
	return int32(float64(mw) / k), nil
}

// ReadEnergy reads the energy accumulator of current channel A or B in
// watt-hours. The 24-bit accumulator wraps; tracking rollover is the
// caller's job.
func (d *Device) ReadEnergy(ctx context.Context, ch Channel) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coeff == nil {
		return 0, fmt.Errorf("hlw811x: coefficients not loaded: %w", ErrInvalidData)
	}

	var reg Register
	var coeff uint16
	var k float64
	switch ch {
	case ChannelA:
		reg, coeff = RegEnergyPA, d.coeff.EnergyA
		k = d.ratio.K1A * pgaScale(d.pga.A)
	case ChannelB:
		reg, coeff = RegEnergyPB, d.coeff.EnergyB
		k = d.ratio.K1B * pgaScale(d.pga.B)
	default:
		return 0, fmt.Errorf("hlw811x: energy channel %v: %w", ch, ErrInvalidParam)
	}
	k *= d.ratio.K2 * pgaScale(d.pga.U)

	raw, err := d.readUint(ctx, reg)
	if err != nil {
		return 0, err
	}
	// 1000/2^41 reduced to 125/2^38 keeps the product inside int64 for the
	// full 24-bit accumulator range.
	wh := int64(raw) * int64(coeff) * int64(d.coeff.HFConst) * 125 >> 38
	return int32(float64(wh) / k), nil
}

// roundDiv divides rounding half away from zero.
func roundDiv(num, den int64) int64 {
	if num < 0 {
		return (num - den/2) / den
	}
	return (num + den/2) / den
}

// ReadFrequency reads the mains frequency in centihertz. The waveform
// machinery must be enabled first; see EnableWaveform.
func (d *Device) ReadFrequency(ctx context.Context) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readUint(ctx, RegUFreq)
	if err != nil {
		return 0, err
	}
	if raw == 0 {
		return 0, fmt.Errorf("hlw811x: frequency counter empty: %w", ErrInvalidData)
	}
	return int32(roundDiv(crystalHz*100, 8*int64(raw))), nil
}

// ReadPowerFactor reads the power factor of the selected channel in
// centi-units, -100..100. Negative values mean a leading current. The power
// factor machinery must be enabled first; see EnablePowerFactor.
func (d *Device) ReadPowerFactor(ctx context.Context) (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readUint(ctx, RegPF)
	if err != nil {
		return 0, err
	}
	v := int64(raw)
	if raw&0x800000 != 0 { // 24-bit two's complement
		v -= 1 << 24
	}
	return int32(roundDiv(v*100, 1<<23)), nil
}

// LineFreq is the nominal mains frequency, needed to scale the phase angle
// register.
type LineFreq int

const (
	LineFreq50Hz LineFreq = iota
	LineFreq60Hz
)

// ReadPhaseAngle reads the angle between voltage and the selected current
// channel in centidegrees. The register counts in steps of 0.0805 degrees on
// a 50Hz mains and 0.0965 degrees on 60Hz. Zero-crossing detection must be
// enabled first; see EnableZeroCrossing.
func (d *Device) ReadPhaseAngle(ctx context.Context, freq LineFreq) (int32, error) {
	var step int64
	switch freq {
	case LineFreq50Hz:
		step = 805
	case LineFreq60Hz:
		step = 965
	default:
		return 0, fmt.Errorf("hlw811x: line frequency %d: %w", freq, ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	raw, err := d.readUint(ctx, RegAngle)
	if err != nil {
		return 0, err
	}
	return int32(roundDiv(int64(raw)*step, 100)), nil
}
