package hlw811x

import (
	"context"
	"fmt"
)

// Coefficients holds the conversion constants burnt into the chip's OTP
// during factory calibration, plus the pulse constant HFConst. They are
// referenced to a PGA gain of x2 on every channel.
type Coefficients struct {
	RmsIA   uint16
	RmsIB   uint16
	RmsU    uint16
	PowerA  uint16
	PowerB  uint16
	PowerS  uint16
	EnergyA uint16
	EnergyB uint16

	HFConst uint16
}

// coeffRegs lists the checksummed coefficient registers in read order.
var coeffRegs = []Register{
	RegRmsIAC, RegRmsIBC, RegRmsUC,
	RegPowerPAC, RegPowerPBC, RegPowerSC,
	RegEnergyAC, RegEnergyBC,
}

// ReadCoefficients fetches HFConst and the OTP conversion coefficients,
// verifies them against the chip's coefficient checksum register and caches
// them for the conversion routines. On a checksum failure the cache is left
// untouched and ErrIncorrectResponse is returned.
func (d *Device) ReadCoefficients(ctx context.Context) (Coefficients, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	hfconst, err := d.readUint(ctx, RegHFConst)
	if err != nil {
		return Coefficients{}, err
	}
	var vals [8]uint16
	var sum uint16
	for i, reg := range coeffRegs {
		v, err := d.readUint(ctx, reg)
		if err != nil {
			return Coefficients{}, err
		}
		vals[i] = uint16(v)
		sum += uint16(v)
	}
	chk, err := d.readUint(ctx, RegCoeffChk)
	if err != nil {
		return Coefficients{}, err
	}
	if sum+uint16(chk) != 0 {
		return Coefficients{}, fmt.Errorf("hlw811x: coefficient checksum %#04x does not cover sum %#04x: %w",
			chk, sum, ErrIncorrectResponse)
	}

	c := Coefficients{
		RmsIA:   vals[0],
		RmsIB:   vals[1],
		RmsU:    vals[2],
		PowerA:  vals[3],
		PowerB:  vals[4],
		PowerS:  vals[5],
		EnergyA: vals[6],
		EnergyB: vals[7],
		HFConst: uint16(hfconst),
	}
	d.coeff = &c
	return c, nil
}

// Coefficients returns the cached conversion constants. ok is false until
// ReadCoefficients has succeeded.
func (d *Device) Coefficients() (c Coefficients, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.coeff == nil {
		return Coefficients{}, false
	}
	return *d.coeff, true
}
