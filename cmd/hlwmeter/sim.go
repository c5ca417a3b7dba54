package main

import (
	"github.com/libmcu/hlw811x"
)

// simulatedChip returns a mock transport scripted with power-on defaults and
// a plausible resistive load (~230V, ~1A) so the readout loop has something
// to show without hardware attached.
func simulatedChip() *hlw811x.Mock {
	regs := map[byte][]byte{
		byte(hlw811x.RegSysCon):  {0x0A, 0x04}, // power-on default
		byte(hlw811x.RegEMUCon):  {0x00, 0x00},
		byte(hlw811x.RegEMUCon2): {0x00, 0x00},

		// Factory-default coefficients with a matching checksum register.
		byte(hlw811x.RegHFConst):  {0xFF, 0xFF},
		byte(hlw811x.RegRmsIAC):   {0xFF, 0xFF},
		byte(hlw811x.RegRmsIBC):   {0xFF, 0xFF},
		byte(hlw811x.RegRmsUC):    {0xFF, 0xFF},
		byte(hlw811x.RegPowerPAC): {0xFF, 0xFF},
		byte(hlw811x.RegPowerPBC): {0xFF, 0xFF},
		byte(hlw811x.RegPowerSC):  {0xFF, 0xFF},
		byte(hlw811x.RegEnergyAC): {0xFF, 0xFF},
		byte(hlw811x.RegEnergyBC): {0xFF, 0xFF},
		byte(hlw811x.RegCoeffChk): {0x00, 0x08},

		byte(hlw811x.RegRmsIA):   {0x02, 0x00, 0x00}, // ~1A
		byte(hlw811x.RegRmsIB):   {0x00, 0x00, 0x00},
		byte(hlw811x.RegRmsU):    {0xE0, 0xA1, 0xA0}, // ~230V
		byte(hlw811x.RegPowerPA): {0x02, 0x3E, 0xF2, 0x00}, // ~1.15kW
		byte(hlw811x.RegPowerPB): {0x00, 0x00, 0x00, 0x00},
		byte(hlw811x.RegPowerS):  {0x02, 0x3F, 0x10, 0x00},
		byte(hlw811x.RegUFreq):   {0x22, 0xF5}, // ~50Hz
		byte(hlw811x.RegPF):      {0x78, 0x51, 0xEB}, // ~0.94
		byte(hlw811x.RegAngle):   {0x00, 0xE9},
	}

	var energyA uint32 = 0x0123
	m := hlw811x.NewMock()
	m.Responder = func(reg byte) []byte {
		if reg == byte(hlw811x.RegEnergyPA) {
			energyA++ // keep the accumulator moving between polls
			return []byte{byte(energyA >> 16), byte(energyA >> 8), byte(energyA)}
		}
		if reg == byte(hlw811x.RegEnergyPB) {
			return []byte{0x00, 0x00, 0x00}
		}
		return regs[reg]
	}
	return m
}
