package hlw811x

// Register is a chip register address. Multi-byte registers are big-endian
// on the wire; writes go to the address with the high bit set.
type Register byte

const (
	RegSysCon    Register = 0x00 // System control: PGA gains, ADC enables
	RegEMUCon    Register = 0x01 // Metering control: accumulation, calc modes
	RegHFConst   Register = 0x02 // Pulse frequency constant
	RegPAGain    Register = 0x05 // Channel A active power gain correction
	RegPBGain    Register = 0x06 // Channel B active power gain correction
	RegPhaseA    Register = 0x07 // Channel A phase correction (1 byte)
	RegPhaseB    Register = 0x08 // Channel B phase correction (1 byte)
	RegPAOS      Register = 0x0A // Channel A active power offset
	RegPBOS      Register = 0x0B // Channel B active power offset
	RegRmsIAOS   Register = 0x0E // Channel A current RMS offset
	RegRmsIBOS   Register = 0x0F // Channel B current RMS offset
	RegIBGain    Register = 0x10 // Channel B gain correction
	RegPSGain    Register = 0x11 // Apparent power gain correction
	RegPSOS      Register = 0x12 // Apparent power offset
	RegEMUCon2   Register = 0x13 // Metering control 2: clear-on-read, update rate
	RegRmsIA     Register = 0x24 // Channel A current RMS (24 bit)
	RegRmsIB     Register = 0x25 // Channel B current RMS (24 bit)
	RegRmsU      Register = 0x26 // Voltage RMS (24 bit)
	RegPF        Register = 0x27 // Power factor (24 bit, two's complement)
	RegEnergyPA  Register = 0x28 // Channel A energy accumulator (24 bit, wraps)
	RegEnergyPB  Register = 0x29 // Channel B energy accumulator (24 bit, wraps)
	RegPowerPA   Register = 0x2C // Channel A active power (32 bit, two's complement)
	RegPowerPB   Register = 0x2D // Channel B active power (32 bit, two's complement)
	RegPowerS    Register = 0x2E // Apparent power (32 bit)
	RegUFreq     Register = 0x34 // Mains frequency counter
	RegAngle     Register = 0x38 // Voltage/current phase angle
	RegCoeffChk  Register = 0x6F // Checksum over the coefficient registers
	RegRmsIAC    Register = 0x70 // Channel A current RMS conversion coefficient
	RegRmsIBC    Register = 0x71 // Channel B current RMS conversion coefficient
	RegRmsUC     Register = 0x72 // Voltage RMS conversion coefficient
	RegPowerPAC  Register = 0x73 // Channel A active power conversion coefficient
	RegPowerPBC  Register = 0x74 // Channel B active power conversion coefficient
	RegPowerSC   Register = 0x75 // Apparent power conversion coefficient
	RegEnergyAC  Register = 0x76 // Channel A energy conversion coefficient
	RegEnergyBC  Register = 0x77 // Channel B energy conversion coefficient
	RegCommand   Register = 0xEA // Command register (write-only)
)

// regWidth maps a register to its payload width in bytes.
var regWidth = map[Register]int{
	RegSysCon: 2, RegEMUCon: 2, RegHFConst: 2,
	RegPAGain: 2, RegPBGain: 2, RegPhaseA: 1, RegPhaseB: 1,
	RegPAOS: 2, RegPBOS: 2, RegRmsIAOS: 2, RegRmsIBOS: 2,
	RegIBGain: 2, RegPSGain: 2, RegPSOS: 2, RegEMUCon2: 2,
	RegRmsIA: 3, RegRmsIB: 3, RegRmsU: 3, RegPF: 3,
	RegEnergyPA: 3, RegEnergyPB: 3,
	RegPowerPA: 4, RegPowerPB: 4, RegPowerS: 4,
	RegUFreq: 2, RegAngle: 2,
	RegCoeffChk: 2,
	RegRmsIAC: 2, RegRmsIBC: 2, RegRmsUC: 2,
	RegPowerPAC: 2, RegPowerPBC: 2, RegPowerSC: 2,
	RegEnergyAC: 2, RegEnergyBC: 2,
	RegCommand: 1,
}

// SYSCON fields.
const (
	sysconPGAIAShift = 0 // PGA gain, channel A current [2:0]
	sysconPGAUShift  = 3 // PGA gain, voltage [5:3]
	sysconPGAIBShift = 6 // PGA gain, channel B current [8:6]
	sysconPGAMask    = 0x01FF

	sysconADCIAEn = 1 << 9  // channel A ADC enable
	sysconADCIBEn = 1 << 10 // channel B ADC enable
	sysconADCUEn  = 1 << 11 // voltage ADC enable
)

// EMUCON fields. Bit positions follow the HLW8112 datasheet.
const (
	emuconEnPA = 1 << 0 // channel A energy accumulation / pulse output
	emuconEnPB = 1 << 1 // channel B energy accumulation / pulse output

	emuconZXDShift = 8 // zero-crossing edge select [9:8]
	emuconZXDMask  = 0x3 << emuconZXDShift

	emuconPModeShift = 10 // active power calculation mode [11:10]
	emuconPModeMask  = 0x3 << emuconPModeShift

	emuconDCMode = 1 << 12 // RMS calculation in DC mode
	emuconBTemp  = 1 << 13 // channel B measures internal temperature
)

// EMUCON2 fields.
const (
	emucon2EpaCb     = 1 << 0 // clear channel A energy on read
	emucon2EpbCb     = 1 << 1 // clear channel B energy on read
	emucon2ZxEn      = 1 << 4 // zero-crossing detection enable
	emucon2PeakEn    = 1 << 5 // peak detection enable
	emucon2WaveEn    = 1 << 6 // waveform machinery enable
	emucon2SagEn     = 1 << 7 // voltage sag detection enable
	emucon2PFactorEn = 1 << 10 // power factor computation enable

	emucon2DupShift = 12 // data update rate select [13:12]
	emucon2DupMask  = 0x3 << emucon2DupShift
)
