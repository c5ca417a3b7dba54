package hlw811x

import (
	"context"
	"errors"
	"testing"
)

// newMeteringDevice returns a device with the factory-default coefficients
// loaded and unity resistor ratios, matching a bare eval board.
func newMeteringDevice(t *testing.T) (*Device, *Mock) {
	t.Helper()
	d, m := newTestDevice(t)
	queueCoeffResponses(m)
	if _, err := d.ReadCoefficients(context.Background()); err != nil {
		t.Fatalf("ReadCoefficients: %v", err)
	}
	return d, m
}

func TestReadRMSCurrent(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int32
	}{
		{"noise floor", []byte{0x00, 0x00, 0x01}, 0},
		{"one milliamp", []byte{0x00, 0x01, 0x00}, 1},
		{"full scale", []byte{0x7F, 0xFF, 0xFF}, 65534},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newMeteringDevice(t)
			m.QueueResponse(respond(RegRmsIA, tt.raw))
			mA, err := d.ReadRMS(context.Background(), ChannelA)
			if err != nil {
				t.Fatalf("ReadRMS: %v", err)
			}
			if mA != tt.want {
				t.Fatalf("rms = %d mA, want %d", mA, tt.want)
			}
		})
	}
}

func TestReadRMSVoltage(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int32
	}{
		{"full scale", []byte{0x7F, 0xFF, 0xFF}, 131069},
		{"noise floor", []byte{0x00, 0x00, 0x01}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newMeteringDevice(t)
			m.QueueResponse(respond(RegRmsU, tt.raw))
			mV, err := d.ReadRMS(context.Background(), ChannelU)
			if err != nil {
				t.Fatalf("ReadRMS: %v", err)
			}
			if mV != tt.want {
				t.Fatalf("rms = %d mV, want %d", mV, tt.want)
			}
		})
	}
}

func TestReadActivePower(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int32
	}{
		{"invalid sample", []byte{0xFF, 0xFF, 0xFF, 0xFF}, 0},
		{"one lsb", []byte{0x00, 0x00, 0x00, 0x01}, 0},
		{"positive full scale", []byte{0x7F, 0xFF, 0xFF, 0xFF}, 65534999},
		{"negative full scale", []byte{0x80, 0x00, 0x00, 0x00}, -65535000},
		{"typical load", []byte{0x00, 0x0B, 0xDB, 0xBC}, 23716},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newMeteringDevice(t)
			m.QueueResponse(respond(RegPowerPA, tt.raw))
			mW, err := d.ReadActivePower(context.Background(), ChannelA)
			if err != nil {
				t.Fatalf("ReadActivePower: %v", err)
			}
			if mW != tt.want {
				t.Fatalf("power = %d mW, want %d", mW, tt.want)
			}
		})
	}
}

func TestReadActivePowerVoltageChannel(t *testing.T) {
	d, _ := newMeteringDevice(t)
	if _, err := d.ReadActivePower(context.Background(), ChannelU); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadEnergy(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int32
	}{
		{"empty", []byte{0x00, 0x00, 0x00}, 0},
		{"one lsb", []byte{0x00, 0x00, 0x01}, 1},
		{"small", []byte{0x00, 0x00, 0x30}, 93},
		{"half scale", []byte{0x80, 0x00, 0x00}, 16383500},
		{"half scale minus one", []byte{0x7F, 0xFF, 0xFF}, 16383498},
		{"full scale", []byte{0xFF, 0xFF, 0xFF}, 32766998},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newMeteringDevice(t)
			m.QueueResponse(respond(RegEnergyPA, tt.raw))
			wh, err := d.ReadEnergy(context.Background(), ChannelA)
			if err != nil {
				t.Fatalf("ReadEnergy: %v", err)
			}
			if wh != tt.want {
				t.Fatalf("energy = %d Wh, want %d", wh, tt.want)
			}
		})
	}
}

// A calibrated part with a 5:1 current transformer: HFConst and EnergyAC
// come from the part's OTP and the shunt ratio scales the result down.
func TestReadEnergyCalibratedPart(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int32
	}{
		{"one lsb rounds down", []byte{0x00, 0x00, 0x01}, 0},
		{"full scale", []byte{0xFF, 0xFF, 0xFF}, 4194308},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newTestDevice(t)
			m.QueueResponse([]byte{0xB5, 0x40, 0x63})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xEC})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xEB})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xEA})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xE9})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xE8})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xE7})
			m.QueueResponse([]byte{0xE7, 0x69, 0x94})
			m.QueueResponse([]byte{0xFF, 0xFF, 0xE5})
			m.QueueResponse([]byte{0x18, 0x9E, 0x35})
			if _, err := d.ReadCoefficients(context.Background()); err != nil {
				t.Fatalf("ReadCoefficients: %v", err)
			}
			if err := d.SetRatio(Ratio{K1A: 5, K1B: 1, K2: 1}); err != nil {
				t.Fatalf("SetRatio: %v", err)
			}

			m.QueueResponse(respond(RegEnergyPA, tt.raw))
			wh, err := d.ReadEnergy(context.Background(), ChannelA)
			if err != nil {
				t.Fatalf("ReadEnergy: %v", err)
			}
			if wh != tt.want {
				t.Fatalf("energy = %d Wh, want %d", wh, tt.want)
			}
		})
	}
}

func TestReadFrequency(t *testing.T) {
	d, m := newTestDevice(t)
	// 3579545 / (8 * 8949) = 49.9993 Hz
	m.QueueResponse(respond(RegUFreq, []byte{0x22, 0xF5}))
	cHz, err := d.ReadFrequency(context.Background())
	if err != nil {
		t.Fatalf("ReadFrequency: %v", err)
	}
	if cHz != 5000 {
		t.Fatalf("frequency = %d cHz, want 5000", cHz)
	}
}

func TestReadFrequencyEmptyCounter(t *testing.T) {
	d, m := newTestDevice(t)
	m.QueueResponse(respond(RegUFreq, []byte{0x00, 0x00}))
	if _, err := d.ReadFrequency(context.Background()); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadPowerFactor(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want int32
	}{
		{"unity", []byte{0x7F, 0xFF, 0xFF}, 100},
		{"half lagging", []byte{0x40, 0x00, 0x00}, 50},
		{"half leading", []byte{0xC0, 0x00, 0x00}, -50},
		{"zero", []byte{0x00, 0x00, 0x00}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newTestDevice(t)
			m.QueueResponse(respond(RegPF, tt.raw))
			pf, err := d.ReadPowerFactor(context.Background())
			if err != nil {
				t.Fatalf("ReadPowerFactor: %v", err)
			}
			if pf != tt.want {
				t.Fatalf("pf = %d, want %d", pf, tt.want)
			}
		})
	}
}

func TestReadPhaseAngle(t *testing.T) {
	tests := []struct {
		name string
		freq LineFreq
		raw  []byte
		want int32
	}{
		{"50Hz", LineFreq50Hz, []byte{0x00, 0x64}, 805}, // 100 steps of 0.0805°
		{"60Hz", LineFreq60Hz, []byte{0x00, 0x64}, 965}, // 100 steps of 0.0965°
		{"zero", LineFreq50Hz, []byte{0x00, 0x00}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, m := newTestDevice(t)
			m.QueueResponse(respond(RegAngle, tt.raw))
			deg, err := d.ReadPhaseAngle(context.Background(), tt.freq)
			if err != nil {
				t.Fatalf("ReadPhaseAngle: %v", err)
			}
			if deg != tt.want {
				t.Fatalf("angle = %d centidegrees, want %d", deg, tt.want)
			}
		})
	}
}

func TestReadPhaseAngleInvalidFreq(t *testing.T) {
	d, _ := newTestDevice(t)
	if _, err := d.ReadPhaseAngle(context.Background(), LineFreq(9)); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadRMSInvalidChannel(t *testing.T) {
	d, _ := newMeteringDevice(t)
	if _, err := d.ReadRMS(context.Background(), Channel(0x08)); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("err = %v", err)
	}
}
