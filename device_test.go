package hlw811x

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func newTestDevice(t *testing.T) (*Device, *Mock) {
	t.Helper()
	m := NewMock()
	d, err := New(m, InterfaceUART)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, m
}

// respond builds a read response (payload plus integrity byte) for a
// register the way the chip would.
func respond(reg Register, payload []byte) []byte {
	sum := checksum(encodeReadRequest(byte(reg)), payload)
	return append(append([]byte(nil), payload...), sum)
}

func assertSent(t *testing.T, m *Mock, want ...[]byte) {
	t.Helper()
	sent := m.Sent()
	if len(sent) != len(want) {
		t.Fatalf("sent %d frames, want %d", len(sent), len(want))
	}
	for i := range want {
		if !bytes.Equal(sent[i], want[i]) {
			t.Fatalf("frame %d = % X, want % X", i, sent[i], want[i])
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(nil, InterfaceUART); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("nil transport: %v", err)
	}
	if _, err := New(NewMock(), Interface(7)); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("bad interface: %v", err)
	}
	d, err := New(NewMock(), InterfaceUART)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := d.CurrentChannel(); got != ChannelA {
		t.Fatalf("initial channel = %v", got)
	}
}

func TestReadRegister(t *testing.T) {
	d, m := newTestDevice(t)
	m.QueueResponse([]byte{0x0A, 0x04, 0x4C})

	buf := make([]byte, 2)
	n, err := d.ReadRegister(context.Background(), RegSysCon, buf)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if n != 2 || !bytes.Equal(buf, []byte{0x0A, 0x04}) {
		t.Fatalf("read %d bytes % X", n, buf)
	}
	assertSent(t, m, []byte{0xA5, 0x00})
}

func TestReadRegisterErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("buffer too small", func(t *testing.T) {
		d, _ := newTestDevice(t)
		if _, err := d.ReadRegister(ctx, RegRmsIA, make([]byte, 2)); !errors.Is(err, ErrBufferTooSmall) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("unknown register", func(t *testing.T) {
		d, _ := newTestDevice(t)
		if _, err := d.ReadRegister(ctx, Register(0x50), make([]byte, 4)); !errors.Is(err, ErrInvalidParam) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("no response", func(t *testing.T) {
		d, _ := newTestDevice(t)
		if _, err := d.ReadRegister(ctx, RegSysCon, make([]byte, 2)); !errors.Is(err, ErrNoResponse) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("missing bytes", func(t *testing.T) {
		d, m := newTestDevice(t)
		m.TruncateResponses = 2
		m.QueueResponse([]byte{0x0A, 0x04, 0x4C})
		if _, err := d.ReadRegister(ctx, RegSysCon, make([]byte, 2)); !errors.Is(err, ErrMissingBytes) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("checksum mismatch", func(t *testing.T) {
		d, m := newTestDevice(t)
		m.QueueResponse([]byte{0x0A, 0x04, 0x4D})
		if _, err := d.ReadRegister(ctx, RegSysCon, make([]byte, 2)); !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("err = %v", err)
		}
	})
}

// Reading a measurement register must not disturb driver or chip state:
// the same response replayed twice decodes to the same bytes with no extra
// traffic per read.
func TestReadRegisterIdempotent(t *testing.T) {
	d, m := newTestDevice(t)
	resp := respond(RegRmsIA, []byte{0x00, 0x01, 0xC3})
	m.QueueResponse(resp)
	m.QueueResponse(resp)

	var first, second [3]byte
	if _, err := d.ReadRegister(context.Background(), RegRmsIA, first[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := d.ReadRegister(context.Background(), RegRmsIA, second[:]); err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("reads differ: % X vs % X", first, second)
	}
	assertSent(t, m, []byte{0xA5, 0x24}, []byte{0xA5, 0x24})
}

func TestWriteRegister(t *testing.T) {
	d, m := newTestDevice(t)
	if err := d.WriteRegister(context.Background(), RegSysCon, []byte{0x0A, 0x04}); err != nil {
		t.Fatalf("WriteRegister: %v", err)
	}
	assertSent(t, m,
		[]byte{0xA5, 0xEA, 0xE5, 0x8B},
		[]byte{0xA5, 0x80, 0x0A, 0x04, 0xCC},
		[]byte{0xA5, 0xEA, 0xDC, 0x94},
	)
}

func TestWriteRegisterWrongWidth(t *testing.T) {
	d, _ := newTestDevice(t)
	if err := d.WriteRegister(context.Background(), RegSysCon, []byte{0x0A}); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("err = %v", err)
	}
}

// The register file must be locked again even when the data frame fails.
func TestWriteRegisterLocksAfterFailure(t *testing.T) {
	d, m := newTestDevice(t)
	m.FailSendAt = 2 // the data frame

	err := d.WriteRegister(context.Background(), RegSysCon, []byte{0x0A, 0x04})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err = %v", err)
	}
	assertSent(t, m,
		[]byte{0xA5, 0xEA, 0xE5, 0x8B},
		[]byte{0xA5, 0xEA, 0xDC, 0x94},
	)
}

func TestReset(t *testing.T) {
	d, m := newTestDevice(t)
	if err := d.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	assertSent(t, m, []byte{0xA5, 0xEA, 0x96, 0xDA})
}

func TestSelectChannel(t *testing.T) {
	tests := []struct {
		ch    Channel
		frame []byte
	}{
		{ChannelA, []byte{0xA5, 0xEA, 0x5A, 0x16}},
		{ChannelB, []byte{0xA5, 0xEA, 0xA5, 0xCB}},
	}
	for _, tt := range tests {
		t.Run(tt.ch.String(), func(t *testing.T) {
			d, m := newTestDevice(t)
			if err := d.SelectChannel(context.Background(), tt.ch); err != nil {
				t.Fatalf("SelectChannel: %v", err)
			}
			assertSent(t, m, tt.frame)
			if got := d.CurrentChannel(); got != tt.ch {
				t.Fatalf("CurrentChannel = %v", got)
			}
		})
	}
}

func TestSelectChannelInvalid(t *testing.T) {
	d, _ := newTestDevice(t)
	if err := d.SelectChannel(context.Background(), ChannelU); !errors.Is(err, ErrInvalidParam) {
		t.Fatalf("err = %v", err)
	}
	if got := d.CurrentChannel(); got != ChannelA {
		t.Fatalf("selection changed to %v on failure", got)
	}
}

func TestSPIFramingNotImplemented(t *testing.T) {
	d, err := New(NewMock(), InterfaceSPI)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := d.ReadRegister(context.Background(), RegSysCon, make([]byte, 2)); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("read err = %v", err)
	}
	if err := d.WriteRegister(context.Background(), RegSysCon, []byte{0x0A, 0x04}); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("write err = %v", err)
	}
}
