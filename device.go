package hlw811x

import (
	"context"
	"encoding/hex"
	"fmt"
)

// ReadRegister reads a register into buf and returns the number of bytes
// stored, which is always the register width on success.
func (d *Device) ReadRegister(ctx context.Context, reg Register, buf []byte) (int, error) {
	width := regWidth[reg]
	if width == 0 {
		return 0, fmt.Errorf("hlw811x: read reg %#02x: %w", byte(reg), ErrInvalidParam)
	}
	if len(buf) < width {
		return 0, fmt.Errorf("hlw811x: read reg %#02x needs %d bytes, have %d: %w",
			byte(reg), width, len(buf), ErrBufferTooSmall)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.readLocked(ctx, reg, buf[:width]); err != nil {
		return 0, err
	}
	return width, nil
}

// WriteRegister writes a register. The payload length must equal the register
// width. Every write is bracketed by the enable-write and disable-write
// commands; the lock command is attempted even when the data frame fails.
func (d *Device) WriteRegister(ctx context.Context, reg Register, payload []byte) error {
	width := regWidth[reg]
	if width == 0 || len(payload) != width {
		return fmt.Errorf("hlw811x: write reg %#02x with %d bytes: %w",
			byte(reg), len(payload), ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLocked(ctx, reg, payload)
}

// SendCommand writes a raw command code. No response is expected.
func (d *Device) SendCommand(ctx context.Context, cmd Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commandLocked(ctx, cmd)
}

// Reset issues the chip reset command. The chip needs at least 60ms before
// it accepts the next operation; pacing that settle time is the caller's
// responsibility.
func (d *Device) Reset(ctx context.Context) error {
	return d.SendCommand(ctx, CmdReset)
}

// SelectChannel routes channel A or B to the shared measurement outputs.
// Selection does not enable the channel; see EnableChannel.
func (d *Device) SelectChannel(ctx context.Context, ch Channel) error {
	var cmd Command
	switch ch {
	case ChannelA:
		cmd = CmdSelectA
	case ChannelB:
		cmd = CmdSelectB
	default:
		return fmt.Errorf("hlw811x: select channel %v: %w", ch, ErrInvalidParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.commandLocked(ctx, cmd); err != nil {
		return err
	}
	d.selected = ch
	return nil
}

func (d *Device) readLocked(ctx context.Context, reg Register, buf []byte) error {
	if d.iface != InterfaceUART {
		return fmt.Errorf("hlw811x: spi framing: %w", ErrNotImplemented)
	}
	req := encodeReadRequest(byte(reg))
	if err := d.send(ctx, req); err != nil {
		return fmt.Errorf("hlw811x: read reg %#02x: %w", byte(reg), err)
	}
	resp := make([]byte, len(buf)+1)
	n, err := d.t.Receive(ctx, resp)
	if err != nil {
		return fmt.Errorf("hlw811x: read reg %#02x: %w", byte(reg), err)
	}
	if n == 0 {
		return fmt.Errorf("hlw811x: read reg %#02x: %w", byte(reg), ErrNoResponse)
	}
	if n < len(resp) {
		return fmt.Errorf("hlw811x: read reg %#02x: got %d of %d bytes: %w",
			byte(reg), n, len(resp), ErrMissingBytes)
	}
	if !verifyResponse(req, resp[:len(buf)], resp[len(buf)]) {
		return fmt.Errorf("hlw811x: read reg %#02x: %w", byte(reg), ErrChecksumMismatch)
	}
	d.log.Debug("hlw811x read", "reg", fmt.Sprintf("%#02x", byte(reg)),
		"data", hex.EncodeToString(resp[:len(buf)]))
	copy(buf, resp[:len(buf)])
	return nil
}

func (d *Device) writeLocked(ctx context.Context, reg Register, payload []byte) error {
	if err := d.commandLocked(ctx, CmdEnableWrite); err != nil {
		return err
	}
	werr := d.send(ctx, encodeWriteFrame(byte(reg), payload))
	// Lock the register file again even when the data frame failed, so a
	// partial failure does not leave the chip writable.
	derr := d.commandLocked(ctx, CmdDisableWrite)
	if werr != nil {
		return fmt.Errorf("hlw811x: write reg %#02x: %w", byte(reg), werr)
	}
	if derr != nil {
		return derr
	}
	d.log.Debug("hlw811x write", "reg", fmt.Sprintf("%#02x", byte(reg)),
		"data", hex.EncodeToString(payload))
	return nil
}

func (d *Device) commandLocked(ctx context.Context, cmd Command) error {
	if d.iface != InterfaceUART {
		return fmt.Errorf("hlw811x: spi framing: %w", ErrNotImplemented)
	}
	frame := encodeWriteFrame(byte(RegCommand), []byte{byte(cmd)})
	if err := d.send(ctx, frame); err != nil {
		return fmt.Errorf("hlw811x: command %#02x: %w", byte(cmd), err)
	}
	return nil
}

func (d *Device) send(ctx context.Context, frame []byte) error {
	n, err := d.t.Send(ctx, frame)
	if err != nil {
		return err
	}
	if n < len(frame) {
		return fmt.Errorf("short send %d of %d bytes: %w", n, len(frame), ErrIO)
	}
	return nil
}

// readUint reads a register and decodes it as a big-endian unsigned value.
func (d *Device) readUint(ctx context.Context, reg Register) (uint32, error) {
	var buf [4]byte
	width := regWidth[reg]
	if err := d.readLocked(ctx, reg, buf[:width]); err != nil {
		return 0, err
	}
	var v uint32
	for _, b := range buf[:width] {
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// updateBits read-modify-writes a 16-bit register.
func (d *Device) updateBits(ctx context.Context, reg Register, mask, bits uint16) error {
	v, err := d.readUint(ctx, reg)
	if err != nil {
		return err
	}
	next := uint16(v)&^mask | bits&mask
	return d.writeLocked(ctx, reg, []byte{byte(next >> 8), byte(next)})
}
