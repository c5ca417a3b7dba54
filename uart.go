package hlw811x

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"go.bug.st/serial"
	"golang.org/x/time/rate"
)

const (
	defaultBaudRate = 9600
	uartReadTimeout = 100 * time.Millisecond

	// The chip needs a quiet gap between frames; pace transport operations
	// rather than making every caller sleep.
	maxOpsPerSec = 200
)

// UART is a Transport over a serial port. The chip talks 8 data bits, even
// parity, 1 stop bit.
type UART struct {
	port    serial.Port
	limiter *rate.Limiter
	log     *slog.Logger
}

// OpenUART opens a serial port as a chip transport. A baud of 0 selects the
// chip's default 9600.
func OpenUART(portName string, baud int) (*UART, error) {
	if baud == 0 {
		baud = defaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("uart: open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(uartReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("uart: set read timeout: %w", err)
	}
	return &UART{
		port:    port,
		limiter: rate.NewLimiter(rate.Limit(maxOpsPerSec), 1),
		log:     slog.Default(),
	}, nil
}

func (u *UART) Send(ctx context.Context, frame []byte) (int, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	n, err := u.port.Write(frame)
	if err != nil {
		return n, fmt.Errorf("uart: write: %w: %v", ErrIO, err)
	}
	u.log.Debug("uart send", "frame", hex.EncodeToString(frame))
	if n < len(frame) {
		return n, fmt.Errorf("uart: short write %d of %d: %w", n, len(frame), ErrIO)
	}
	return n, nil
}

func (u *UART) Receive(ctx context.Context, buf []byte) (int, error) {
	if err := u.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	// A single port read may return a partial response; keep reading until
	// the buffer is full or the read timeout signals the chip went quiet.
	total := 0
	for total < len(buf) {
		n, err := u.port.Read(buf[total:])
		if err != nil {
			return total, fmt.Errorf("uart: read: %w: %v", ErrIO, err)
		}
		if n == 0 { // timeout
			break
		}
		total += n
	}
	u.log.Debug("uart recv", "data", hex.EncodeToString(buf[:total]))
	return total, nil
}

func (u *UART) Close() error {
	return u.port.Close()
}
