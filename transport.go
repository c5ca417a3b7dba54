package hlw811x

import "context"

// Transport moves raw frame bytes between the driver and the chip.
// Implementations must be safe for use by a single Device; the Device
// serializes its own calls.
type Transport interface {
	// Send writes one frame. A short write is a transport failure and must
	// be reported with an error wrapping ErrIO.
	Send(ctx context.Context, frame []byte) (int, error)

	// Receive reads response bytes into buf, returning however many arrived
	// before the transport's read deadline. Returning (0, nil) means the
	// chip stayed silent.
	Receive(ctx context.Context, buf []byte) (int, error)

	Close() error
}
