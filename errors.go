package hlw811x

import "errors"

// Driver errors. Operations wrap these with context; match with errors.Is.
var (
	// ErrInvalidParam is returned for arguments outside the accepted range,
	// such as an unknown channel or a payload of the wrong width.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrIO indicates a transport-level failure, including short sends.
	ErrIO = errors.New("i/o error")

	// ErrMissingBytes is returned when the chip answered with fewer bytes
	// than the register width requires.
	ErrMissingBytes = errors.New("missing bytes in response")

	// ErrIncorrectResponse is returned when the chip answered with data that
	// fails a consistency rule, such as the coefficient checksum.
	ErrIncorrectResponse = errors.New("incorrect response")

	// ErrNoResponse is returned when the chip did not answer at all.
	ErrNoResponse = errors.New("no response")

	// ErrNotImplemented is returned for operations that need an interface
	// mode this driver does not support, such as SPI framing.
	ErrNotImplemented = errors.New("not implemented")

	// ErrBufferTooSmall is returned when a caller-supplied buffer is shorter
	// than the requested register width.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrChecksumMismatch is returned when a response fails its integrity
	// check.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidData indicates required driver state is missing or unusable,
	// such as conversions attempted before the coefficients are loaded.
	ErrInvalidData = errors.New("invalid data")
)
