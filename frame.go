package hlw811x

// Frame layout on the UART interface:
//
//	read request:  A5 <addr>
//	read response: <payload...> <checksum>
//	write frame:   A5 <addr|80> <payload...> <checksum>
//
// The checksum is 0xFF minus the byte sum (mod 256) of header, address and
// payload. A read response carries no header or address, so its checksum is
// computed over the request bytes plus the received payload.

const (
	frameHeader = 0xA5
	writeBit    = 0x80
)

// Command is a code written to the command register.
type Command byte

const (
	CmdEnableWrite  Command = 0xE5 // unlock register writes
	CmdDisableWrite Command = 0xDC // lock register writes
	CmdReset        Command = 0x96 // chip reset; allow >=60ms to settle
	CmdSelectA      Command = 0x5A // route channel A to the shared outputs
	CmdSelectB      Command = 0xA5 // route channel B to the shared outputs
)

func checksum(parts ...[]byte) byte {
	var sum byte
	for _, p := range parts {
		for _, b := range p {
			sum += b
		}
	}
	return 0xFF - sum
}

func encodeReadRequest(addr byte) []byte {
	return []byte{frameHeader, addr}
}

func encodeWriteFrame(addr byte, payload []byte) []byte {
	f := make([]byte, 0, len(payload)+3)
	f = append(f, frameHeader, addr|writeBit)
	f = append(f, payload...)
	return append(f, checksum(f))
}

// verifyResponse checks the integrity byte of a read response against the
// request that produced it.
func verifyResponse(request, payload []byte, sum byte) bool {
	return checksum(request, payload) == sum
}
