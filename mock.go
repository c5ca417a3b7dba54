package hlw811x

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted Transport for tests and bench bring-up without the
// chip attached. Sent frames are recorded; responses are replayed from a
// queue, one entry per Receive call.
type Mock struct {
	mu        sync.Mutex
	sent      [][]byte
	responses [][]byte
	attempts  int
	lastRead  byte
	pending   bool

	// FailSendAt makes the nth Send attempt (1-based) fail with ErrIO.
	// Zero disables the failure.
	FailSendAt int

	// TruncateResponses caps every response at this many bytes when
	// positive, to exercise short-read handling.
	TruncateResponses int

	// Responder, when set, answers read requests that have no queued
	// response: it is called with the register address and returns the
	// payload, which the mock frames with a valid integrity byte. This
	// turns the mock into a small chip simulator.
	Responder func(reg byte) []byte
}

// NewMock returns an empty scripted transport.
func NewMock() *Mock {
	return &Mock{}
}

// QueueResponse appends one read response (payload plus checksum byte) to
// the replay queue.
func (m *Mock) QueueResponse(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, append([]byte(nil), b...))
}

// Sent returns the frames recorded so far.
func (m *Mock) Sent() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *Mock) Send(_ context.Context, frame []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.FailSendAt > 0 && m.attempts == m.FailSendAt {
		return 0, fmt.Errorf("mock: scripted send failure: %w", ErrIO)
	}
	m.sent = append(m.sent, append([]byte(nil), frame...))
	if len(frame) == 2 && frame[0] == frameHeader {
		m.lastRead = frame[1]
		m.pending = true
	} else {
		m.pending = false
	}
	return len(frame), nil
}

func (m *Mock) Receive(_ context.Context, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var resp []byte
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.Responder != nil && m.pending:
		payload := m.Responder(m.lastRead)
		if payload == nil {
			return 0, nil
		}
		m.pending = false
		sum := checksum(encodeReadRequest(m.lastRead), payload)
		resp = append(append([]byte(nil), payload...), sum)
	default:
		return 0, nil // chip stays silent
	}
	if m.TruncateResponses > 0 && len(resp) > m.TruncateResponses {
		resp = resp[:m.TruncateResponses]
	}
	return copy(buf, resp), nil
}

func (m *Mock) Close() error { return nil }
