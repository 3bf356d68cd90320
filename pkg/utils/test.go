package utils

import (
	"errors"
	"math"
	"sync"
)

// MockTransport implements the Transport interface for testing. It records
// every message instead of transmitting it.
type MockTransport struct {
	mu       sync.Mutex
	messages []any
	closed   bool

	// SendErr, when set, is returned by Send and nothing is recorded.
	SendErr error
}

// Send stores the message for later inspection.
func (m *MockTransport) Send(msg any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("mock transport closed")
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Close marks the transport closed. Later sends fail.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.messages))
	copy(out, m.messages)
	return out
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SineSamples returns n samples of amp*sin(2*pi*freq*t + phase) taken dt
// seconds apart.
func SineSamples(n int, freq, dt, amp, phase float64) []float32 {
	buffer := make([]float32, n)
	for i := range buffer {
		t := float64(i) * dt
		buffer[i] = float32(amp * math.Sin(2*math.Pi*freq*t+phase))
	}
	return buffer
}

// GenerateSineWave returns n 16-bit PCM samples of a sine at frequency Hz.
func GenerateSineWave(size int, sampleRate, frequency float64) []int {
	buffer := make([]int, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int(math.Sin(2*math.Pi*frequency*t) * math.MaxInt16 * 0.9)
	}
	return buffer
}

// NearlyEqual reports whether a and b differ by at most tol.
func NearlyEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
