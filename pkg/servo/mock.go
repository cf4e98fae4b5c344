package servo

import (
	"sync"

	"github.com/petwatch/go-petwatch/internal/log"
)

// MockOutput records angle commands without touching hardware.
// Used by tests and by the --dry-run mode of the main binary.
type MockOutput struct {
	mu    sync.Mutex
	calls []MockCall

	// Err, when set, is returned by every SetAngle call.
	Err error

	// Verbose logs each command at debug level.
	Verbose bool
}

// MockCall is one recorded SetAngle invocation.
type MockCall struct {
	Channel int
	Degrees float64
}

// NewMockOutput creates an output that discards commands.
func NewMockOutput() *MockOutput {
	return &MockOutput{}
}

// SetAngle records the call and returns Err if configured.
func (m *MockOutput) SetAngle(channel int, degrees float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.calls = append(m.calls, MockCall{Channel: channel, Degrees: degrees})
	if m.Verbose {
		log.Debug("servo command", "channel", channel, "degrees", degrees)
	}
	return nil
}

// Close implements Output.
func (m *MockOutput) Close() error { return nil }

// Calls returns a copy of the recorded commands.
func (m *MockOutput) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Last returns the most recent command, or false if none were recorded.
func (m *MockOutput) Last() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return MockCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}
