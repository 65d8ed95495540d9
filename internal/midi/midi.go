package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// DefaultEnumerationTimeout bounds a port scan; some backends hang when a
// device is unplugged mid-scan
const DefaultEnumerationTimeout = 3 * time.Second

var (
	ErrPortNotFound       = errors.New("port not found")
	ErrEnumerationTimeout = errors.New("port enumeration timed out")
)

// Manager handles MIDI port discovery, listening and opening ports for
// sending. The driver is registered by the caller through a blank import.
type Manager struct {
	mu      sync.RWMutex
	timeout time.Duration
	log     *logrus.Entry
}

// NewManager creates a new MIDI manager
func NewManager() *Manager {
	return &Manager{
		timeout: DefaultEnumerationTimeout,
		log:     logrus.WithField("component", "midi"),
	}
}

// Close cleans up the MIDI driver
func (m *Manager) Close() {
	midi.CloseDriver()
}

// withTimeout runs fn on its own goroutine and gives up after d
func withTimeout[T any](d time.Duration, fn func() T) (T, error) {
	ch := make(chan T, 1)
	go func() { ch <- fn() }()

	select {
	case v := <-ch:
		return v, nil
	case <-time.After(d):
		var zero T
		return zero, ErrEnumerationTimeout
	}
}

func (m *Manager) inPorts() ([]drivers.In, error) {
	return withTimeout(m.timeout, func() []drivers.In { return midi.GetInPorts() })
}

func (m *Manager) outPorts() ([]drivers.Out, error) {
	return withTimeout(m.timeout, func() []drivers.Out { return midi.GetOutPorts() })
}

// ListInPorts returns the names of available MIDI input ports
func (m *Manager) ListInPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ins, err := m.inPorts()
	if err != nil {
		m.log.Warnf("Cannot list input ports: %v", err)
		return nil
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// ListOutPorts returns the names of available MIDI output ports
func (m *Manager) ListOutPorts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outs, err := m.outPorts()
	if err != nil {
		m.log.Warnf("Cannot list output ports: %v", err)
		return nil
	}
	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names
}

// GetInPort returns an input port by name
func (m *Manager) GetInPort(name string) (drivers.In, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ins, err := m.inPorts()
	if err != nil {
		return nil, err
	}
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

// GetOutPort returns an output port by name
func (m *Manager) GetOutPort(name string) (drivers.Out, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outs, err := m.outPorts()
	if err != nil {
		return nil, err
	}
	for _, out := range outs {
		if out.String() == name {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

// Listen delivers every message arriving on the named input port to fn
// until the returned stop function is called
func (m *Manager) Listen(name string, fn func(msg midi.Message, timestampms int32)) (func(), error) {
	in, err := m.GetInPort(name)
	if err != nil {
		return nil, fmt.Errorf("input port %s: %w", name, err)
	}

	stop, err := midi.ListenTo(in, fn)
	if err != nil {
		return nil, fmt.Errorf("failed to start listening: %w", err)
	}
	m.log.WithField("port", name).Debug("Listening")
	return stop, nil
}

// OpenOut opens the named output port for sending
func (m *Manager) OpenOut(name string) (*Out, error) {
	port, err := m.GetOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("output port %s: %w", name, err)
	}

	send, err := midi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}
	return &Out{name: name, send: send, closer: port.Close}, nil
}
