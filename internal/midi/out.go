package midi

import (
	"sync"

	"gitlab.com/gomidi/midi/v2"
)

// Out is an output port opened for sending
type Out struct {
	mu     sync.Mutex
	name   string
	send   func(midi.Message) error
	closer func() error
}

// Name returns the port name
func (o *Out) Name() string {
	return o.name
}

// Send writes one message to the port
func (o *Out) Send(msg midi.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send(msg)
}

// Close closes the port. Sending afterwards fails.
func (o *Out) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closer()
}
