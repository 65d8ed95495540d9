package capture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
)

// InPorts opens named input ports and delivers their messages to a callback
type InPorts interface {
	Listen(name string, fn func(msg midi.Message, timestampms int32)) (stop func(), err error)
}

// Controller owns the open input ports and feeds them into a Recorder.
// Reconfiguration and closing are serialized by a mutex.
type Controller struct {
	mu    sync.Mutex
	ports InPorts
	rec   *Recorder
	names []string
	stops []func()
	log   *logrus.Entry
}

// NewController returns a controller recording into rec
func NewController(ports InPorts, rec *Recorder) *Controller {
	return &Controller{
		ports: ports,
		rec:   rec,
		log:   logrus.WithFields(logrus.Fields{"component": "input", "session": rec.ID()}),
	}
}

// Recorder returns the recorder fed by the ports
func (c *Controller) Recorder() *Recorder {
	return c.rec
}

// PortNames returns the names of the ports currently listened to
func (c *Controller) PortNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.names...)
}

// SetPorts closes the current ports and listens to the named ones. A port
// that fails to open is logged and skipped; the returned error joins all
// such failures.
func (c *Controller) SetPorts(names []string) error {
	if len(names) == 0 {
		c.log.Warn("No input port selected")
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopAll()

	var errs []error
	for _, name := range names {
		if name == "" {
			continue
		}
		stop, err := c.ports.Listen(name, c.rec.HandleMIDI)
		if err != nil {
			c.log.WithField("port", name).Errorf("Cannot open input port: %v", err)
			errs = append(errs, fmt.Errorf("input port %q: %w", name, err))
			continue
		}
		c.names = append(c.names, name)
		c.stops = append(c.stops, stop)
	}
	c.log.WithField("ports", c.names).Info("Accepting MIDI messages")
	return errors.Join(errs...)
}

// Close stops listening to every port
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopAll()
	c.log.Info("Input ports closed")
}

func (c *Controller) stopAll() {
	for _, stop := range c.stops {
		if stop != nil {
			stop()
		}
	}
	c.stops = nil
	c.names = nil
}
