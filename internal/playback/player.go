package playback

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"

	"github.com/PixPMusic/midit/internal/event"
	"github.com/PixPMusic/midit/internal/message"
	"github.com/PixPMusic/midit/internal/note"
)

// DefaultLockTimeout bounds how long SetPort waits for a running playback
const DefaultLockTimeout = 60 * time.Second

// OutPort is an open output port
type OutPort interface {
	Send(msg midi.Message) error
	Close() error
}

// OutPorts lists and opens output ports by name
type OutPorts interface {
	ListOutPorts() []string
	OpenOut(name string) (OutPort, error)
}

// Player sends prepared message sequences to one output port. Playback
// holds the port lock for its whole duration; swapping the port waits a
// bounded time for it.
type Player struct {
	ports   OutPorts
	timeout time.Duration

	// lock is held by Send and SetPort
	lock chan struct{}

	// mu guards port and name, which CloseAbruptly reads without the lock
	mu   sync.Mutex
	port OutPort
	name string

	sleep func(ctx context.Context, d time.Duration) error
	log   *logrus.Entry
}

// NewPlayer returns a player with no port set. A non-positive timeout
// selects DefaultLockTimeout.
func NewPlayer(ports OutPorts, timeout time.Duration) *Player {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &Player{
		ports:   ports,
		timeout: timeout,
		lock:    make(chan struct{}, 1),
		sleep:   sleepContext,
		log:     logrus.WithField("component", "output"),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Player) acquire(timeout time.Duration) bool {
	select {
	case p.lock <- struct{}{}:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (p *Player) release() {
	<-p.lock
}

func (p *Player) current() (OutPort, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port, p.name
}

// PortName returns the name of the active port, empty when none is set
func (p *Player) PortName() string {
	_, name := p.current()
	return name
}

// SetPort silences and closes the active port and opens the named one.
// An unknown name leaves the player without a port. It returns false if a
// playback kept the port busy for longer than the lock timeout.
func (p *Player) SetPort(name string) bool {
	if !p.acquire(p.timeout) {
		p.log.WithField("port", name).Warn("Output port is busy, not changed")
		return false
	}
	defer p.release()

	old, _ := p.current()
	if old != nil {
		p.sendAll(old, PanicMessages())
		p.sendAll(old, SustainOffMessages())
		if err := old.Close(); err != nil {
			p.log.Errorf("Cannot close output port: %v", err)
		}
	}

	var port OutPort
	if name != "" && slices.Contains(p.ports.ListOutPorts(), name) {
		opened, err := p.ports.OpenOut(name)
		if err != nil {
			p.log.WithField("port", name).Errorf("Cannot open output port: %v", err)
		} else {
			port = opened
		}
	} else {
		p.log.WithField("port", name).Warn("Output port not found")
	}

	p.mu.Lock()
	p.port = port
	p.name = ""
	if port != nil {
		p.name = name
	}
	p.mu.Unlock()
	return true
}

// Send prepares the lists and plays them, sleeping each message's delta
// before sending it. It blocks until the sequence ends or ctx is done and
// must not run on an input delivery goroutine. Failed sends are logged and
// skipped.
func (p *Player) Send(ctx context.Context, notes note.List, events *event.List) error {
	p.lock <- struct{}{}
	defer p.release()

	port, name := p.current()
	if port == nil {
		p.log.Warn("Output port is not set")
		return nil
	}

	msgs := Prepare(notes, events)
	entry := p.log.WithField("port", name)
	entry.Infof("Sending %d messages to output device", len(msgs))

	for _, m := range msgs {
		if err := p.sleep(ctx, time.Duration(m.Time*float64(time.Second))); err != nil {
			return err
		}
		p.send(port, m)
	}
	return nil
}

func (p *Player) send(port OutPort, m message.Message) {
	wire, err := m.MIDI()
	if err != nil {
		p.log.WithField("message", m.String()).Errorf("Cannot encode message: %v", err)
		return
	}
	if err := port.Send(wire); err != nil {
		p.log.WithField("message", m.String()).Errorf("Send failed: %v", err)
	}
}

func (p *Player) sendAll(port OutPort, msgs []midi.Message) {
	for _, m := range msgs {
		if err := port.Send(m); err != nil {
			p.log.Errorf("Send failed: %v", err)
		}
	}
}

// CloseAbruptly silences the port without waiting for a running playback
func (p *Player) CloseAbruptly() {
	port, _ := p.current()
	if port == nil {
		return
	}
	p.sendAll(port, PanicMessages())
	p.sendAll(port, ResetMessages())
	p.sendAll(port, SustainOffMessages())
}

// Close waits for a running playback, silences and resets the port and
// closes it
func (p *Player) Close() {
	p.lock <- struct{}{}
	defer p.release()

	port, _ := p.current()
	if port == nil {
		return
	}
	p.sendAll(port, PanicMessages())
	p.sendAll(port, ResetMessages())
	p.sendAll(port, SustainOffMessages())
	if err := port.Close(); err != nil {
		p.log.Errorf("Cannot close output port: %v", err)
	}

	p.mu.Lock()
	p.port = nil
	p.name = ""
	p.mu.Unlock()
}
