// Package listener implements the terminal drain that turns a fount of
// inbound tube.Flow values into live connections, applying connection-count
// back-pressure.
package listener

import (
	"reflect"

	"github.com/rs/zerolog"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/siphon"
	"github.com/tubekit/tubes/tube"
)

// Connector is called once per accepted Flow; it should set the connection
// up (wire it to a protocol handler, etc.) and return promptly — it must
// not block the cooperative goroutine.
type Connector func(tube.Flow)

// Listener is a drain of tube.Flow. Each received flow invokes Connector
// with a derived Flow whose fount is wrapped with a stop-hook that
// decrements an active-connection counter; when the counter reaches
// MaxConnections, the Listener pauses its upstream fount-of-flows until a
// connection completes.
type Listener struct {
	tube.DrainPeer
	connector      Connector
	maxConnections int
	current        int
	paused         pause.Token
	logger         *zerolog.Logger
}

// Option configures a Listener at construction.
type Option func(*Listener)

// WithLogger attaches a logger that records received items which are not
// tube.Flow values (they are dropped); accepted flows are not logged.
// Default is zerolog.Nop().
func WithLogger(logger *zerolog.Logger) Option {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New builds a Listener that calls connector for each accepted Flow, never
// allowing more than maxConnections concurrently active.
func New(connector Connector, maxConnections int, opts ...Option) *Listener {
	nop := zerolog.Nop()
	l := &Listener{
		connector:      connector,
		maxConnections: maxConnections,
		paused:         pause.NoPause,
		logger:         &nop,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// InputType declares this drain accepts tube.Flow values.
func (l *Listener) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Flow{}), true
}

// FlowingFrom attaches the upstream fount-of-flows. Terminal drain: always
// returns nil.
func (l *Listener) FlowingFrom(fount tube.Fount) (tube.Fount, error) {
	if err := tube.BeginFlowingFrom(&l.DrainPeer, l, fount); err != nil {
		return nil, err
	}
	return nil, nil
}

// Receive accepts one inbound Flow, applying back-pressure once
// maxConnections is reached, and hands a stop-hooked Flow to Connector.
func (l *Listener) Receive(item any) error {
	flow, ok := item.(tube.Flow)
	if !ok {
		l.logger.Error().Msg("listener: received non-Flow item")
		return nil
	}
	l.current++
	if l.current >= l.maxConnections {
		if up := l.Fount(); up != nil {
			l.paused = up.PauseFlow()
		}
	}
	hooked, err := wrapWithStopHook(flow.Fount, l.onConnectionDone)
	if err != nil {
		return err
	}
	l.connector(tube.Flow{Fount: hooked, Drain: flow.Drain})
	return nil
}

func (l *Listener) onConnectionDone() {
	l.current--
	l.paused.Unpause()
	l.paused = pause.NoPause
}

// FlowStopped: no more flows are incoming; nothing to clean up.
func (l *Listener) FlowStopped(reason error) error {
	return nil
}

// onStopTube passes every received item through unchanged and invokes
// callback exactly once, with no further output, when the upstream stops.
type onStopTube struct {
	tube.BaseTube
	callback func()
}

func (t *onStopTube) Received(item any) (tube.Outputs, error) {
	return tube.Of(item), nil
}

func (t *onStopTube) Stopped(reason error) (tube.Outputs, error) {
	if t.callback != nil {
		t.callback()
	}
	return nil, nil
}

// wrapWithStopHook flows fount into a fresh siphon around onStopTube and
// returns the siphon's fount, a pass-through fount that calls callback
// exactly once when fount's flow ends.
func wrapWithStopHook(fount tube.Fount, callback func()) (tube.Fount, error) {
	s := siphon.New(&onStopTube{callback: callback})
	if _, err := fount.FlowTo(s.AsDrain()); err != nil {
		return nil, err
	}
	return s.AsFount(), nil
}
