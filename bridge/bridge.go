// Package bridge implements the reference Transport adapter contract of
// spec.md §6: turning a raw io.ReadWriteCloser into the tube.Segment
// drain/fount pair a byte-stream collaborator must expose, and a Copy
// helper that pumps a pipeline's tube.Flow through one until the
// connection closes. Grounded on the teacher's CopyThrough (goroutine
// pairing of reader/writer pumps, sync.WaitGroup, errors.Join on the way
// out), adapted from a BGP pipe.Pipe/pipe.Line to a tube.Flow.
package bridge

import (
	"errors"
	"io"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tubekit/tubes/pause"
	"github.com/tubekit/tubes/tube"
)

const readBufSize = 4096

// halfCloser is implemented by connections that can close just their write
// side (e.g. *net.TCPConn's CloseWrite), letting the peer still finish
// sending.
type halfCloser interface {
	CloseWrite() error
}

// Fount reads conn in a background goroutine and emits each chunk read as a
// tube.Segment, translating PauseFlow/resume into blocking that goroutine
// and back-buffering any segments read before a drain is attached.
type Fount struct {
	tube.FountPeer
	conn   io.Reader
	logger *zerolog.Logger

	mu          sync.Mutex
	cond        *sync.Cond
	pausedCount int
	stopped     bool
	backlog     []tube.Segment
	done        chan struct{}
	readErr     error
}

// NewFount starts reading conn immediately; reads back-buffer until a drain
// attaches via FlowTo.
func NewFount(conn io.Reader, logger *zerolog.Logger) *Fount {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	f := &Fount{conn: conn, logger: logger, done: make(chan struct{})}
	f.cond = sync.NewCond(&f.mu)
	go f.readLoop()
	return f
}

// Done returns a channel closed once the read side has stopped (EOF, a
// read error, or StopFlow).
func (f *Fount) Done() <-chan struct{} { return f.done }

// Err returns the error, if any, that ended the read loop. nil on a clean
// io.EOF.
func (f *Fount) Err() error { return f.readErr }

func (f *Fount) OutputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (f *Fount) readLoop() {
	defer close(f.done)
	buf := make([]byte, readBufSize)
	for {
		n, err := f.conn.Read(buf)
		if n > 0 {
			seg := tube.Segment(append([]byte(nil), buf[:n]...))
			f.deliver(seg)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				f.readErr = err
				f.logger.Error().Err(err).Msg("bridge: read error")
			}
			return
		}
	}
}

// deliver blocks while paused, then either hands the segment straight to
// the attached drain or, if none is attached yet, back-buffers it.
func (f *Fount) deliver(seg tube.Segment) {
	f.mu.Lock()
	for f.pausedCount > 0 && !f.stopped {
		f.cond.Wait()
	}
	stopped := f.stopped
	drain := f.Drain()
	if drain == nil {
		f.backlog = append(f.backlog, seg)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	if !stopped {
		drain.Receive(seg)
	}
}

// FlowTo attaches drain and flushes any segments read before attachment.
func (f *Fount) FlowTo(drain tube.Drain) (tube.Fount, error) {
	result, err := tube.BeginFlowingTo(&f.FountPeer, f, drain)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	backlog := f.backlog
	f.backlog = nil
	f.mu.Unlock()
	if drain != nil {
		for _, seg := range backlog {
			drain.Receive(seg)
		}
	}
	return result, nil
}

func (f *Fount) PauseFlow() pause.Token {
	f.mu.Lock()
	f.pausedCount++
	f.mu.Unlock()
	return &fountToken{f: f}
}

type fountToken struct {
	f    *Fount
	done bool
}

func (t *fountToken) Unpause() error {
	if t.done {
		return pause.ErrAlreadyUnpaused
	}
	t.done = true
	t.f.mu.Lock()
	t.f.pausedCount--
	t.f.cond.Broadcast()
	t.f.mu.Unlock()
	return nil
}

// StopFlow wakes the read goroutine (if blocked on a pause) and marks the
// fount stopped; it does not itself close conn, since conn is shared with
// the paired Drain and closing it is Drain.FlowStopped's job.
func (f *Fount) StopFlow() {
	f.mu.Lock()
	f.stopped = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

// Drain writes every received tube.Segment to conn, translating
// FlowStopped into a half-close (or a full close if conn doesn't support
// one).
type Drain struct {
	tube.DrainPeer
	conn   io.WriteCloser
	logger *zerolog.Logger
}

// NewDrain wraps conn as a tube.Segment drain.
func NewDrain(conn io.WriteCloser, logger *zerolog.Logger) *Drain {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Drain{conn: conn, logger: logger}
}

func (d *Drain) InputType() (reflect.Type, bool) {
	return reflect.TypeOf(tube.Segment{}), true
}

func (d *Drain) FlowingFrom(fount tube.Fount) (tube.Fount, error) {
	if err := tube.BeginFlowingFrom(&d.DrainPeer, d, fount); err != nil {
		return nil, err
	}
	return nil, nil
}

func (d *Drain) Receive(item any) error {
	seg, ok := item.(tube.Segment)
	if !ok {
		return nil
	}
	_, err := d.conn.Write(seg)
	if err != nil {
		d.logger.Error().Err(err).Msg("bridge: write error")
	}
	return err
}

func (d *Drain) FlowStopped(reason error) error {
	if hc, ok := d.conn.(halfCloser); ok {
		return hc.CloseWrite()
	}
	return d.conn.Close()
}

// Copy pumps flow through conn until the connection's read side ends:
// flow.Fount's output is written to conn (flow.Fount.FlowTo(bridgeDrain)),
// and bytes read from conn are delivered into flow.Drain
// (bridgeFount.FlowTo(flow.Drain)). It blocks until the read side
// terminates, then closes conn and returns any error encountered.
func Copy(flow tube.Flow, conn io.ReadWriteCloser, logger *zerolog.Logger) error {
	out := NewDrain(conn, logger)
	in := NewFount(conn, logger)

	if _, err := flow.Fount.FlowTo(out); err != nil {
		return err
	}
	if _, err := in.FlowTo(flow.Drain); err != nil {
		return err
	}

	<-in.Done()
	closeErr := conn.Close()
	return errors.Join(in.Err(), closeErr)
}
