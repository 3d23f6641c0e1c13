// File: server/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-threaded reactor: one goroutine polls the registry and processes
// every event of a batch before polling again. The registry, listener,
// connection table and all sessions are owned by that goroutine.

package server

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/internal/session"
)

// Loop is the chat event loop.
type Loop struct {
	cfg      *Config
	log      *log.Logger
	reg      api.Registry
	ln       api.Listener
	table    *session.Table
	driver   *session.Driver
	dispatch *Dispatcher
	metrics  *control.MetricsRegistry
	probes   *control.Probes

	events    []api.Event
	retired   map[int]struct{} // fds torn down during the current batch
	nextID    uint64
	stopping  bool
	lastStats time.Time
}

// NewLoop wires a loop around reg and ln. The loop takes ownership of both
// and closes them when Run returns.
func NewLoop(cfg *Config, reg api.Registry, ln api.Listener, opts ...Option) *Loop {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	batch := cfg.PollBatch
	if batch <= 0 {
		batch = 128
	}
	l := &Loop{
		cfg:   cfg,
		log:   log.New(os.Stderr, "", log.LstdFlags),
		reg:   reg,
		ln:    ln,
		table: session.NewTable(),
		driver: session.NewDriver(session.DriverConfig{
			Mode:       reg.Mode(),
			MaxMessage: cfg.MaxMessage,
			ReadChunk:  cfg.ReadChunk,
			MaxPending: cfg.MaxPending,
		}),
		metrics:   control.NewMetricsRegistry(),
		events:    make([]api.Event, batch),
		retired:   make(map[int]struct{}),
		lastStats: time.Now(),
	}
	l.dispatch = NewDispatcher(cfg.Messages, cfg.AnnouncePresence, l.table, l)
	for _, o := range opts {
		o(l)
	}
	return l
}

// Metrics exposes the loop counters.
func (l *Loop) Metrics() *control.MetricsRegistry { return l.metrics }

// Sessions is the number of live sessions.
func (l *Loop) Sessions() int { return l.table.Len() }

// Step performs one poll call and processes all of its events in order.
// Only registry failures are returned; per-connection failures become
// teardowns.
func (l *Loop) Step() error {
	n, err := l.reg.Poll(l.cfg.PollTimeout, l.events)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	l.metrics.Add(control.MetricPolls, 1)
	l.metrics.Add(control.MetricEvents, int64(n))

	clear(l.retired)
	lfd := l.ln.Fd()
	for _, ev := range l.events[:n] {
		if ev.Fd == lfd {
			l.accept(ev)
			continue
		}
		if _, gone := l.retired[ev.Fd]; gone {
			continue
		}
		s, ok := l.table.Get(ev.Fd)
		if !ok {
			continue
		}
		l.handle(s, ev)
	}
	l.maybeStats()
	return nil
}

// Consistent verifies that the table keys equal the registered client
// handles.
func (l *Loop) Consistent() error {
	lfd := l.ln.Fd()
	registered := make(map[int]bool)
	for _, fd := range l.reg.Registered() {
		if fd != lfd {
			registered[fd] = true
		}
	}
	handles := l.table.Handles()
	if len(handles) != len(registered) {
		return fmt.Errorf("table has %d handles, registry %d", len(handles), len(registered))
	}
	for _, fd := range handles {
		if !registered[fd] {
			return fmt.Errorf("fd %d in table but not registered", fd)
		}
	}
	return nil
}

// maxAcceptFailures bounds the per-connection accept failures tolerated
// within one edge-triggered drain.
const maxAcceptFailures = 64

// accept takes connections off the backlog: until would-block in ET mode,
// one per notification in LT mode. A failure that belongs to a single
// connection does not end an ET drain; a listener-level failure does.
func (l *Loop) accept(ev api.Event) {
	if ev.Flags&api.EventError != 0 {
		l.log.Printf("[chatroom] listener reported error condition")
	}
	failures := 0
	for {
		conn, err := l.ln.Accept()
		switch {
		case err == nil:
			l.admit(conn)
		case errors.Is(err, api.ErrWouldBlock):
			return
		default:
			l.metrics.Add(control.MetricAcceptFailures, 1)
			l.log.Printf("[chatroom] %s: %v", api.ErrCodeAccept, err)
			failures++
			if !connectionScoped(err) || failures >= maxAcceptFailures {
				return
			}
		}
		if l.reg.Mode() == api.LevelTriggered {
			return
		}
	}
}

// connectionScoped reports whether an accept error concerns only the
// connection being accepted.
func connectionScoped(err error) bool {
	return errors.Is(err, api.ErrAcceptFailure) && !errors.Is(err, api.ErrListenerExhausted)
}

// admit moves an accepted connection to Active: registered, tabled, welcomed.
func (l *Loop) admit(conn api.Conn) {
	l.nextID++
	s := session.New(l.nextID, conn)

	if err := l.reg.Register(s.Fd(), api.InterestRead); err != nil {
		l.metrics.Add(control.MetricRegFailures, 1)
		l.log.Printf("[chatroom] %s for %v: %v", api.ErrCodeRegistration, s, err)
		_ = conn.Close()
		return
	}
	if err := l.table.Add(s); err != nil {
		_ = l.reg.Deregister(s.Fd())
		_ = conn.Close()
		l.log.Printf("[chatroom] %s for %v: %v", api.ErrCodeRegistration, s, err)
		return
	}
	l.metrics.Add(control.MetricAccepted, 1)
	l.metrics.Set(control.MetricActive, int64(l.table.Len()))
	l.log.Printf("[chatroom] %v connected, %d online", s, l.table.Len())

	if !l.dispatch.Welcome(s) {
		return
	}
	l.dispatch.Joined(s)
}

func (l *Loop) handle(s *session.Session, ev api.Event) {
	if ev.Failed() {
		l.drop(s, api.Wrap(api.ErrCodeIO, "socket error condition", api.ErrIO))
		return
	}
	if ev.Writable() && !l.flush(s) {
		return
	}
	if ev.Readable() {
		l.read(s)
	}
}

func (l *Loop) read(s *session.Session) {
	msgs, err := l.driver.OnReadable(s)
	for _, m := range msgs {
		if s.State != session.Active {
			return
		}
		l.metrics.Add(control.MetricMessagesIn, 1)
		l.metrics.Add(control.MetricBytesIn, int64(len(m)))
		l.dispatch.Dispatch(s, m)
	}
	if err != nil && s.State == session.Active {
		l.drop(s, err)
	}
}

// flush drains the outbound queue on a writable notification and disarms
// write interest once empty.
func (l *Loop) flush(s *session.Session) bool {
	drained, err := l.driver.Flush(s)
	if err != nil {
		l.drop(s, err)
		return false
	}
	if drained && s.WriteArmed() {
		if err := l.reg.Modify(s.Fd(), api.InterestRead); err != nil {
			l.drop(s, err)
			return false
		}
		s.SetWriteArmed(false)
	}
	return true
}

// deliver writes line to s without blocking, arming write interest when
// part of it had to be queued.
func (l *Loop) deliver(s *session.Session, line string) bool {
	if s.State != session.Active {
		return false
	}
	if err := l.driver.Send(s, []byte(line)); err != nil {
		if errors.Is(err, api.ErrQueueOverflow) {
			l.metrics.Add(control.MetricQueueOverflows, 1)
		}
		l.drop(s, err)
		return false
	}
	l.metrics.Add(control.MetricMessagesOut, 1)
	l.metrics.Add(control.MetricBytesOut, int64(len(line)))
	if s.Queued() && !s.WriteArmed() {
		if err := l.reg.Modify(s.Fd(), api.InterestRead|api.InterestWrite); err != nil {
			l.drop(s, err)
			return false
		}
		s.SetWriteArmed(true)
	}
	return true
}

// drop tears s down: Closing, deregistered, removed from the table, socket
// closed, Closed. Deregistration happens before removal so the registry
// never watches a handle the table does not know.
func (l *Loop) drop(s *session.Session, cause error) {
	if s.State == session.Closed {
		return
	}
	before := l.table.Len()
	s.State = session.Closing
	fd := s.Fd()

	if err := l.reg.Deregister(fd); err != nil {
		l.log.Printf("[chatroom] deregister %v: %v", s, err)
	}
	l.table.Remove(fd)
	if err := s.Conn.Close(); err != nil {
		l.log.Printf("[chatroom] close %v: %v", s, err)
	}
	l.driver.Release(s)
	s.State = session.Closed
	l.retired[fd] = struct{}{}

	l.metrics.Add(control.MetricClosed, 1)
	l.metrics.Set(control.MetricActive, int64(l.table.Len()))
	if cause == nil || errors.Is(cause, api.ErrPeerClosed) || errors.Is(cause, api.ErrExitRequested) || errors.Is(cause, api.ErrShutdown) {
		l.log.Printf("[chatroom] %v left (%s) after %s, %d online",
			s, api.Classify(cause), time.Since(s.Created).Round(time.Millisecond), l.table.Len())
	} else {
		l.log.Printf("[chatroom] %v dropped (%s) after %s: %v",
			s, api.Classify(cause), time.Since(s.Created).Round(time.Millisecond), cause)
	}

	if !l.stopping {
		l.dispatch.Departed(s, before)
	}
}

func (l *Loop) maybeStats() {
	if l.cfg.StatsInterval <= 0 || time.Since(l.lastStats) < l.cfg.StatsInterval {
		return
	}
	l.lastStats = time.Now()
	line := l.metrics.String()
	if l.probes != nil {
		line += " " + l.probes.String()
	}
	l.log.Printf("[chatroom] stats: %s", line)
}
