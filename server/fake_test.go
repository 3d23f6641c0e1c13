package server

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/momentics/hioload-chat/api"
)

// fakeRegistry records registrations and replays scripted poll batches.
type fakeRegistry struct {
	mode     api.TriggerMode
	capacity int
	fds      map[int]api.Interest
	batches  [][]api.Event
	closed   bool
	deregs   []int
}

func newFakeRegistry(mode api.TriggerMode, capacity int) *fakeRegistry {
	return &fakeRegistry{mode: mode, capacity: capacity, fds: make(map[int]api.Interest)}
}

func (r *fakeRegistry) Register(fd int, in api.Interest) error {
	if _, ok := r.fds[fd]; ok {
		return api.ErrAlreadyRegistered
	}
	if len(r.fds) >= r.capacity {
		return fmt.Errorf("%w: fake", api.ErrRegistryFull)
	}
	r.fds[fd] = in
	return nil
}

func (r *fakeRegistry) Modify(fd int, in api.Interest) error {
	if _, ok := r.fds[fd]; !ok {
		return api.ErrNotRegistered
	}
	r.fds[fd] = in
	return nil
}

func (r *fakeRegistry) Deregister(fd int) error {
	if _, ok := r.fds[fd]; !ok {
		return api.ErrNotRegistered
	}
	delete(r.fds, fd)
	r.deregs = append(r.deregs, fd)
	return nil
}

// queue appends one poll batch.
func (r *fakeRegistry) queue(evs ...api.Event) { r.batches = append(r.batches, evs) }

func (r *fakeRegistry) Poll(_ time.Duration, events []api.Event) (int, error) {
	if len(r.batches) == 0 {
		return 0, nil
	}
	b := r.batches[0]
	r.batches = r.batches[1:]
	return copy(events, b), nil
}

func (r *fakeRegistry) Registered() []int {
	out := make([]int, 0, len(r.fds))
	for fd := range r.fds {
		out = append(out, fd)
	}
	sort.Ints(out)
	return out
}

func (r *fakeRegistry) Len() int              { return len(r.fds) }
func (r *fakeRegistry) Mode() api.TriggerMode { return r.mode }
func (r *fakeRegistry) Close() error          { r.closed = true; return nil }

// fakeListener hands out pre-built connections.
type fakeListener struct {
	fd      int
	pending []*fakeConn
	errs    []error // returned, in order, before any pending conn
	closed  bool
}

func (l *fakeListener) Fd() int      { return l.fd }
func (l *fakeListener) Addr() string { return "127.0.0.1:8888" }
func (l *fakeListener) Close() error { l.closed = true; return nil }

func (l *fakeListener) Accept() (api.Conn, error) {
	if len(l.errs) > 0 {
		err := l.errs[0]
		l.errs = l.errs[1:]
		return nil, err
	}
	if len(l.pending) == 0 {
		return nil, api.ErrWouldBlock
	}
	c := l.pending[0]
	l.pending = l.pending[1:]
	return c, nil
}

// fakeConn is a scripted client socket.
type fakeConn struct {
	fd       int
	inbox    [][]byte
	eof      bool
	reads    int
	out      strings.Builder
	writeCap int
	closed   bool
}

func newFakeConn(fd int) *fakeConn { return &fakeConn{fd: fd, writeCap: -1} }

func (c *fakeConn) Fd() int            { return c.fd }
func (c *fakeConn) RemoteAddr() string { return fmt.Sprintf("127.0.0.1:%d", 50000+c.fd) }
func (c *fakeConn) Close() error       { c.closed = true; return nil }

func (c *fakeConn) send(s string) { c.inbox = append(c.inbox, []byte(s)) }

func (c *fakeConn) Read(p []byte) (int, error) {
	c.reads++
	if len(c.inbox) == 0 {
		if c.eof {
			return 0, io.EOF
		}
		return 0, api.ErrWouldBlock
	}
	n := copy(p, c.inbox[0])
	if n == len(c.inbox[0]) {
		c.inbox = c.inbox[1:]
	} else {
		c.inbox[0] = c.inbox[0][n:]
	}
	return n, nil
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, io.ErrClosedPipe
	}
	if c.writeCap < 0 {
		c.out.Write(p)
		return len(p), nil
	}
	n := len(p)
	if n > c.writeCap {
		n = c.writeCap
	}
	c.out.Write(p[:n])
	c.writeCap -= n
	if n < len(p) {
		return n, api.ErrWouldBlock
	}
	return n, nil
}

// lines returns everything the server wrote, split per line.
func (c *fakeConn) lines() []string {
	s := strings.TrimSuffix(c.out.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func readable(fd int) api.Event { return api.Event{Fd: fd, Flags: api.EventRead} }

func writable(fd int) api.Event { return api.Event{Fd: fd, Flags: api.EventWrite} }
