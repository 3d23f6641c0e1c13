// File: internal/session/driver.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Session I/O driver: reads ready sockets according to the trigger mode's
// contract, frames newline-delimited messages and writes through the bounded
// outbound queue.

package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/momentics/hioload-chat/api"
)

const (
	// DefaultMaxMessage is the longest accepted line, newline excluded.
	DefaultMaxMessage = 0xFFFF
	// DefaultReadChunk bounds a single read(2).
	DefaultReadChunk = 0xFFFF
	// DefaultMaxPending bounds queued outbound bytes per session.
	DefaultMaxPending = 16 * 0xFFFF
)

// Driver turns readiness notifications into reads and writes.
type Driver struct {
	mode       api.TriggerMode
	maxMessage int
	maxPending int
	scratch    []byte
}

// DriverConfig carries the driver limits; zero values pick defaults.
type DriverConfig struct {
	Mode       api.TriggerMode
	MaxMessage int
	ReadChunk  int
	MaxPending int
}

// NewDriver constructs a driver with a reusable read buffer.
func NewDriver(cfg DriverConfig) *Driver {
	if cfg.MaxMessage <= 0 {
		cfg.MaxMessage = DefaultMaxMessage
	}
	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = DefaultReadChunk
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	return &Driver{
		mode:       cfg.Mode,
		maxMessage: cfg.MaxMessage,
		maxPending: cfg.MaxPending,
		scratch:    make([]byte, cfg.ReadChunk),
	}
}

// OnReadable consumes readable data from s.
//
// Level-triggered: exactly one bounded read. Edge-triggered: reads until the
// socket reports would-block. Complete messages are returned even when the
// same call ends in api.ErrPeerClosed, api.ErrBufferOverflow or api.ErrIO.
func (d *Driver) OnReadable(s *Session) ([][]byte, error) {
	var msgs [][]byte
	for {
		n, err := s.Conn.Read(d.scratch)
		if n > 0 {
			s.inbound = append(s.inbound, d.scratch[:n]...)
			var ferr error
			if msgs, ferr = d.frame(s, msgs); ferr != nil {
				return msgs, ferr
			}
		}
		switch {
		case err == nil && n == 0:
			return msgs, nil
		case errors.Is(err, api.ErrWouldBlock):
			return msgs, nil
		case errors.Is(err, io.EOF):
			return msgs, api.ErrPeerClosed
		case err != nil:
			return msgs, fmt.Errorf("%w: read fd %d: %v", api.ErrIO, s.Fd(), err)
		}
		if d.mode == api.LevelTriggered {
			return msgs, nil
		}
	}
}

// frame moves every complete line out of the inbound buffer. Empty lines are
// dropped and a trailing '\r' is stripped.
func (d *Driver) frame(s *Session, msgs [][]byte) ([][]byte, error) {
	rest := s.inbound
	for {
		i := bytes.IndexByte(rest, '\n')
		if i < 0 {
			break
		}
		line := bytes.TrimSuffix(rest[:i], []byte{'\r'})
		rest = rest[i+1:]
		if len(line) > d.maxMessage {
			return msgs, fmt.Errorf("%w: %d > %d bytes", api.ErrBufferOverflow, len(line), d.maxMessage)
		}
		if len(line) == 0 {
			continue
		}
		msgs = append(msgs, append([]byte(nil), line...))
	}

	limit := d.maxMessage
	if len(rest) > 0 && rest[len(rest)-1] == '\r' {
		limit++
	}
	if len(rest) > limit {
		return msgs, fmt.Errorf("%w: %d bytes without newline", api.ErrBufferOverflow, len(rest))
	}
	n := copy(s.inbound, rest)
	s.inbound = s.inbound[:n]
	return msgs, nil
}

// Send writes p to s without blocking. Whatever the socket does not take is
// queued; api.ErrQueueOverflow is returned when the queue would exceed its
// bound. The caller arms write interest while s.Queued() is true.
func (d *Driver) Send(s *Session, p []byte) error {
	if s.State == Closed {
		return api.ErrPeerClosed
	}
	if len(p) == 0 {
		return nil
	}
	if !s.Queued() {
		n, err := s.Conn.Write(p)
		if err != nil && !errors.Is(err, api.ErrWouldBlock) {
			return fmt.Errorf("%w: write fd %d: %v", api.ErrIO, s.Fd(), err)
		}
		p = p[n:]
		if len(p) == 0 {
			return nil
		}
	}
	if s.pending+len(p) > d.maxPending {
		return fmt.Errorf("%w: %d queued + %d > %d bytes", api.ErrQueueOverflow, s.pending, len(p), d.maxPending)
	}
	s.enqueue(p)
	return nil
}

// Flush writes queued chunks until the queue empties or the socket would
// block. drained is true when nothing remains queued.
func (d *Driver) Flush(s *Session) (drained bool, err error) {
	for s.outbound.Length() > 0 {
		c := s.outbound.Peek().(*chunk)
		n, werr := s.Conn.Write(c.data[c.off:])
		c.off += n
		s.pending -= n
		if c.off == len(c.data) {
			s.outbound.Remove()
		}
		if werr != nil {
			if errors.Is(werr, api.ErrWouldBlock) {
				return false, nil
			}
			return false, fmt.Errorf("%w: write fd %d: %v", api.ErrIO, s.Fd(), werr)
		}
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Release drops buffered state after the socket has been closed.
func (d *Driver) Release(s *Session) {
	s.inbound = nil
	s.discard()
}
