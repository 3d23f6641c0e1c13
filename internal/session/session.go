// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client session record: identity, socket, inbound line buffer and the
// bounded outbound queue.

package session

import (
	"fmt"
	"time"

	"github.com/eapache/queue"
	"github.com/momentics/hioload-chat/api"
)

// State is the lifecycle position of a session.
type State int

const (
	Active State = iota
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// chunk is a queued outbound write; off marks how much was already sent.
type chunk struct {
	data []byte
	off  int
}

// Session holds per-connection state for one chat client.
type Session struct {
	ID      uint64
	Conn    api.Conn
	Peer    string
	State   State
	Created time.Time

	inbound    []byte
	outbound   *queue.Queue
	pending    int
	writeArmed bool
}

// New creates an Active session around an accepted connection.
func New(id uint64, conn api.Conn) *Session {
	return &Session{
		ID:       id,
		Conn:     conn,
		Peer:     conn.RemoteAddr(),
		State:    Active,
		Created:  time.Now(),
		outbound: queue.New(),
	}
}

// Fd returns the socket handle keying the session in the Table.
func (s *Session) Fd() int { return s.Conn.Fd() }

// Buffered is the number of bytes of an incomplete inbound line.
func (s *Session) Buffered() int { return len(s.inbound) }

// Pending is the number of outbound bytes waiting for a writable socket.
func (s *Session) Pending() int { return s.pending }

// Queued reports whether outbound data is waiting.
func (s *Session) Queued() bool { return s.outbound.Length() > 0 }

// WriteArmed reports whether write interest is currently registered.
func (s *Session) WriteArmed() bool { return s.writeArmed }

// SetWriteArmed records the registered write interest.
func (s *Session) SetWriteArmed(v bool) { s.writeArmed = v }

func (s *Session) String() string {
	return fmt.Sprintf("client #%d (fd=%d, %s)", s.ID, s.Fd(), s.Peer)
}

func (s *Session) enqueue(p []byte) {
	s.outbound.Add(&chunk{data: append([]byte(nil), p...)})
	s.pending += len(p)
}

// discard drops everything queued, used once the socket is gone.
func (s *Session) discard() {
	for s.outbound.Length() > 0 {
		s.outbound.Remove()
	}
	s.pending = 0
}
