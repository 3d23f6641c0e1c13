// Package api
// Author: momentics <momentics@gmail.com>
//
// Socket abstractions admitted to the event loop. Every implementation is
// non-blocking by construction.

package api

// Conn is a connected, non-blocking stream socket.
//
// Read returns ErrWouldBlock when no data is queued and io.EOF on orderly
// peer shutdown. Write may write a prefix of p and return ErrWouldBlock.
type Conn interface {
	Fd() int
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	RemoteAddr() string
	Close() error
}

// Listener is a non-blocking listening socket.
//
// Accept returns ErrWouldBlock when the backlog is empty.
type Listener interface {
	Fd() int
	Accept() (Conn, error)
	Addr() string
	Close() error
}
