//go:build linux || darwin || freebsd
// +build linux darwin freebsd

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - accepted stream socket.

package tcp

import (
	"errors"
	"fmt"
	"io"

	"github.com/momentics/hioload-chat/api"
	"golang.org/x/sys/unix"
)

// Conn is an accepted TCP connection in non-blocking mode.
type Conn struct {
	fd     int
	peer   string
	closed bool
}

var _ api.Conn = (*Conn)(nil)

// newConn finishes construction of an accepted descriptor. The descriptor is
// closed if it cannot be made non-blocking.
func newConn(fd int, sa unix.Sockaddr) (*Conn, error) {
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("set nonblock fd %d: %w", fd, err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return &Conn{fd: fd, peer: sockaddrString(sa)}, nil
}

// Fd returns the socket descriptor.
func (c *Conn) Fd() int { return c.fd }

// RemoteAddr returns the peer host:port.
func (c *Conn) RemoteAddr() string { return c.peer }

// Read performs a single read(2). Zero bytes means orderly shutdown (io.EOF).
func (c *Conn) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == nil && n == 0 && len(p) > 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Write performs write(2) until p is consumed or the socket buffer is full.
func (c *Conn) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.Write(c.fd, p[written:])
		if n > 0 {
			written += n
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return written, api.ErrWouldBlock
		default:
			return written, err
		}
	}
	return written, nil
}

// Close closes the descriptor once.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return unix.Close(c.fd)
}
