//go:build linux || darwin || freebsd
// +build linux darwin freebsd

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - non-blocking listening socket built directly on x/sys/unix.

package tcp

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/momentics/hioload-chat/api"
	"golang.org/x/sys/unix"
)

// DefaultBacklog is the listen(2) queue length.
const DefaultBacklog = 1024

// Listener is a non-blocking TCP listening socket.
type Listener struct {
	fd   int
	addr string
}

var _ api.Listener = (*Listener)(nil)

// Listen binds address (host:port) and starts listening. Port 0 picks an
// ephemeral port; Addr reports the bound address.
func Listen(address string, backlog int) (*Listener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("tcp resolve %q: %w", address, err)
	}
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	family, sa := toSockaddr(tcpAddr)

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	unix.CloseOnExec(fd)
	if err := setup(fd, sa, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	return &Listener{fd: fd, addr: sockaddrString(bound)}, nil
}

func setup(fd int, sa unix.Sockaddr, backlog int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblock: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		return fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Fd returns the listening descriptor.
func (l *Listener) Fd() int { return l.fd }

// Addr returns the bound host:port.
func (l *Listener) Addr() string { return l.addr }

// Accept takes one pending connection off the backlog. It returns
// api.ErrWouldBlock when the backlog is empty. Failures are wrapped in
// api.ErrAcceptFailure; descriptor or buffer exhaustion additionally wraps
// api.ErrListenerExhausted since retrying right away cannot succeed.
func (l *Listener) Accept() (api.Conn, error) {
	for {
		nfd, sa, err := unix.Accept(l.fd)
		if err == nil {
			c, cerr := newConn(nfd, sa)
			if cerr != nil {
				return nil, fmt.Errorf("%w: %v", api.ErrAcceptFailure, cerr)
			}
			return c, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return nil, api.ErrWouldBlock
		case errors.Is(err, unix.ECONNABORTED):
			// peer reset while queued; try the next one
			continue
		case errors.Is(err, unix.EMFILE), errors.Is(err, unix.ENFILE),
			errors.Is(err, unix.ENOBUFS), errors.Is(err, unix.ENOMEM):
			return nil, fmt.Errorf("%w: %w: %v", api.ErrAcceptFailure, api.ErrListenerExhausted, err)
		default:
			return nil, fmt.Errorf("%w: %v", api.ErrAcceptFailure, err)
		}
	}
}

// Close closes the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.fd)
}

func toSockaddr(a *net.TCPAddr) (int, unix.Sockaddr) {
	if len(a.IP) == 0 {
		return unix.AF_INET, &unix.SockaddrInet4{Port: a.Port}
	}
	if ip4 := a.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa
	}
	sa := &unix.SockaddrInet6{Port: a.Port}
	copy(sa.Addr[:], a.IP.To16())
	return unix.AF_INET6, sa
}

func sockaddrString(sa unix.Sockaddr) string {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(v.Addr[:]).String(), strconv.Itoa(v.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(v.Addr[:]).String(), strconv.Itoa(v.Port))
	default:
		return "?"
	}
}
