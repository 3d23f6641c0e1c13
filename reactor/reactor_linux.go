//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based registry implementation and factory.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-chat/api"
	"golang.org/x/sys/unix"
)

// epollRegistry is an epoll-based readiness registry.
type epollRegistry struct {
	epfd int
	mode api.TriggerMode
	set  fdSet
	raw  []unix.EpollEvent
}

// New constructs the platform registry for Linux.
func New(mode api.TriggerMode, capacity int) (api.Registry, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	return &epollRegistry{
		epfd: epfd,
		mode: mode,
		set:  newFDSet(capacity),
	}, nil
}

func (r *epollRegistry) mask(interest api.Interest) uint32 {
	var ev uint32 = unix.EPOLLRDHUP
	if interest&api.InterestRead != 0 {
		ev |= unix.EPOLLIN
	}
	if interest&api.InterestWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	if r.mode == api.EdgeTriggered {
		ev |= unix.EPOLLET
	}
	return ev
}

// Register adds fd to the epoll interest list in non-blocking mode.
func (r *epollRegistry) Register(fd int, interest api.Interest) error {
	if err := r.set.admit(fd); err != nil {
		return err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblock fd %d: %w", fd, err)
	}
	ev := unix.EpollEvent{Events: r.mask(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		if errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.ENOMEM) {
			return fmt.Errorf("%w: epoll ctl add fd %d: %v", api.ErrRegistryFull, fd, err)
		}
		return fmt.Errorf("epoll ctl add fd %d: %w", fd, err)
	}
	r.set.put(fd, interest)
	return nil
}

// Modify rewrites the interest mask of a registered fd.
func (r *epollRegistry) Modify(fd int, interest api.Interest) error {
	if _, err := r.set.lookup(fd); err != nil {
		return err
	}
	ev := unix.EpollEvent{Events: r.mask(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod fd %d: %w", fd, err)
	}
	r.set.put(fd, interest)
	return nil
}

// Deregister removes fd from epoll. The bookkeeping entry is dropped even
// when the kernel already forgot the descriptor.
func (r *epollRegistry) Deregister(fd int) error {
	if _, err := r.set.lookup(fd); err != nil {
		return err
	}
	r.set.drop(fd)
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("epoll ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Poll waits for readiness and translates epoll events.
func (r *epollRegistry) Poll(timeout time.Duration, events []api.Event) (int, error) {
	if len(events) == 0 {
		return 0, fmt.Errorf("%w: empty event buffer", api.ErrInvalidArgument)
	}
	if cap(r.raw) < len(events) {
		r.raw = make([]unix.EpollEvent, len(events))
	}
	raw := r.raw[:len(events)]

	n, err := unix.EpollWait(r.epfd, raw, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil // interrupted by signal, normal
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := raw[i]
		var flags api.EventFlag
		if ev.Events&unix.EPOLLIN != 0 {
			flags |= api.EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			flags |= api.EventWrite
		}
		if ev.Events&unix.EPOLLERR != 0 {
			flags |= api.EventError
		}
		if ev.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			flags |= api.EventHangup
		}
		events[i] = api.Event{Fd: int(ev.Fd), Flags: flags}
	}
	return n, nil
}

func (r *epollRegistry) Registered() []int { return r.set.list() }

func (r *epollRegistry) Len() int { return r.set.len() }

func (r *epollRegistry) Mode() api.TriggerMode { return r.mode }

// Close closes the epoll instance.
func (r *epollRegistry) Close() error {
	return unix.Close(r.epfd)
}
