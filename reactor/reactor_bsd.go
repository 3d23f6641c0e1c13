//go:build darwin || freebsd
// +build darwin freebsd

// File: reactor/reactor_bsd.go
// Author: momentics <momentics@gmail.com>
//
// kqueue(2)-based registry for Darwin and FreeBSD. Edge-triggered mode maps
// onto EV_CLEAR.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"github.com/momentics/hioload-chat/api"
	"golang.org/x/sys/unix"
)

type kqueueRegistry struct {
	kq   int
	mode api.TriggerMode
	set  fdSet
	raw  []unix.Kevent_t
}

// New constructs the platform registry for BSD-family systems.
func New(mode api.TriggerMode, capacity int) (api.Registry, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("kqueue create: %w", err)
	}
	unix.CloseOnExec(kq)
	return &kqueueRegistry{
		kq:   kq,
		mode: mode,
		set:  newFDSet(capacity),
	}, nil
}

func (r *kqueueRegistry) changes(fd int, interest api.Interest) []unix.Kevent_t {
	clr := 0
	if r.mode == api.EdgeTriggered {
		clr = unix.EV_CLEAR
	}
	readFlags := unix.EV_ADD | unix.EV_DISABLE | clr
	if interest&api.InterestRead != 0 {
		readFlags = unix.EV_ADD | unix.EV_ENABLE | clr
	}
	writeFlags := unix.EV_ADD | unix.EV_DISABLE | clr
	if interest&api.InterestWrite != 0 {
		writeFlags = unix.EV_ADD | unix.EV_ENABLE | clr
	}
	ch := make([]unix.Kevent_t, 2)
	unix.SetKevent(&ch[0], fd, unix.EVFILT_READ, readFlags)
	unix.SetKevent(&ch[1], fd, unix.EVFILT_WRITE, writeFlags)
	return ch
}

func (r *kqueueRegistry) apply(ch []unix.Kevent_t) error {
	for {
		_, err := unix.Kevent(r.kq, ch, nil, nil)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

// Register adds fd with both filters; the write filter stays disabled
// unless write interest is requested.
func (r *kqueueRegistry) Register(fd int, interest api.Interest) error {
	if err := r.set.admit(fd); err != nil {
		return err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblock fd %d: %w", fd, err)
	}
	if err := r.apply(r.changes(fd, interest)); err != nil {
		if errors.Is(err, unix.ENOMEM) {
			return fmt.Errorf("%w: kevent add fd %d: %v", api.ErrRegistryFull, fd, err)
		}
		return fmt.Errorf("kevent add fd %d: %w", fd, err)
	}
	r.set.put(fd, interest)
	return nil
}

func (r *kqueueRegistry) Modify(fd int, interest api.Interest) error {
	if _, err := r.set.lookup(fd); err != nil {
		return err
	}
	if err := r.apply(r.changes(fd, interest)); err != nil {
		return fmt.Errorf("kevent mod fd %d: %w", fd, err)
	}
	r.set.put(fd, interest)
	return nil
}

func (r *kqueueRegistry) Deregister(fd int) error {
	if _, err := r.set.lookup(fd); err != nil {
		return err
	}
	r.set.drop(fd)
	ch := make([]unix.Kevent_t, 2)
	unix.SetKevent(&ch[0], fd, unix.EVFILT_READ, unix.EV_DELETE)
	unix.SetKevent(&ch[1], fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	if err := r.apply(ch); err != nil && err != unix.ENOENT {
		return fmt.Errorf("kevent del fd %d: %w", fd, err)
	}
	return nil
}

// Poll waits for kevents. Read and write readiness of one fd arrive as two
// separate events.
func (r *kqueueRegistry) Poll(timeout time.Duration, events []api.Event) (int, error) {
	if len(events) == 0 {
		return 0, fmt.Errorf("%w: empty event buffer", api.ErrInvalidArgument)
	}
	if cap(r.raw) < len(events) {
		r.raw = make([]unix.Kevent_t, len(events))
	}
	raw := r.raw[:len(events)]

	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout))
		ts = &t
	}
	n, err := unix.Kevent(r.kq, nil, raw, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("kevent wait: %w", err)
	}
	for i := 0; i < n; i++ {
		ev := raw[i]
		var flags api.EventFlag
		switch ev.Filter {
		case unix.EVFILT_READ:
			flags |= api.EventRead
		case unix.EVFILT_WRITE:
			flags |= api.EventWrite
		}
		if ev.Flags&unix.EV_EOF != 0 {
			flags |= api.EventHangup
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			flags |= api.EventError
		}
		events[i] = api.Event{Fd: int(ev.Ident), Flags: flags}
	}
	return n, nil
}

func (r *kqueueRegistry) Registered() []int { return r.set.list() }

func (r *kqueueRegistry) Len() int { return r.set.len() }

func (r *kqueueRegistry) Mode() api.TriggerMode { return r.mode }

func (r *kqueueRegistry) Close() error {
	return unix.Close(r.kq)
}
