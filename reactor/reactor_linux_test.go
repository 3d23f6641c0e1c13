//go:build linux

package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-chat/api"
	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func pollOnce(t *testing.T, r api.Registry) []api.Event {
	t.Helper()
	evs := make([]api.Event, 8)
	n, err := r.Poll(20*time.Millisecond, evs)
	if err != nil {
		t.Fatal(err)
	}
	return evs[:n]
}

func TestEpoll_TriggerModes(t *testing.T) {
	tests := []struct {
		mode       api.TriggerMode
		repeatWant int
	}{
		{api.EdgeTriggered, 0},
		{api.LevelTriggered, 1},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			r, err := New(tt.mode, 8)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			local, peer := socketPair(t)
			if err := r.Register(local, api.InterestRead); err != nil {
				t.Fatal(err)
			}
			if _, err := unix.Write(peer, []byte("ping\n")); err != nil {
				t.Fatal(err)
			}

			evs := pollOnce(t, r)
			if len(evs) != 1 || evs[0].Fd != local || !evs[0].Readable() {
				t.Fatalf("first poll = %+v", evs)
			}
			// Input is left unread: level mode reports it again, edge mode
			// stays silent until new data arrives.
			if got := len(pollOnce(t, r)); got != tt.repeatWant {
				t.Fatalf("second poll reported %d events, want %d", got, tt.repeatWant)
			}
		})
	}
}

func TestEpoll_WriteInterestAndHangup(t *testing.T) {
	r, err := New(api.LevelTriggered, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	local, peer := socketPair(t)
	if err := r.Register(local, api.InterestRead); err != nil {
		t.Fatal(err)
	}
	if evs := pollOnce(t, r); len(evs) != 0 {
		t.Fatalf("idle socket reported %+v", evs)
	}
	if err := r.Modify(local, api.InterestRead|api.InterestWrite); err != nil {
		t.Fatal(err)
	}
	if evs := pollOnce(t, r); len(evs) != 1 || !evs[0].Writable() {
		t.Fatalf("write interest poll = %+v", evs)
	}
	if err := r.Modify(local, api.InterestRead); err != nil {
		t.Fatal(err)
	}
	unix.Close(peer)
	if evs := pollOnce(t, r); len(evs) != 1 || evs[0].Flags&api.EventHangup == 0 {
		t.Fatalf("hangup poll = %+v", evs)
	}
}

func TestEpoll_Bookkeeping(t *testing.T) {
	r, err := New(api.EdgeTriggered, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	a, b := socketPair(t)
	c, _ := socketPair(t)

	for _, fd := range []int{a, b} {
		if err := r.Register(fd, api.InterestRead); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Register(c, api.InterestRead); !errors.Is(err, api.ErrRegistryFull) {
		t.Fatalf("register past capacity: %v", err)
	}
	if err := r.Register(a, api.InterestRead); !errors.Is(err, api.ErrAlreadyRegistered) {
		t.Fatalf("duplicate register: %v", err)
	}
	if r.Len() != 2 || r.Mode() != api.EdgeTriggered {
		t.Fatalf("len=%d mode=%v", r.Len(), r.Mode())
	}
	if err := r.Deregister(a); err != nil {
		t.Fatal(err)
	}
	if err := r.Deregister(a); !errors.Is(err, api.ErrNotRegistered) {
		t.Fatalf("double deregister: %v", err)
	}
	if err := r.Modify(a, api.InterestRead); !errors.Is(err, api.ErrNotRegistered) {
		t.Fatalf("modify unregistered: %v", err)
	}
	if got := r.Registered(); len(got) != 1 || got[0] != b {
		t.Fatalf("registered = %v", got)
	}
}

func nonblocking(t *testing.T, fd int) bool {
	t.Helper()
	fl, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		t.Fatal(err)
	}
	return fl&unix.O_NONBLOCK != 0
}

func TestEpoll_RegisterSetsNonblocking(t *testing.T) {
	for _, mode := range []api.TriggerMode{api.EdgeTriggered, api.LevelTriggered} {
		t.Run(mode.String(), func(t *testing.T) {
			r, err := New(mode, 8)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			local, _ := socketPair(t)
			if nonblocking(t, local) {
				t.Fatal("socketpair already non-blocking")
			}
			if err := r.Register(local, api.InterestRead); err != nil {
				t.Fatal(err)
			}
			if !nonblocking(t, local) {
				t.Fatal("registered fd is still blocking")
			}
			buf := make([]byte, 8)
			if _, err := unix.Read(local, buf); !errors.Is(err, unix.EAGAIN) {
				t.Fatalf("read on empty registered socket: %v", err)
			}
		})
	}
}
