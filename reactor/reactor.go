// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral bookkeeping shared by every registry backend.

package reactor

import (
	"fmt"
	"sort"
	"time"

	"github.com/momentics/hioload-chat/api"
)

// DefaultCapacity is the descriptor ceiling used when none is configured.
const DefaultCapacity = 5000

// fdSet mirrors the kernel interest set so the registry can report what it
// watches and refuse registrations past its ceiling.
type fdSet struct {
	capacity int
	fds      map[int]api.Interest
}

func newFDSet(capacity int) fdSet {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return fdSet{capacity: capacity, fds: make(map[int]api.Interest)}
}

// admit checks that fd may be added.
func (s *fdSet) admit(fd int) error {
	if fd < 0 {
		return fmt.Errorf("%w: fd %d", api.ErrInvalidArgument, fd)
	}
	if _, ok := s.fds[fd]; ok {
		return fmt.Errorf("%w: fd %d", api.ErrAlreadyRegistered, fd)
	}
	if len(s.fds) >= s.capacity {
		return fmt.Errorf("%w: %d/%d handles", api.ErrRegistryFull, len(s.fds), s.capacity)
	}
	return nil
}

func (s *fdSet) lookup(fd int) (api.Interest, error) {
	in, ok := s.fds[fd]
	if !ok {
		return 0, fmt.Errorf("%w: fd %d", api.ErrNotRegistered, fd)
	}
	return in, nil
}

func (s *fdSet) put(fd int, interest api.Interest) { s.fds[fd] = interest }

func (s *fdSet) drop(fd int) { delete(s.fds, fd) }

func (s *fdSet) len() int { return len(s.fds) }

func (s *fdSet) list() []int {
	out := make([]int, 0, len(s.fds))
	for fd := range s.fds {
		out = append(out, fd)
	}
	sort.Ints(out)
	return out
}

// timeoutMillis converts a poll timeout for epoll_wait. Negative blocks;
// sub-millisecond positive waits round up so they never become busy polls.
func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
