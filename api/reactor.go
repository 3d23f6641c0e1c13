// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract readiness registry used by the chat event loop to
// multiplex client sockets across poll-mode backends (epoll, kqueue).

package api

import (
	"fmt"
	"strings"
	"time"
)

// TriggerMode selects how the registry reports readiness. It is chosen per
// deployment, never per connection.
type TriggerMode int

const (
	// LevelTriggered reports a handle for as long as unread data remains.
	LevelTriggered TriggerMode = iota
	// EdgeTriggered reports a handle once per empty->ready transition;
	// consumers must drain until ErrWouldBlock.
	EdgeTriggered
)

// String returns the short config name of the mode.
func (m TriggerMode) String() string {
	switch m {
	case LevelTriggered:
		return "lt"
	case EdgeTriggered:
		return "et"
	default:
		return fmt.Sprintf("TriggerMode(%d)", int(m))
	}
}

// ParseTriggerMode accepts "lt", "et" and their long forms.
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lt", "level", "level-triggered":
		return LevelTriggered, nil
	case "et", "edge", "edge-triggered":
		return EdgeTriggered, nil
	}
	return 0, fmt.Errorf("%w: trigger mode %q", ErrInvalidArgument, s)
}

// Interest is the set of readiness kinds a handle is registered for.
type Interest uint8

const (
	InterestRead Interest = 1 << iota
	InterestWrite
)

// EventFlag describes what a single readiness notification reported.
type EventFlag uint8

const (
	EventRead EventFlag = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// Event encapsulates one OS-level readiness notification.
type Event struct {
	Fd    int
	Flags EventFlag
}

// Readable reports whether the handle has data (or EOF) to consume.
func (e Event) Readable() bool { return e.Flags&(EventRead|EventHangup) != 0 }

// Writable reports whether the handle accepts writes again.
func (e Event) Writable() bool { return e.Flags&EventWrite != 0 }

// Failed reports an error condition without pending input.
func (e Event) Failed() bool { return e.Flags&EventError != 0 && e.Flags&EventRead == 0 }

// Registry wraps the OS readiness-notification facility.
//
// Every handle passed to Register is switched to non-blocking mode before it
// is added. Implementations are not safe for concurrent use; the event loop
// owns its registry exclusively.
type Registry interface {
	// Register adds fd with the given interest set.
	Register(fd int, interest Interest) error

	// Modify replaces the interest set of an already registered fd.
	Modify(fd int, interest Interest) error

	// Deregister removes fd from the watch list.
	Deregister(fd int) error

	// Poll waits at most timeout and fills events; it returns the count.
	Poll(timeout time.Duration, events []Event) (int, error)

	// Registered lists the registered handles in ascending order.
	Registered() []int

	// Len is the number of registered handles.
	Len() int

	// Mode is the trigger policy applied to every registration.
	Mode() TriggerMode

	// Close releases the backend handle.
	Close() error
}
