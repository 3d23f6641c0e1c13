// File: internal/session/table.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Connection table mapping live socket handles to their sessions.

package session

import (
	"fmt"
	"sort"

	"github.com/momentics/hioload-chat/api"
)

// Table maps a socket handle to the session that owns it.
type Table struct {
	sessions map[int]*Session
}

// NewTable constructs an empty table.
func NewTable() *Table {
	return &Table{sessions: make(map[int]*Session)}
}

// Add inserts s keyed by its handle. Handles are unique.
func (t *Table) Add(s *Session) error {
	fd := s.Fd()
	if _, ok := t.sessions[fd]; ok {
		return fmt.Errorf("%w: fd %d in table", api.ErrAlreadyRegistered, fd)
	}
	t.sessions[fd] = s
	return nil
}

// Get fetches the session for fd.
func (t *Table) Get(fd int) (*Session, bool) {
	s, ok := t.sessions[fd]
	return s, ok
}

// Remove deletes fd and returns the removed session.
func (t *Table) Remove(fd int) (*Session, bool) {
	s, ok := t.sessions[fd]
	if ok {
		delete(t.sessions, fd)
	}
	return s, ok
}

// Len is the number of live sessions.
func (t *Table) Len() int { return len(t.sessions) }

// Handles lists the keys in ascending order.
func (t *Table) Handles() []int {
	out := make([]int, 0, len(t.sessions))
	for fd := range t.sessions {
		out = append(out, fd)
	}
	sort.Ints(out)
	return out
}

// Sessions returns a snapshot safe to iterate while sessions are torn down.
func (t *Table) Sessions() []*Session {
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	return out
}
