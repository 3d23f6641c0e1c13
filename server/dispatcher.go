// File: server/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Broadcast dispatcher: turns one client's message into fan-out writes and
// handles the reserved exit command and lone-client notices.

package server

import (
	"strconv"
	"strings"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/internal/session"
)

// outlet is the loop side the dispatcher writes through. deliver reports
// false when the target was torn down while writing.
type outlet interface {
	deliver(s *session.Session, line string) bool
	drop(s *session.Session, cause error)
}

// Dispatcher fans messages out over the connection table.
type Dispatcher struct {
	msgs     control.Messages
	presence bool
	table    *session.Table
	out      outlet
}

// NewDispatcher binds the dispatcher to a table and the loop outlet.
func NewDispatcher(msgs control.Messages, presence bool, table *session.Table, out outlet) *Dispatcher {
	return &Dispatcher{msgs: msgs, presence: presence, table: table, out: out}
}

// Dispatch handles one complete message received from src.
func (d *Dispatcher) Dispatch(src *session.Session, msg []byte) {
	if string(msg) == d.msgs.Exit {
		d.out.drop(src, api.ErrExitRequested)
		return
	}
	if d.table.Len() == 1 {
		d.out.deliver(src, d.render(d.msgs.Caution, src.ID, ""))
		return
	}
	d.broadcast(src, d.render(d.msgs.Broadcast, src.ID, string(msg)))
}

// Welcome greets a freshly admitted session with its identity.
func (d *Dispatcher) Welcome(s *session.Session) bool {
	return d.out.deliver(s, d.render(d.msgs.Welcome, s.ID, ""))
}

// Joined announces s to everyone else when presence notices are on.
func (d *Dispatcher) Joined(s *session.Session) {
	if d.presence && d.msgs.Joined != "" {
		d.broadcast(s, d.render(d.msgs.Joined, s.ID, ""))
	}
}

// Departed runs after s left the table. before is the table size prior to
// removal; a 2->1 transition sends the caution line to the remaining client.
func (d *Dispatcher) Departed(s *session.Session, before int) {
	if d.presence && d.msgs.Left != "" {
		d.broadcast(s, d.render(d.msgs.Left, s.ID, ""))
	}
	if before != 2 || d.table.Len() != 1 {
		return
	}
	for _, lone := range d.table.Sessions() {
		if lone.State == session.Active {
			d.out.deliver(lone, d.render(d.msgs.Caution, lone.ID, ""))
		}
	}
}

func (d *Dispatcher) broadcast(src *session.Session, line string) {
	for _, s := range d.table.Sessions() {
		if s == src || s.State != session.Active {
			continue
		}
		d.out.deliver(s, line)
	}
}

func (d *Dispatcher) render(tmpl string, id uint64, msg string) string {
	r := strings.NewReplacer("{id}", strconv.FormatUint(id, 10), "{msg}", msg)
	return r.Replace(tmpl) + "\n"
}
