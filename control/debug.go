// control/debug.go
// Author: momentics <momentics@gmail.com>
//
// Named probes appended to the periodic stats line.

package control

import (
	"fmt"
	"strings"
	"sync"
)

type probe struct {
	name string
	fn   func() any
}

// Probes is an ordered set of named gauges evaluated on demand.
type Probes struct {
	mu   sync.Mutex
	list []probe
}

// NewProbes returns an empty probe set.
func NewProbes() *Probes { return &Probes{} }

// Register adds fn under name; registering a name twice replaces the probe
// and keeps its position.
func (p *Probes) Register(name string, fn func() any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.list {
		if p.list[i].name == name {
			p.list[i].fn = fn
			return
		}
	}
	p.list = append(p.list, probe{name: name, fn: fn})
}

// Snapshot evaluates every probe.
func (p *Probes) Snapshot() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]any, len(p.list))
	for _, pr := range p.list {
		out[pr.name] = pr.fn()
	}
	return out
}

// String renders "name=value" pairs in registration order.
func (p *Probes) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b strings.Builder
	for i, pr := range p.list {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", pr.name, pr.fn())
	}
	return b.String()
}
