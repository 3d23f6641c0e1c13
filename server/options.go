// File: server/options.go
// Package server defines functional options for the event loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"log"

	"github.com/momentics/hioload-chat/control"
)

// Option customizes loop initialization.
type Option func(*Loop)

// WithLogger replaces the default stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l
		}
	}
}

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(lp *Loop) {
		if m != nil {
			lp.metrics = m
		}
	}
}

// WithProbes attaches debug probes dumped alongside the periodic stats line.
func WithProbes(p *control.Probes) Option {
	return func(lp *Loop) {
		lp.probes = p
	}
}
