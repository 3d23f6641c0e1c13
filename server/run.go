// File: server/run.go
// Package server implements the chat reactor loop, connection acceptor and
// graceful shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/momentics/hioload-chat/api"
)

// Run registers the listener and drives Step until ctx is cancelled or the
// registry fails. Every socket is deregistered and closed before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.reg.Register(l.ln.Fd(), api.InterestRead); err != nil {
		l.closeBackends()
		return fmt.Errorf("register listener: %w", err)
	}
	l.log.Printf("[chatroom] listening on %s (%s-triggered, capacity %d)",
		l.ln.Addr(), l.reg.Mode(), l.cfg.MaxDescriptors)
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := l.Step(); err != nil {
			return err
		}
	}
}

// shutdown gives every session one best-effort flush, then tears it down,
// and finally releases the listener and the registry.
func (l *Loop) shutdown() {
	l.stopping = true
	for _, s := range l.table.Sessions() {
		if _, err := l.driver.Flush(s); err != nil {
			l.log.Printf("[chatroom] final flush %v: %v", s, err)
		}
		l.drop(s, api.ErrShutdown)
	}
	if err := l.reg.Deregister(l.ln.Fd()); err != nil && !errors.Is(err, api.ErrNotRegistered) {
		l.log.Printf("[chatroom] deregister listener: %v", err)
	}
	l.closeBackends()
	l.log.Printf("[chatroom] stopped: %s", l.metrics)
}

func (l *Loop) closeBackends() {
	if err := l.ln.Close(); err != nil {
		l.log.Printf("[chatroom] close listener: %v", err)
	}
	if err := l.reg.Close(); err != nil {
		l.log.Printf("[chatroom] close registry: %v", err)
	}
}
