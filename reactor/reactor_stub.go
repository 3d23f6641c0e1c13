//go:build !linux && !darwin && !freebsd
// +build !linux,!darwin,!freebsd

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-chat/api"
)

// New returns an error for unsupported platforms.
func New(mode api.TriggerMode, capacity int) (api.Registry, error) {
	return nil, fmt.Errorf("reactor: %w on this platform", api.ErrNotSupported)
}
