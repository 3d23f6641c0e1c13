//go:build !linux && !darwin && !freebsd
// +build !linux,!darwin,!freebsd

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"fmt"

	"github.com/momentics/hioload-chat/api"
)

const DefaultBacklog = 1024

// Listener is unavailable on this platform.
type Listener struct{ api.Listener }

// Listen reports that raw sockets are not supported here.
func Listen(address string, backlog int) (*Listener, error) {
	return nil, fmt.Errorf("tcp listen %q: %w", address, api.ErrNotSupported)
}
