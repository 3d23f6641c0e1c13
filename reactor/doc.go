// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness registry behind api.Registry:
// epoll on Linux, kqueue on Darwin/FreeBSD, and an unsupported stub elsewhere.
// Every backend enforces a registration ceiling and switches handles to
// non-blocking mode before they are watched.
package reactor
