// Package session
// Author: momentics <momentics@gmail.com>
//
// Per-client session records, the connection table keyed by socket handle,
// and the I/O driver that drains readable sockets into complete chat lines
// and flushes bounded outbound queues.
//
// Nothing here is safe for concurrent use: the event loop goroutine owns
// every Session and the Table exclusively.

package session
