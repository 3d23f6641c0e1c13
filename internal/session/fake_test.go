package session

import (
	"io"

	"github.com/momentics/hioload-chat/api"
)

// fakeConn replays scripted read chunks. Each chunk models one packet that
// reached the kernel buffer; a read never crosses into data that has not
// "arrived" yet. When the script is exhausted reads would block, or return
// io.EOF once eof is set.
type fakeConn struct {
	fd      int
	chunks  [][]byte
	eof     bool
	readErr error
	reads   int

	written  []byte
	writeCap int // bytes accepted before would-block; <0 is unlimited
	writeErr error
	closed   bool
}

func newFakeConn(fd int) *fakeConn {
	return &fakeConn{fd: fd, writeCap: -1}
}

func (c *fakeConn) Fd() int            { return c.fd }
func (c *fakeConn) RemoteAddr() string { return "127.0.0.1:40000" }
func (c *fakeConn) Close() error       { c.closed = true; return nil }

// queued is the number of unread bytes.
func (c *fakeConn) queued() int {
	n := 0
	for _, ch := range c.chunks {
		n += len(ch)
	}
	return n
}

func (c *fakeConn) push(p []byte) { c.chunks = append(c.chunks, p) }

func (c *fakeConn) Read(p []byte) (int, error) {
	c.reads++
	if c.readErr != nil {
		return 0, c.readErr
	}
	if len(c.chunks) == 0 {
		if c.eof {
			return 0, io.EOF
		}
		return 0, api.ErrWouldBlock
	}
	n := copy(p, c.chunks[0])
	if n == len(c.chunks[0]) {
		c.chunks = c.chunks[1:]
	} else {
		c.chunks[0] = c.chunks[0][n:]
	}
	return n, nil
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.writeCap < 0 {
		c.written = append(c.written, p...)
		return len(p), nil
	}
	n := len(p)
	if n > c.writeCap {
		n = c.writeCap
	}
	c.written = append(c.written, p[:n]...)
	c.writeCap -= n
	if n < len(p) {
		return n, api.ErrWouldBlock
	}
	return n, nil
}
