// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-chat components.

package benchmarks

import (
	"bytes"
	"testing"

	"github.com/momentics/hioload-chat/api"
	"github.com/momentics/hioload-chat/control"
	"github.com/momentics/hioload-chat/internal/session"
)

// loopConn serves the same input once per read and swallows writes.
type loopConn struct {
	input   []byte
	pending bool
	block   bool
}

func (c *loopConn) Fd() int            { return 100 }
func (c *loopConn) RemoteAddr() string { return "bench" }
func (c *loopConn) Close() error       { return nil }

func (c *loopConn) Read(p []byte) (int, error) {
	if !c.pending {
		c.pending = true
		return 0, api.ErrWouldBlock
	}
	c.pending = false
	return copy(p, c.input), nil
}

func (c *loopConn) Write(p []byte) (int, error) {
	if c.block {
		return 0, api.ErrWouldBlock
	}
	return len(p), nil
}

// BenchmarkDriverFraming measures splitting a 16-line read into messages.
func BenchmarkDriverFraming(b *testing.B) {
	for _, mode := range []api.TriggerMode{api.EdgeTriggered, api.LevelTriggered} {
		b.Run(mode.String(), func(b *testing.B) {
			input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\r\n"), 16)
			conn := &loopConn{input: input, pending: true}
			d := session.NewDriver(session.DriverConfig{Mode: mode})
			s := session.New(1, conn)

			b.SetBytes(int64(len(input)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				conn.pending = true
				msgs, err := d.OnReadable(s)
				if err != nil || len(msgs) != 16 {
					b.Fatalf("got %d messages, err %v", len(msgs), err)
				}
			}
		})
	}
}

// BenchmarkDriverSendDirect measures the write path with an empty queue.
func BenchmarkDriverSendDirect(b *testing.B) {
	d := session.NewDriver(session.DriverConfig{Mode: api.EdgeTriggered})
	s := session.New(1, &loopConn{})
	line := []byte("ClientID 1 say >> hello\n")

	b.SetBytes(int64(len(line)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := d.Send(s, line); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDriverQueueFlush measures queueing behind a blocked socket and
// draining once it becomes writable.
func BenchmarkDriverQueueFlush(b *testing.B) {
	conn := &loopConn{}
	d := session.NewDriver(session.DriverConfig{Mode: api.EdgeTriggered})
	s := session.New(1, conn)
	line := []byte("ClientID 1 say >> hello\n")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		conn.block = true
		for j := 0; j < 32; j++ {
			if err := d.Send(s, line); err != nil {
				b.Fatal(err)
			}
		}
		conn.block = false
		if drained, err := d.Flush(s); err != nil || !drained {
			b.Fatalf("drained=%v err=%v", drained, err)
		}
	}
}

// BenchmarkMetricsAdd measures counter updates from the loop.
func BenchmarkMetricsAdd(b *testing.B) {
	m := control.NewMetricsRegistry()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Add(control.MetricMessagesIn, 1)
		}
	})
}
