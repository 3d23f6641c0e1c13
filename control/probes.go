// control/probes.go
// Author: momentics <momentics@gmail.com>
//
// Process-level probes backed by gopsutil. Probes that the platform cannot
// answer report -1 instead of failing the dump.

package control

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// RegisterProcessProbes adds open-descriptor, RSS and goroutine probes for the
// current process.
func RegisterProcessProbes(p *Probes) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	p.Register("process.fds", func() any {
		n, err := proc.NumFDs()
		if err != nil {
			return -1
		}
		return n
	})
	p.Register("process.rss", func() any {
		mem, err := proc.MemoryInfo()
		if err != nil {
			return -1
		}
		return mem.RSS
	})
	p.Register("runtime.goroutines", func() any {
		return runtime.NumGoroutine()
	})
	return nil
}
