package runtime

import (
	goruntime "runtime"

	"github.com/shirou/gopsutil/cpu"
)

// HardwareParallelism returns the number of logical CPUs. It falls back to
// the Go scheduler's view when the host cannot be probed.
func HardwareParallelism() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return goruntime.NumCPU()
	}
	return n
}
