//go:build linux

package main

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pinCPU restricts the calling thread to cpu. The caller must hold the
// thread with runtime.LockOSThread.
func pinCPU(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
	}
	return nil
}
