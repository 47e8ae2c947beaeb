//go:build linux
// +build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// renderNice is the niceness requested for render threads.
const renderNice = -10

// Pin restricts the calling OS thread to cpu. Call Lock first so the goroutine stays
// on the pinned thread.
func Pin(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("cpu %d out of range", cpu)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("sched_setaffinity cpu %d: %w", cpu, err)
	}
	return nil
}

// Boost raises the scheduling priority of the calling OS thread. Without
// CAP_SYS_NICE this fails with EPERM and the thread keeps its priority.
func Boost() error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), renderNice); err != nil {
		return fmt.Errorf("setpriority %d: %w", renderNice, err)
	}
	return nil
}

// State is a thread's CPU mask and niceness as recorded by Save.
type State struct {
	set  unix.CPUSet
	nice int
}

// Save records the calling OS thread's CPU mask and niceness so a pinned, boosted
// thread can be handed back unchanged.
func Save() (State, error) {
	var s State
	if err := unix.SchedGetaffinity(0, &s.set); err != nil {
		return State{}, fmt.Errorf("sched_getaffinity: %w", err)
	}
	prio, err := unix.Getpriority(unix.PRIO_PROCESS, unix.Gettid())
	if err != nil {
		return State{}, fmt.Errorf("getpriority: %w", err)
	}
	// The raw syscall reports 20 - nice.
	s.nice = 20 - prio
	return s, nil
}

// Restore applies s to the calling OS thread.
func (s State) Restore() error {
	if err := unix.SchedSetaffinity(0, &s.set); err != nil {
		return fmt.Errorf("sched_setaffinity: %w", err)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), s.nice); err != nil {
		return fmt.Errorf("setpriority %d: %w", s.nice, err)
	}
	return nil
}
