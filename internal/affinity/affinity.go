// Package affinity binds render goroutines to OS threads and CPUs.
package affinity

import (
	"errors"
	"runtime"
)

// ErrUnsupported is returned when the platform cannot pin threads or raise their priority.
var ErrUnsupported = errors.New("thread affinity not supported on this platform")

// Lock wires the calling goroutine to its current OS thread. The returned function
// releases it and must run on the same goroutine.
func Lock() func() {
	runtime.LockOSThread()
	return runtime.UnlockOSThread
}
