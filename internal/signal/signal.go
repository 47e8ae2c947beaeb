// Package signal provides the edge-triggered wake primitive used between the two
// render cores.
//
// A Signal holds at most one pending notification. Notify never blocks: notifying a
// signal that is already pending is a no-op. Wait blocks until a notification is
// pending and consumes it.
package signal

import (
	"context"
	"time"
)

// Signal is a single-permit, payload-free notification.
type Signal struct {
	ch chan struct{}
}

// New returns a signal with no pending notification.
func New() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Notify makes one notification pending. It reports false when one already was.
func (s *Signal) Notify() bool {
	select {
	case s.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Wait blocks until a notification is pending and consumes it.
func (s *Signal) Wait() {
	<-s.ch
}

// WaitTimeout is like Wait but gives up after d. It reports whether a notification
// was consumed. A non-positive d waits forever.
func (s *Signal) WaitTimeout(d time.Duration) bool {
	if d <= 0 {
		s.Wait()
		return true
	}
	select {
	case <-s.ch:
		return true
	default:
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.ch:
		return true
	case <-t.C:
		return false
	}
}

// WaitContext is like Wait but returns ctx.Err() if ctx is done first.
func (s *Signal) WaitContext(ctx context.Context) error {
	select {
	case <-s.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports whether a notification is waiting to be consumed.
func (s *Signal) Pending() bool {
	return len(s.ch) == 1
}

// C exposes the receive side for use in select statements. Receiving from it
// consumes the notification.
func (s *Signal) C() <-chan struct{} {
	return s.ch
}
