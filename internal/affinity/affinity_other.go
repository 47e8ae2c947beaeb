//go:build !linux
// +build !linux

package affinity

// Pin is unsupported outside Linux.
func Pin(cpu int) error {
	return ErrUnsupported
}

// Boost is unsupported outside Linux.
func Boost() error {
	return ErrUnsupported
}

// State is empty outside Linux.
type State struct{}

// Save is unsupported outside Linux.
func Save() (State, error) {
	return State{}, ErrUnsupported
}

// Restore is unsupported outside Linux.
func (State) Restore() error {
	return ErrUnsupported
}
