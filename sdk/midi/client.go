// Package midi opens a live MIDI input whose note messages can drive the scheduler.
package midi

import (
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// NewMIDIInput creates a MIDI input for the current platform with defaults applied.
// Pass contracts.WithClock(engine.SysClock) so captured messages carry render time.
//
// opts ...contracts.MIDIOption: A variadic list of option functions to customize the input.
//
// Returns:
//   - contracts.MIDIInput: The platform MIDI input.
//   - error: ErrUnsupportedOS on platforms without a backend, or a backend error.
func NewMIDIInput(opts ...contracts.MIDIOption) (contracts.MIDIInput, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return newInput(&options)
}
