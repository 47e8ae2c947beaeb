package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/duosynth/internal/midi/mididarwin"
	"github.com/leandrodaf/duosynth/internal/midi/midiwindows"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system has no MIDI backend.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// inputInitializers maps OS names to the matching MIDI input constructor.
var inputInitializers = map[string]func(*contracts.MIDIOptions) (contracts.MIDIInput, error){
	"darwin":  mididarwin.NewMIDIInput,  // CoreMIDI.
	"windows": midiwindows.NewMIDIInput, // winmm.
}

// newInput picks the MIDI backend for the current operating system.
func newInput(opts *contracts.MIDIOptions) (contracts.MIDIInput, error) {
	if initializer, exists := inputInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
