package midi

import (
	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// applyDefaultOptions sets default values for MIDIOptions if not explicitly provided.
//
// opts ...contracts.MIDIOption: A variadic list of option functions that can modify MIDIOptions.
//
// Returns:
//   - contracts.MIDIOptions: The finalized input options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.MIDIOption) (contracts.MIDIOptions, error) {
	options := &contracts.MIDIOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "duosynth"}
	}
	if options.MIDIEventFilter == nil {
		// The scheduler only follows notes.
		options.MIDIEventFilter = &contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
		}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
