//go:build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// ErrUnavailable is returned by every device operation of the stand-in input.
var ErrUnavailable = errors.New("winmm MIDI is not available on this platform")

type dummyInput struct {
	logger contracts.Logger
}

// NewMIDIInput returns a stand-in input on systems without winmm.
func NewMIDIInput(options *contracts.MIDIOptions) (contracts.MIDIInput, error) {
	options.Logger.Info("using dummy MIDI input for non-Windows system")
	return &dummyInput{logger: options.Logger}, nil
}

// ListDevices reports that MIDI is unavailable.
func (m *dummyInput) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI input")
	return nil, ErrUnavailable
}

// SelectDevice reports that MIDI is unavailable.
func (m *dummyInput) SelectDevice(int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI input")
	return ErrUnavailable
}

// StartCapture only logs; nothing will ever be delivered.
func (m *dummyInput) StartCapture(chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI input")
}

// Stop does nothing.
func (m *dummyInput) Stop() error { return nil }
