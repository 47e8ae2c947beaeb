package midi

import (
	"errors"
	"runtime"
	"testing"

	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

func TestApplyDefaultOptions(t *testing.T) {
	t.Parallel()

	opts, err := applyDefaultOptions(contracts.WithMIDILogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("applyDefaultOptions() error = %v", err)
	}
	if opts.CoreMIDIConfig == nil || opts.CoreMIDIConfig.ClientName != "duosynth" {
		t.Errorf("CoreMIDIConfig = %+v, want client name duosynth", opts.CoreMIDIConfig)
	}
	if !opts.MIDIEventFilter.Allows(byte(contracts.NoteOn)) || opts.MIDIEventFilter.Allows(0xB0) {
		t.Error("default filter should pass notes and drop control changes")
	}
}

func TestApplyDefaultOptions_KeepsCallerChoices(t *testing.T) {
	t.Parallel()

	clock := func() int64 { return 7 }
	opts, _ := applyDefaultOptions(
		contracts.WithMIDILogger(logger.NewNop()),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "lab"}),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOff}}),
		contracts.WithClock(clock),
	)
	if opts.CoreMIDIConfig.ClientName != "lab" {
		t.Errorf("ClientName = %q, want lab", opts.CoreMIDIConfig.ClientName)
	}
	if opts.MIDIEventFilter.Allows(byte(contracts.NoteOn)) {
		t.Error("caller filter replaced by the default")
	}
	if opts.Clock == nil || opts.Clock() != 7 {
		t.Error("caller clock not kept")
	}
}

func TestNewMIDIInput_UnsupportedOS(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("platform has a MIDI backend")
	}
	_, err := NewMIDIInput(contracts.WithMIDILogger(logger.NewNop()))
	if !errors.Is(err, ErrUnsupportedOS) {
		t.Errorf("NewMIDIInput() error = %v, want ErrUnsupportedOS", err)
	}
}
