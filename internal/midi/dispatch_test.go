package midi

import (
	"testing"

	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newDispatcher(filter *contracts.MIDIEventFilter) (*Dispatcher, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewDispatcher(&contracts.MIDIOptions{
		Logger:          logger.NewFromZap(zap.New(core)),
		MIDIEventFilter: filter,
		Clock:           func() int64 { return 1234 },
	}), logs
}

func TestDispatcher_DecodesAndStamps(t *testing.T) {
	t.Parallel()

	d, _ := newDispatcher(nil)
	ch := make(chan contracts.MIDI, 4)
	d.Attach(ch)

	d.Message(0x93, 60, 100)

	got := <-ch
	want := contracts.MIDI{Timestamp: 1234, Command: 0x90, Channel: 3, Note: 60, Velocity: 100}
	if got != want {
		t.Errorf("Message() delivered %+v, want %+v", got, want)
	}
}

func TestDispatcher_Filter(t *testing.T) {
	t.Parallel()

	d, _ := newDispatcher(&contracts.MIDIEventFilter{Commands: []contracts.MIDICommand{contracts.NoteOff}})
	ch := make(chan contracts.MIDI, 4)
	d.Attach(ch)

	d.Message(0x90, 60, 100)
	d.Message(0x80, 60, 0)

	if len(ch) != 1 {
		t.Fatalf("delivered %d events, want 1", len(ch))
	}
	if got := <-ch; got.Command != 0x80 {
		t.Errorf("delivered command %#x, want 0x80", got.Command)
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	t.Parallel()

	d, logs := newDispatcher(nil)
	ch := make(chan contracts.MIDI, 1)
	d.Attach(ch)

	d.Message(0x90, 60, 100)
	d.Message(0x90, 62, 100)

	if len(ch) != 1 {
		t.Errorf("channel holds %d events, want 1", len(ch))
	}
	if got := logs.FilterMessage("MIDI event channel is full; event discarded").Len(); got != 1 {
		t.Errorf("drop warnings = %d, want 1", got)
	}
}

func TestDispatcher_Packet(t *testing.T) {
	t.Parallel()

	d, logs := newDispatcher(nil)
	ch := make(chan contracts.MIDI, 8)
	d.Attach(ch)

	// Note on, program change (one data byte), note off, then a truncated note on.
	d.Packet([]byte{0x90, 64, 90, 0xC1, 5, 0x80, 64, 0, 0x90, 65})

	var got []contracts.MIDI
	for len(ch) > 0 {
		got = append(got, <-ch)
	}
	if len(got) != 3 {
		t.Fatalf("delivered %d events, want 3: %+v", len(got), got)
	}
	if got[0].Command != 0x90 || got[1].Command != 0xC0 || got[1].Channel != 1 || got[2].Command != 0x80 {
		t.Errorf("delivered %+v", got)
	}
	if logs.FilterMessage(ErrIncompleteMIDIPacket.Error()).Len() != 1 {
		t.Error("truncated message not reported")
	}
}

func TestDispatcher_Detach(t *testing.T) {
	t.Parallel()

	d, _ := newDispatcher(nil)
	ch := make(chan contracts.MIDI, 1)
	d.Attach(ch)
	d.Detach()

	if d.Attached() {
		t.Error("Attached() = true after Detach")
	}
	d.Message(0x90, 60, 100)
	if len(ch) != 0 {
		t.Error("event delivered after Detach")
	}
}
