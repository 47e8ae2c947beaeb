package scheduler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/duosynth/internal/queue"
	"github.com/leandrodaf/duosynth/internal/synth"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

type dispatch struct {
	now int64
	ev  contracts.Event
}

// newEngine returns a started engine whose periods are exactly 10 ms long.
func newEngine(t *testing.T, got *[]dispatch) *synth.Engine {
	t.Helper()
	e := synth.New(synth.WithDispatchHook(func(now int64, ev contracts.Event) {
		*got = append(*got, dispatch{now: now, ev: ev})
	}))
	err := e.Start(contracts.EngineConfig{
		Cores:       2,
		Voices:      16,
		Channels:    2,
		Oscillators: 32,
		BlockSize:   441,
		SampleRate:  44100,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return e
}

func period(e *synth.Engine) {
	ranges := contracts.SplitRange(e.Oscillators())
	e.PrepareBuffer()
	e.Render(ranges[0], 0)
	e.Render(ranges[1], 1)
	e.FinalizeBuffer()
}

func sameEvent(a, b contracts.Event) bool {
	return a.Time == b.Time && a.LoadPatch == b.LoadPatch && a.Voices.String() == b.Voices.String() &&
		a.Velocity == b.Velocity && a.MidiNote == b.MidiNote
}

func TestPolyphony_DispatchesElapsedEventsPerPeriod(t *testing.T) {
	t.Parallel()

	const start = 100
	var got []dispatch
	e := newEngine(t, &got)
	s := New(e)

	if err := s.Polyphony(start, 1); err != nil {
		t.Fatalf("Polyphony() error = %v", err)
	}
	if got := e.Queue().Len(); got != PolyphonyVoices+1 {
		t.Fatalf("queued %d events, want %d", got, PolyphonyVoices+1)
	}

	want := make([]contracts.Event, 0, PolyphonyVoices+1)
	load := contracts.DefaultEvent()
	load.Time = start
	load.LoadPatch = 1
	load.Voices = contracts.MustVoiceList("0..11")
	want = append(want, load)
	for k := range PolyphonyVoices {
		ev := contracts.DefaultEvent()
		ev.Time = start + 250 + int64(k)*1000
		ev.Voices = contracts.MustVoiceList(strconv.Itoa(k))
		ev.MidiNote = int16(40 + 2*k)
		ev.Velocity = 0.5
		want = append(want, ev)
	}

	last := want[len(want)-1].Time
	next := 0
	for e.SysClock() <= last+20 {
		now := e.SysClock()
		before := len(got)
		period(e)

		end := next
		for end < len(want) && want[end].Time <= now {
			end++
		}
		batch := got[before:]
		if len(batch) != end-next {
			t.Fatalf("clock %d: dispatched %d events, want %d", now, len(batch), end-next)
		}
		for i, d := range batch {
			if d.now != now {
				t.Errorf("clock %d: event dispatched with clock %d", now, d.now)
			}
			if !sameEvent(d.ev, want[next+i]) {
				t.Errorf("clock %d: dispatched %+v, want %+v", now, d.ev, want[next+i])
			}
		}
		next = end
	}

	if next != len(want) {
		t.Fatalf("dispatched %d of %d events", next, len(want))
	}
	if e.Queue().Len() != 0 {
		t.Errorf("queue still holds %d events", e.Queue().Len())
	}
	for k := range PolyphonyVoices {
		if got := e.VoiceNote(k); got != int16(40+2*k) {
			t.Errorf("VoiceNote(%d) = %d, want %d", k, got, 40+2*k)
		}
	}
}

func TestLoadScore(t *testing.T) {
	t.Parallel()

	var got []dispatch
	e := newEngine(t, &got)
	s := New(e)

	score := `[
		{"time": 0, "patch": 3, "voices": "0,1"},
		{"time": 0, "voices": "0", "note": 60, "velocity": 0.75},
		{"time": 20, "voices": "1", "note": 64}
	]`
	n, err := s.LoadScore(strings.NewReader(score), 10)
	if err != nil || n != 3 {
		t.Fatalf("LoadScore() = %d, %v, want 3, nil", n, err)
	}

	for range 4 {
		period(e)
	}
	if len(got) != 3 {
		t.Fatalf("dispatched %d events, want 3", len(got))
	}

	first := got[0].ev
	if first.Time != 10 || first.LoadPatch != 3 || first.HasNote() || first.HasVelocity() {
		t.Errorf("first event = %+v, want a patch load at 10 with no note or velocity", first)
	}
	if second := got[1].ev; second.Time != 10 || second.MidiNote != 60 || second.Velocity != 0.75 || second.HasPatch() {
		t.Errorf("second event = %+v", second)
	}
	if third := got[2].ev; third.Time != 30 || third.HasVelocity() || third.Voices.String() != "1" {
		t.Errorf("third event = %+v", third)
	}
}

func TestLoadScore_RejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		score string
	}{
		{"not json", `{`},
		{"bad voices", `[{"time": 0, "voices": "x"}]`},
		{"voices too long", `[{"time": 0, "voices": "` + strings.Repeat("1,", 40) + `1"}]`},
		{"voice range too wide", `[{"time": 0, "voices": "0..49999999", "note": 40}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []dispatch
			e := newEngine(t, &got)
			n, err := New(e).LoadScore(strings.NewReader(tt.score), 0)
			if !errors.Is(err, ErrScore) {
				t.Errorf("LoadScore() error = %v, want ErrScore", err)
			}
			if n != 0 || e.Queue().Len() != 0 {
				t.Errorf("LoadScore() submitted %d events on a bad score", e.Queue().Len())
			}
		})
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	t.Parallel()

	e := synth.New(synth.WithQueueSize(1))
	s := New(e, WithVoices(4))
	if err := s.Submit(contracts.DefaultEvent()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Submit(contracts.DefaultEvent()); !errors.Is(err, queue.ErrQueueFull) {
		t.Errorf("Submit() error = %v, want ErrQueueFull", err)
	}
}

// clockEngine captures submitted events; only the methods the scheduler uses matter.
type clockEngine struct {
	contracts.Engine
	clock  int64
	events []contracts.Event
	reject error
}

func (c *clockEngine) Config() contracts.EngineConfig { return contracts.EngineConfig{Voices: 2} }
func (c *clockEngine) DefaultEvent() contracts.Event  { return contracts.DefaultEvent() }
func (c *clockEngine) SysClock() int64                { return c.clock }

func (c *clockEngine) AddEvent(e contracts.Event) error {
	if c.reject != nil {
		return c.reject
	}
	c.events = append(c.events, e)
	return nil
}

func TestFollow_AllocatesAndReleasesVoices(t *testing.T) {
	t.Parallel()

	eng := &clockEngine{clock: 42}
	s := New(eng)

	in := make(chan contracts.MIDI, 8)
	in <- contracts.MIDI{Command: byte(contracts.NoteOn), Note: 60, Velocity: 127}
	in <- contracts.MIDI{Command: byte(contracts.NoteOn), Note: 64, Velocity: 127}
	in <- contracts.MIDI{Command: byte(contracts.NoteOff), Note: 60}
	in <- contracts.MIDI{Command: byte(contracts.NoteOff), Note: 61}
	in <- contracts.MIDI{Command: byte(contracts.NoteOn), Note: 67, Velocity: 0}
	in <- contracts.MIDI{Command: byte(contracts.NoteOn), Note: 67, Velocity: 64}
	in <- contracts.MIDI{Command: byte(contracts.NoteOn), Note: 71, Velocity: 64}
	close(in)

	s.Follow(context.Background(), in)

	want := []struct {
		voices string
		note   int16
		off    bool
	}{
		{"0", 60, false},
		{"1", 64, false},
		{"0", 60, true},
		{"0", 67, false},
		{"1", 71, false}, // steals 64's voice
	}
	if len(eng.events) != len(want) {
		t.Fatalf("submitted %d events, want %d: %+v", len(eng.events), len(want), eng.events)
	}
	for i, w := range want {
		ev := eng.events[i]
		if ev.Time != 42 {
			t.Errorf("event %d time = %d, want the engine clock 42", i, ev.Time)
		}
		if ev.Voices.String() != w.voices || ev.MidiNote != w.note || ev.IsNoteOff() != w.off {
			t.Errorf("event %d = %+v, want voice %s note %d off=%v", i, ev, w.voices, w.note, w.off)
		}
	}
	if eng.events[0].Velocity != 1 {
		t.Errorf("velocity 127 mapped to %v, want 1", eng.events[0].Velocity)
	}
	if _, ok := s.held[noteKey{note: 64}]; ok {
		t.Error("stolen note 64 still marked as held")
	}
}

func TestFollow_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(&clockEngine{}).Follow(ctx, make(chan contracts.MIDI))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Follow() did not return after cancellation")
	}
}

func TestFollow_RejectedNoteOnFreesVoice(t *testing.T) {
	t.Parallel()

	eng := &clockEngine{reject: queue.ErrQueueFull}
	s := New(eng)
	s.follow(contracts.MIDI{Command: byte(contracts.NoteOn), Note: 60, Velocity: 100})
	if len(s.held) != 0 || s.owner[0] != nil {
		t.Fatalf("held = %v after a rejected note-on, want no voice taken", s.held)
	}

	eng.reject = nil
	s.follow(contracts.MIDI{Command: byte(contracts.NoteOff), Note: 60})
	if len(eng.events) != 0 {
		t.Errorf("submitted %+v for a note that never sounded", eng.events)
	}
}

func TestNew_CapsVoicesAtVoiceListRange(t *testing.T) {
	t.Parallel()

	s := New(&clockEngine{}, WithVoices(10000))
	if s.voices != contracts.MaxVoices {
		t.Errorf("voices = %d, want %d", s.voices, contracts.MaxVoices)
	}
}
