// Package scheduler composes events and feeds them to an engine's event queue.
//
// It runs on its own goroutine, never on a render core. The only state it shares
// with the renderer is the engine's queue and clock.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/sdk/contracts"
	"github.com/sugawarayuuta/sonnet"
)

// Polyphony test pattern shape.
const (
	PolyphonyVoices = 12
	PolyphonyLead   = 250  // ms from the patch load to the first note
	PolyphonyStep   = 1000 // ms between notes
	PolyphonyNote   = 40   // first note; each voice is two semitones higher
	PolyphonyVel    = 0.5
)

// ErrScore is returned by LoadScore when the document cannot be decoded.
var ErrScore = errors.New("invalid score")

type noteKey struct {
	channel, note byte
}

// Scheduler implements contracts.Scheduler.
type Scheduler struct {
	engine contracts.Engine
	logger contracts.Logger
	voices int

	// Live voice allocation; touched only by Follow.
	next  int
	held  map[noteKey]int
	owner []*noteKey
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l contracts.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithVoices limits live voice allocation to the first n voices.
func WithVoices(n int) Option {
	return func(s *Scheduler) { s.voices = n }
}

// New returns a scheduler submitting to engine.
func New(engine contracts.Engine, opts ...Option) *Scheduler {
	s := &Scheduler{engine: engine, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.voices <= 0 {
		s.voices = max(engine.Config().Voices, 1)
	}
	s.voices = min(s.voices, contracts.MaxVoices)
	s.held = make(map[noteKey]int, s.voices)
	s.owner = make([]*noteKey, s.voices)
	return s
}

// Submit appends e to the engine's event queue.
func (s *Scheduler) Submit(e contracts.Event) error {
	if err := s.engine.AddEvent(e); err != nil {
		s.logger.Warn("event rejected",
			s.logger.Field().Int64("time", e.Time),
			s.logger.Field().Error("error", err))
		return fmt.Errorf("submit event at %d: %w", e.Time, err)
	}
	return nil
}

// Polyphony submits the voice test pattern: patch loads patch on voices 0..11 at
// start, then voice k plays note 40+2k at start+250+1000k.
func (s *Scheduler) Polyphony(start int64, patch int32) error {
	load := s.engine.DefaultEvent()
	load.Time = start
	load.LoadPatch = patch
	load.Voices = contracts.MustVoiceList("0.." + strconv.Itoa(PolyphonyVoices-1))
	if err := s.Submit(load); err != nil {
		return err
	}

	for k := range PolyphonyVoices {
		e := s.engine.DefaultEvent()
		e.Time = start + PolyphonyLead + int64(k)*PolyphonyStep
		e.Voices = contracts.MustVoiceList(strconv.Itoa(k))
		e.MidiNote = int16(PolyphonyNote + 2*k)
		e.Velocity = PolyphonyVel
		if err := s.Submit(e); err != nil {
			return err
		}
	}

	s.logger.Info("polyphony pattern scheduled",
		s.logger.Field().Int64("start", start),
		s.logger.Field().Int32("patch", patch))
	return nil
}

// scoreEvent is one entry of a JSON score. Absent keys stay nil and map to Unset.
type scoreEvent struct {
	Time     int64    `json:"time"`
	Patch    *int32   `json:"patch"`
	Voices   string   `json:"voices"`
	Velocity *float32 `json:"velocity"`
	Note     *int16   `json:"note"`
}

// LoadScore decodes a JSON array of events and submits them with their times shifted
// by offset. It returns how many events were submitted. Every entry is validated
// before the first one is submitted.
func (s *Scheduler) LoadScore(r io.Reader, offset int64) (int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read score: %w", err)
	}
	var entries []scoreEvent
	if err := sonnet.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScore, err)
	}

	events := make([]contracts.Event, 0, len(entries))
	for i, se := range entries {
		e := s.engine.DefaultEvent()
		e.Time = se.Time + offset
		if se.Patch != nil {
			e.LoadPatch = *se.Patch
		}
		if se.Velocity != nil {
			e.Velocity = *se.Velocity
		}
		if se.Note != nil {
			e.MidiNote = *se.Note
		}
		if e.Voices, err = contracts.ParseVoiceList(se.Voices); err != nil {
			return 0, fmt.Errorf("%w: entry %d: %w", ErrScore, i, err)
		}
		events = append(events, e)
	}

	for i, e := range events {
		if err := s.Submit(e); err != nil {
			return i, err
		}
	}
	s.logger.Info("score loaded", s.logger.Field().Int("events", len(events)))
	return len(events), nil
}

// Follow turns live note messages into events until ctx is done or in is closed.
// Note-ons take voices round-robin and steal whatever the next voice holds. A repeated
// note-on retriggers its voice. Note-offs release the voice holding the note.
func (s *Scheduler) Follow(ctx context.Context, in <-chan contracts.MIDI) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			s.follow(msg)
		}
	}
}

func (s *Scheduler) follow(msg contracts.MIDI) {
	key := noteKey{channel: msg.Channel, note: msg.Note}
	e := s.engine.DefaultEvent()
	e.Time = s.engine.SysClock()
	e.MidiNote = int16(msg.Note)

	switch {
	case msg.IsNoteOn():
		v, held := s.held[key]
		if !held {
			v = s.allocate(key)
		}
		e.Voices = contracts.MustVoiceList(strconv.Itoa(v))
		e.Velocity = float32(msg.Velocity) / 127
		if err := s.Submit(e); err != nil && !held {
			// The engine never saw the note, so the voice stays free.
			s.release(v)
		}
		return
	case msg.IsNoteOff():
		v, ok := s.held[key]
		if !ok {
			s.logger.Debug("note-off for a note not held", s.logger.Field().Uint8("note", msg.Note))
			return
		}
		s.release(v)
		e.Voices = contracts.MustVoiceList(strconv.Itoa(v))
		e.Velocity = 0
	default:
		return
	}

	// The voice is free either way. A rejected note-off keeps sounding until the voice
	// is reused, and Submit's warning is its only report.
	_ = s.Submit(e)
}

func (s *Scheduler) allocate(key noteKey) int {
	v := s.next
	s.next = (s.next + 1) % s.voices
	if s.owner[v] != nil {
		s.logger.Debug("stealing voice", s.logger.Field().Int("voice", v))
		s.release(v)
	}
	s.owner[v] = &key
	s.held[key] = v
	return v
}

func (s *Scheduler) release(v int) {
	if k := s.owner[v]; k != nil {
		delete(s.held, *k)
		s.owner[v] = nil
	}
}
