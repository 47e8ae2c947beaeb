// Package synth is the built-in synthesis engine: a pool of enveloped oscillators
// addressed through voices, driven by events from a shared queue.
//
// Voice v owns two oscillators, v and v+Oscillators/2, so every sounding voice has
// work in both halves of the pool and both render cores contribute to each block.
package synth

import (
	"fmt"
	"sync/atomic"

	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/internal/queue"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// DefaultVolume is the master gain applied when mixing the two core accumulators.
const DefaultVolume = 0.25

// Engine implements contracts.Engine.
type Engine struct {
	cfg     contracts.EngineConfig
	logger  contracts.Logger
	queue   *queue.Queue
	volume  float64
	onEvent func(now int64, e contracts.Event)

	oscs       []oscillator
	voicePatch []int32
	voiceNote  []int16
	accum      [2][]float64
	block      contracts.Block
	due        []contracts.Event

	frames atomic.Int64
	reset  atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for dispatch diagnostics.
func WithLogger(l contracts.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(e *Engine) { e.queue = queue.New(n) }
}

// WithVolume sets the master gain.
func WithVolume(v float64) Option {
	return func(e *Engine) { e.volume = v }
}

// WithDispatchHook registers fn to observe every event as it is dispatched. It runs on
// the primary render core with the period's clock value.
func WithDispatchHook(fn func(now int64, e contracts.Event)) Option {
	return func(e *Engine) { e.onEvent = fn }
}

// New returns an engine that must be started before rendering.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logger.NewNop(),
		volume: DefaultVolume,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.queue == nil {
		e.queue = queue.New(queue.DefaultCapacity)
	}
	return e
}

// Start allocates the oscillator pool, output block and clock.
func (e *Engine) Start(cfg contracts.EngineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Voices > cfg.Oscillators/2 {
		return fmt.Errorf("%w: %d voices need %d oscillators, have %d",
			contracts.ErrInvalidEngineConfig, cfg.Voices, 2*cfg.Voices, cfg.Oscillators)
	}

	e.cfg = cfg
	e.oscs = make([]oscillator, cfg.Oscillators)
	e.voicePatch = make([]int32, cfg.Voices)
	e.voiceNote = make([]int16, cfg.Voices)
	for v := range e.voiceNote {
		e.voiceNote[v] = contracts.Unset
	}
	for c := range e.accum {
		e.accum[c] = make([]float64, cfg.BlockSize)
	}
	e.block = make(contracts.Block, cfg.BlockSize*cfg.Channels)
	e.due = make([]contracts.Event, 0, e.queue.Capacity())
	e.frames.Store(0)

	e.logger.Info("synth engine started",
		e.logger.Field().Int("oscillators", cfg.Oscillators),
		e.logger.Field().Int("voices", cfg.Voices),
		e.logger.Field().Int("blockSize", cfg.BlockSize),
		e.logger.Field().Int("sampleRate", cfg.SampleRate))
	return nil
}

// Config returns the configuration passed to Start.
func (e *Engine) Config() contracts.EngineConfig { return e.cfg }

// Oscillators returns the pool size.
func (e *Engine) Oscillators() int { return len(e.oscs) }

// VoiceNote returns the note currently held by voice v, or contracts.Unset.
// It must not be called while the engine is rendering.
func (e *Engine) VoiceNote(v int) int16 { return e.voiceNote[v] }

// Queue exposes the engine's event queue.
func (e *Engine) Queue() *queue.Queue { return e.queue }

// AddEvent queues ev for dispatch at ev.Time.
func (e *Engine) AddEvent(ev contracts.Event) error {
	return e.queue.Add(ev)
}

// DefaultEvent returns the event template.
func (e *Engine) DefaultEvent() contracts.Event { return contracts.DefaultEvent() }

// ResetOscillators silences the pool and clears voice state at the start of the next period.
func (e *Engine) ResetOscillators() { e.reset.Store(true) }

// SysClock returns the number of milliseconds rendered so far.
func (e *Engine) SysClock() int64 {
	if e.cfg.SampleRate == 0 {
		return 0
	}
	return e.frames.Load() * 1000 / int64(e.cfg.SampleRate)
}

// PrepareBuffer applies a pending reset, dispatches every event due at the current
// clock and clears both accumulators.
func (e *Engine) PrepareBuffer() {
	if e.reset.Swap(false) {
		clear(e.oscs)
		clear(e.voicePatch)
		for v := range e.voiceNote {
			e.voiceNote[v] = contracts.Unset
		}
	}

	now := e.SysClock()
	e.due = e.queue.Due(now, e.due[:0])
	for _, ev := range e.due {
		e.apply(ev)
		if e.onEvent != nil {
			e.onEvent(now, ev)
		}
	}

	for c := range e.accum {
		clear(e.accum[c])
	}
}

// Render adds every oscillator in r to core's accumulator.
func (e *Engine) Render(r contracts.OscRange, core int) {
	dst := e.accum[core&1]
	for i := r.Start; i < r.End; i++ {
		if o := &e.oscs[i]; !o.silent() {
			o.render(dst)
		}
	}
}

// FinalizeBuffer mixes both accumulators into the interleaved output block and
// advances the clock by one period. The block is reused by the next call.
func (e *Engine) FinalizeBuffer() contracts.Block {
	ch := e.cfg.Channels
	for f := range e.cfg.BlockSize {
		s := toInt16((e.accum[0][f] + e.accum[1][f]) * e.volume)
		for c := range ch {
			e.block[f*ch+c] = s
		}
	}
	e.frames.Add(int64(e.cfg.BlockSize))
	return e.block
}

func (e *Engine) apply(ev contracts.Event) {
	skipped, err := ev.Voices.Each(len(e.voicePatch), func(v int) {
		if ev.HasPatch() {
			e.loadPatch(v, ev.LoadPatch)
		}
		if ev.HasNote() {
			if ev.IsNoteOff() {
				e.noteOff(v)
			} else {
				e.noteOn(v, ev.MidiNote, ev.Velocity)
			}
		}
	})
	if err != nil {
		e.logger.Warn("dropping event with invalid voice list",
			e.logger.Field().String("voices", ev.Voices.String()),
			e.logger.Field().Error("error", err))
		return
	}
	if skipped > 0 {
		e.logger.Debug("voices out of range",
			e.logger.Field().String("voices", ev.Voices.String()),
			e.logger.Field().Int("skipped", skipped),
			e.logger.Field().Int("voiceCount", len(e.voicePatch)))
	}

	e.logger.Debug("event dispatched",
		e.logger.Field().Int64("time", ev.Time),
		e.logger.Field().Int32("patch", ev.LoadPatch),
		e.logger.Field().String("voices", ev.Voices.String()),
		e.logger.Field().Int("note", int(ev.MidiNote)))
}

func (e *Engine) loadPatch(v int, patch int32) {
	if int(patch) >= len(Patches) {
		e.logger.Warn("unknown patch", e.logger.Field().Int32("patch", patch))
		return
	}
	e.voicePatch[v] = patch
}

func (e *Engine) noteOn(v int, note int16, velocity float32) {
	vel := float64(velocity)
	if velocity < 0 {
		vel = 1
	}
	p := Patches[e.voicePatch[v]]
	freq := noteFrequency(note)
	half := len(e.oscs) / 2

	e.oscs[v].start(p.Wave, freq, vel, e.cfg.SampleRate, p)
	e.oscs[v+half].start(Sine, freq*p.HarmonicRatio, vel*p.HarmonicGain, e.cfg.SampleRate, p)
	e.voiceNote[v] = note
}

func (e *Engine) noteOff(v int) {
	half := len(e.oscs) / 2
	e.oscs[v].stop()
	e.oscs[v+half].stop()
	e.voiceNote[v] = contracts.Unset
}

func toInt16(x float64) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return int16(x * 32767)
}
