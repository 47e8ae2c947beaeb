package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEngineConfig is returned when an engine rejects its start parameters.
	ErrInvalidEngineConfig = errors.New("invalid engine configuration")
	// ErrInvalidPartition is returned when two render ranges overlap or leave oscillators uncovered.
	ErrInvalidPartition = errors.New("render ranges must be disjoint and cover the oscillator pool")
)

// Block is one period of interleaved signed 16-bit output samples.
type Block []int16

// OscRange is a half-open range [Start, End) of oscillator indices rendered by one core.
type OscRange struct {
	Start int
	End   int
}

// Len returns the number of oscillators in the range.
func (r OscRange) Len() int { return r.End - r.Start }

// Contains reports whether oscillator i belongs to the range.
func (r OscRange) Contains(i int) bool { return i >= r.Start && i < r.End }

// Overlaps reports whether r and o share at least one oscillator.
func (r OscRange) Overlaps(o OscRange) bool {
	return r.Len() > 0 && o.Len() > 0 && r.Start < o.End && o.Start < r.End
}

func (r OscRange) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// SplitRange partitions an oscillator pool of size n into two disjoint halves.
// When n is odd the second half gets the extra oscillator.
func SplitRange(n int) [2]OscRange {
	half := n / 2
	return [2]OscRange{{Start: 0, End: half}, {Start: half, End: n}}
}

// ValidatePartition checks that ranges are disjoint and that their union is [0, n).
func ValidatePartition(ranges [2]OscRange, n int) error {
	a, b := ranges[0], ranges[1]
	if a.Start < 0 || b.Start < 0 || a.Len() < 0 || b.Len() < 0 {
		return fmt.Errorf("%w: %s %s", ErrInvalidPartition, a, b)
	}
	if a.Overlaps(b) || a.Len()+b.Len() != n {
		return fmt.Errorf("%w: %s %s over %d", ErrInvalidPartition, a, b, n)
	}
	lo, hi := a, b
	if b.Start < a.Start {
		lo, hi = b, a
	}
	if lo.Start != 0 || lo.End != hi.Start || hi.End != n {
		return fmt.Errorf("%w: %s %s over %d", ErrInvalidPartition, a, b, n)
	}
	return nil
}

// EngineConfig holds the lifecycle parameters passed to Engine.Start.
type EngineConfig struct {
	Cores       int // Number of render cores, 1 or 2.
	Voices      int // Number of addressable voices.
	Channels    int // Output channel count.
	Oscillators int // Size of the oscillator pool.
	BlockSize   int // Frames per period.
	SampleRate  int // Output sample rate in Hz.
}

// Validate reports whether the configuration can drive a render period.
func (c EngineConfig) Validate() error {
	switch {
	case c.Cores < 1 || c.Cores > 2:
		return fmt.Errorf("%w: cores=%d", ErrInvalidEngineConfig, c.Cores)
	case c.Channels < 1 || c.Channels > 2:
		return fmt.Errorf("%w: channels=%d", ErrInvalidEngineConfig, c.Channels)
	case c.Oscillators < 2:
		return fmt.Errorf("%w: oscillators=%d", ErrInvalidEngineConfig, c.Oscillators)
	case c.Voices < 1 || c.Voices > c.Oscillators || c.Voices > MaxVoices:
		return fmt.Errorf("%w: voices=%d", ErrInvalidEngineConfig, c.Voices)
	case c.BlockSize < 1:
		return fmt.Errorf("%w: block size=%d", ErrInvalidEngineConfig, c.BlockSize)
	case c.SampleRate < 1:
		return fmt.Errorf("%w: sample rate=%d", ErrInvalidEngineConfig, c.SampleRate)
	}
	return nil
}

// Engine is the synthesis collaborator driven by the render pipeline.
//
// PrepareBuffer, FinalizeBuffer and ResetOscillators' effect run on the primary core.
// Render is called concurrently from both cores within a period, always with
// disjoint ranges. AddEvent and SysClock may be called from any goroutine.
type Engine interface {
	// Start allocates the oscillator pool and resets the clock.
	Start(cfg EngineConfig) error
	// Config returns the configuration passed to Start.
	Config() EngineConfig
	// Oscillators returns the oscillator pool size.
	Oscillators() int
	// PrepareBuffer dispatches due events and clears the period's accumulators.
	PrepareBuffer()
	// Render renders oscillators in r into core's accumulator.
	Render(r OscRange, core int)
	// FinalizeBuffer mixes the accumulators into the period's output block and advances the clock.
	FinalizeBuffer() Block
	// AddEvent queues an event for dispatch.
	AddEvent(e Event) error
	// DefaultEvent returns the event template.
	DefaultEvent() Event
	// ResetOscillators silences every oscillator before the next period.
	ResetOscillators()
	// SysClock returns the render clock in milliseconds.
	SysClock() int64
}
