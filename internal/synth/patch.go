package synth

import "math"

// Wave selects an oscillator waveform.
type Wave int

const (
	Sine Wave = iota
	Triangle
	Saw
	Square
)

// Patch is a voice preset: the fundamental oscillator's waveform plus one harmonic
// partial rendered on the voice's second oscillator.
type Patch struct {
	Name          string
	Wave          Wave
	HarmonicRatio float64 // Partial frequency relative to the fundamental.
	HarmonicGain  float64 // Partial amplitude relative to the fundamental.
	AttackMs      float64
	ReleaseMs     float64
}

// Patches is the built-in patch table indexed by Event.LoadPatch.
var Patches = []Patch{
	{Name: "sine organ", Wave: Sine, HarmonicRatio: 2, HarmonicGain: 0.5, AttackMs: 5, ReleaseMs: 300},
	{Name: "soft triangle", Wave: Triangle, HarmonicRatio: 3, HarmonicGain: 0.25, AttackMs: 20, ReleaseMs: 500},
	{Name: "bright saw", Wave: Saw, HarmonicRatio: 2, HarmonicGain: 0.3, AttackMs: 2, ReleaseMs: 150},
	{Name: "hollow square", Wave: Square, HarmonicRatio: 1.5, HarmonicGain: 0.2, AttackMs: 2, ReleaseMs: 200},
}

// sample evaluates w at phase in [0,1).
func (w Wave) sample(phase float64) float64 {
	switch w {
	case Triangle:
		return 4*math.Abs(phase-0.5) - 1
	case Saw:
		return 2*phase - 1
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// noteFrequency converts a MIDI note number to Hz (A4 = note 69 = 440 Hz).
func noteFrequency(note int16) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
