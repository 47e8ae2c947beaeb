package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOutputConfig is returned when an output configuration is rejected.
var ErrInvalidOutputConfig = errors.New("invalid output configuration")

// ChannelMode selects the slot layout of the output stream.
type ChannelMode int

const (
	// Mono streams one channel per frame.
	Mono ChannelMode = 1
	// Stereo streams two interleaved channels per frame.
	Stereo ChannelMode = 2
)

// PinUnused marks a pin that is not routed.
const PinUnused = -1

// PinConfig assigns the serial audio lines of a hardware peripheral.
// Host sinks ignore it.
type PinConfig struct {
	BCLK  int // Bit clock.
	LRCLK int // Word select.
	DOUT  int // Data out.
}

// OutputConfig describes how the output peripheral is clocked and routed.
type OutputConfig struct {
	SampleRate int
	BitDepth   int
	Channels   ChannelMode
	Pins       PinConfig
}

// BytesPerFrame returns the number of bytes one interleaved frame occupies.
func (c OutputConfig) BytesPerFrame() int { return int(c.Channels) * c.BitDepth / 8 }

// Validate reports whether the configuration can be applied to a peripheral.
func (c OutputConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidOutputConfig, c.SampleRate)
	}
	if c.BitDepth != 16 {
		return fmt.Errorf("%w: bit depth %d, only 16 supported", ErrInvalidOutputConfig, c.BitDepth)
	}
	if c.Channels != Mono && c.Channels != Stereo {
		return fmt.Errorf("%w: channel mode %d", ErrInvalidOutputConfig, c.Channels)
	}
	pins := []int{c.Pins.BCLK, c.Pins.LRCLK, c.Pins.DOUT}
	seen := make(map[int]bool, len(pins))
	for _, p := range pins {
		if p == PinUnused {
			continue
		}
		if p < 0 || seen[p] {
			return fmt.Errorf("%w: pin %d assigned twice or negative", ErrInvalidOutputConfig, p)
		}
		seen[p] = true
	}
	return nil
}

// Sink is the output peripheral adapter. Write blocks for at most wait and returns the
// number of bytes the peripheral accepted; a count below len(p) is an underrun, not an error.
type Sink interface {
	Configure(cfg OutputConfig) error
	Write(p []byte, wait time.Duration) (int, error)
	Close() error
}

// Underrun describes a period whose block was not fully accepted by the sink.
type Underrun struct {
	Period    uint64 // Period index, starting at zero.
	Written   int    // Bytes accepted by the sink.
	Requested int    // Bytes handed to the sink.
}

// PipelineStats is a snapshot of the render loop counters.
type PipelineStats struct {
	Periods   uint64 // Periods handed to the sink.
	Underruns uint64 // Periods the sink accepted only partially.
	LastShort int    // Byte count of the most recent short write.
}
