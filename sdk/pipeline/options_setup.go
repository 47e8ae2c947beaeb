package pipeline

import (
	"time"

	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/internal/sink/otosink"
	"github.com/leandrodaf/duosynth/internal/synth"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// Defaults applied when an option is left unset.
const (
	DefaultSampleRate  = 44100
	DefaultBitDepth    = 16
	DefaultBlockSize   = 256
	DefaultOscillators = 64
	DefaultVoices      = 32
	DefaultQueueSize   = 1024
)

// applyDefaultOptions sets default values for PipelineOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify PipelineOptions.
//
// Returns:
//   - contracts.PipelineOptions: The finalized options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.PipelineOptions, error) {
	options := &contracts.PipelineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	options.Logger.SetLevel(options.LogLevel) // Zero value is InfoLevel
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}

	out := &options.Output
	if out.SampleRate == 0 {
		out.SampleRate = DefaultSampleRate
	}
	if out.BitDepth == 0 {
		out.BitDepth = DefaultBitDepth
	}
	if out.Channels == 0 {
		out.Channels = contracts.Stereo
	}
	// All pins on line 0 is not a valid routing, so the zero value reads as unset.
	if out.Pins == (contracts.PinConfig{}) {
		out.Pins = contracts.PinConfig{BCLK: contracts.PinUnused, LRCLK: contracts.PinUnused, DOUT: contracts.PinUnused}
	}

	if options.BlockSize == 0 {
		options.BlockSize = DefaultBlockSize
	}
	if options.Oscillators == 0 {
		options.Oscillators = DefaultOscillators
	}
	if options.Voices == 0 {
		options.Voices = min(DefaultVoices, options.Oscillators/2)
	}
	if options.QueueSize == 0 {
		options.QueueSize = DefaultQueueSize
	}
	if options.WriteWait == 0 && out.SampleRate > 0 {
		// One period of audio.
		options.WriteWait = time.Duration(options.BlockSize) * time.Second / time.Duration(out.SampleRate)
	}

	if options.Engine == nil {
		options.Engine = synth.New(
			synth.WithLogger(options.Logger),
			synth.WithQueueSize(options.QueueSize),
		)
	}
	if options.Sink == nil {
		options.Sink = otosink.New(otosink.WithLogger(options.Logger))
	}

	return *options, nil
}
