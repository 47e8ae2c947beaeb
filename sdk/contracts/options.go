package contracts

import "time"

// PipelineOptions defines the configuration options for the render pipeline.
type PipelineOptions struct {
	Logger       Logger         // Logger for lifecycle, underrun and stall reports.
	LogLevel     LogLevel       // Level of logging to use.
	LogFilePath  string         // File path for logging if file logging is enabled.
	Engine       Engine         // Synthesis engine; the built-in oscillator bank when nil.
	Sink         Sink           // Output sink; the host audio device when nil.
	Output       OutputConfig   // Peripheral clocking and routing.
	BlockSize    int            // Frames per period.
	Oscillators  int            // Oscillator pool size, split in half between the cores.
	Voices       int            // Addressable voices.
	QueueSize    int            // Event queue capacity.
	WriteWait    time.Duration  // Bound on each sink write; zero derives it from the period length.
	StallTimeout time.Duration  // Bound on waiting for the secondary core; zero waits forever.
	PinCores     bool           // Pin the render goroutines to Cores.
	Cores        [2]int         // CPU indices for the primary and secondary render goroutines.
	Periods      uint64         // Stop after this many periods; zero runs until cancelled.
	OnUnderrun   func(Underrun) // Called on the render goroutine after each short write.
}

// Option is a function that modifies PipelineOptions.
type Option func(*PipelineOptions)

// WithLogger sets the logger for the pipeline.
func WithLogger(l Logger) Option {
	return func(opts *PipelineOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the pipeline.
func WithLogLevel(level LogLevel) Option {
	return func(opts *PipelineOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs logs to a file instead of the console.
func WithLogFile(path string) Option {
	return func(opts *PipelineOptions) {
		opts.LogFilePath = path
	}
}

// WithEngine replaces the built-in synthesis engine.
func WithEngine(e Engine) Option {
	return func(opts *PipelineOptions) {
		opts.Engine = e
	}
}

// WithSink sets the output sink.
func WithSink(s Sink) Option {
	return func(opts *PipelineOptions) {
		opts.Sink = s
	}
}

// WithOutput sets the output peripheral configuration. Zero fields take the
// defaults. A zero PinConfig means no pins are routed: it could never pass
// validation, since every pin would share line 0. Mark individual lines that stay
// unrouted with PinUnused.
func WithOutput(cfg OutputConfig) Option {
	return func(opts *PipelineOptions) {
		opts.Output = cfg
	}
}

// WithBlockSize sets the number of frames rendered per period.
func WithBlockSize(frames int) Option {
	return func(opts *PipelineOptions) {
		opts.BlockSize = frames
	}
}

// WithOscillators sets the oscillator pool size and voice count.
func WithOscillators(oscillators, voices int) Option {
	return func(opts *PipelineOptions) {
		opts.Oscillators = oscillators
		opts.Voices = voices
	}
}

// WithQueueSize sets the event queue capacity.
func WithQueueSize(n int) Option {
	return func(opts *PipelineOptions) {
		opts.QueueSize = n
	}
}

// WithWriteWait bounds each sink write.
func WithWriteWait(d time.Duration) Option {
	return func(opts *PipelineOptions) {
		opts.WriteWait = d
	}
}

// WithStallTimeout makes the pipeline fail with ErrSyncStall when the secondary
// core does not finish within d.
func WithStallTimeout(d time.Duration) Option {
	return func(opts *PipelineOptions) {
		opts.StallTimeout = d
	}
}

// WithCoreAffinity pins the primary and secondary render goroutines to the given CPUs.
func WithCoreAffinity(primary, secondary int) Option {
	return func(opts *PipelineOptions) {
		opts.PinCores = true
		opts.Cores = [2]int{primary, secondary}
	}
}

// WithPeriods stops the pipeline after n periods.
func WithPeriods(n uint64) Option {
	return func(opts *PipelineOptions) {
		opts.Periods = n
	}
}

// WithUnderrunHandler registers a callback invoked after every short write.
func WithUnderrunHandler(fn func(Underrun)) Option {
	return func(opts *PipelineOptions) {
		opts.OnUnderrun = fn
	}
}
