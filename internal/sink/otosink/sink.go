// Package otosink streams rendered blocks to the host audio device through oto.
//
// Build with -tags headless to get a sink that refuses to configure, for machines
// without an audio stack.
package otosink

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

var (
	// ErrUnsupported is returned by Configure in headless builds.
	ErrUnsupported = errors.New("audio output not available in this build")
	// ErrNotConfigured is returned by Write before a successful Configure.
	ErrNotConfigured = errors.New("audio sink not configured")
)

// DefaultLatency is the amount of audio buffered between the pipeline and the device.
const DefaultLatency = 100 * time.Millisecond

// Sink implements contracts.Sink on the host audio device. The underlying oto context
// is process wide, so Configure succeeds at most once per process.
type Sink struct {
	mu      sync.Mutex
	logger  contracts.Logger
	latency time.Duration
	stream  *stream
	dev     *device
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the sink logger.
func WithLogger(l contracts.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// WithLatency sets how much audio the ring holds ahead of the device.
func WithLatency(d time.Duration) Option {
	return func(s *Sink) { s.latency = d }
}

// New returns an unconfigured sink.
func New(opts ...Option) *Sink {
	s := &Sink{logger: logger.NewNop(), latency: DefaultLatency}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure validates cfg and opens the device.
func (s *Sink) Configure(cfg contracts.OutputConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev != nil {
		return errors.New("audio sink already configured")
	}

	if cfg.Pins != (contracts.PinConfig{BCLK: contracts.PinUnused, LRCLK: contracts.PinUnused, DOUT: contracts.PinUnused}) {
		s.logger.Debug("host audio sink ignores pin routing")
	}

	bytes := int(s.latency.Seconds()*float64(cfg.SampleRate)) * cfg.BytesPerFrame()
	st := newStream(max(bytes, cfg.BytesPerFrame()))
	dev, err := openDevice(cfg, s.latency, st)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	s.stream, s.dev = st, dev

	s.logger.Info("audio sink configured",
		s.logger.Field().Int("sampleRate", cfg.SampleRate),
		s.logger.Field().Int("channels", int(cfg.Channels)),
		s.logger.Field().Int("ringBytes", st.ring.Cap()),
		s.logger.Field().Duration("latency", s.latency))
	return nil
}

// Write queues p for playback, waiting up to wait for room. A short count means the
// device did not drain fast enough.
func (s *Sink) Write(p []byte, wait time.Duration) (int, error) {
	st := s.stream
	if st == nil {
		return 0, ErrNotConfigured
	}
	return st.write(p, wait), nil
}

// Close stops playback.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	if s.stream != nil {
		s.logger.Debug("audio sink closing", s.logger.Field().Uint64("starvedReads", s.stream.starve.Load()))
	}
	err := s.dev.close()
	s.dev = nil
	return err
}
