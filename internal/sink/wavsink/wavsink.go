// Package wavsink renders the pipeline output into a 16-bit PCM WAV file. It accepts
// every byte, so it never reports an underrun.
package wavsink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// ErrNotConfigured is returned by Write before Configure.
var ErrNotConfigured = errors.New("wav sink not configured")

const pcmFormat = 1

// Sink implements contracts.Sink on a WAV encoder.
type Sink struct {
	w      io.WriteSeeker
	owned  io.Closer
	logger contracts.Logger

	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	samples uint64
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger sets the sink logger.
func WithLogger(l contracts.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// New returns a sink encoding into w. The caller keeps ownership of w.
func New(w io.WriteSeeker, opts ...Option) *Sink {
	s := &Sink{w: w, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create returns a sink writing to a new file at path. Close closes the file.
func Create(path string, opts ...Option) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav file: %w", err)
	}
	s := New(f, opts...)
	s.owned = f
	return s, nil
}

// Configure writes nothing yet; the header is produced by Close.
func (s *Sink) Configure(cfg contracts.OutputConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.enc = wav.NewEncoder(s.w, cfg.SampleRate, cfg.BitDepth, int(cfg.Channels), pcmFormat)
	s.buf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: int(cfg.Channels), SampleRate: cfg.SampleRate},
		SourceBitDepth: cfg.BitDepth,
	}
	s.logger.Info("wav sink configured",
		s.logger.Field().Int("sampleRate", cfg.SampleRate),
		s.logger.Field().Int("channels", int(cfg.Channels)))
	return nil
}

// Write encodes p, a run of little-endian 16-bit samples.
func (s *Sink) Write(p []byte, _ time.Duration) (int, error) {
	if s.enc == nil {
		return 0, ErrNotConfigured
	}
	n := len(p) / 2
	if cap(s.buf.Data) < n {
		s.buf.Data = make([]int, n)
	}
	s.buf.Data = s.buf.Data[:n]
	for i := range n {
		s.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(p[2*i:])))
	}
	if err := s.enc.Write(s.buf); err != nil {
		return 0, fmt.Errorf("encode wav: %w", err)
	}
	s.samples += uint64(n)
	return len(p), nil
}

// Close finalizes the WAV header and closes the file when the sink created it.
func (s *Sink) Close() error {
	var errs []error
	if s.enc != nil {
		errs = append(errs, s.enc.Close())
		s.logger.Info("wav sink closed", s.logger.Field().Uint64("samples", s.samples))
		s.enc = nil
	}
	if s.owned != nil {
		errs = append(errs, s.owned.Close())
		s.owned = nil
	}
	return errors.Join(errs...)
}
