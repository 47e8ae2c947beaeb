package wavsink

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

func stereo() contracts.OutputConfig {
	return contracts.OutputConfig{
		SampleRate: 22050,
		BitDepth:   16,
		Channels:   contracts.Stereo,
		Pins:       contracts.PinConfig{BCLK: contracts.PinUnused, LRCLK: contracts.PinUnused, DOUT: contracts.PinUnused},
	}
}

func TestSink_RoundTripThroughDecoder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	s, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Configure(stereo()); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	samples := []int16{0, 1, -1, 32767, -32767, 1234, -4321, 7}
	block := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(block[2*i:], uint16(v))
	}
	for range 3 {
		n, err := s.Write(block, 0)
		if err != nil || n != len(block) {
			t.Fatalf("Write() = %d, %v, want %d, nil", n, err, len(block))
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("decoder rejected the file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if buf.Format.SampleRate != 22050 || buf.Format.NumChannels != 2 {
		t.Errorf("format = %+v, want 22050 Hz stereo", *buf.Format)
	}
	if len(buf.Data) != 3*len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), 3*len(samples))
	}
	for i, got := range buf.Data {
		if want := int(samples[i%len(samples)]); got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}

func TestSink_WriteBeforeConfigure(t *testing.T) {
	t.Parallel()

	s, err := Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Write([]byte{0, 0}, 0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Write() error = %v, want ErrNotConfigured", err)
	}
}

func TestSink_ConfigureRejectsDuplicatePins(t *testing.T) {
	t.Parallel()

	cfg := stereo()
	cfg.Pins = contracts.PinConfig{BCLK: 26, LRCLK: 26, DOUT: 22}

	s, err := Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Configure(cfg); !errors.Is(err, contracts.ErrInvalidOutputConfig) {
		t.Errorf("Configure() error = %v, want ErrInvalidOutputConfig", err)
	}
}
