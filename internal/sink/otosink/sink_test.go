package otosink

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/leandrodaf/duosynth/sdk/contracts"
)

func TestStream_ShortWriteAfterWait(t *testing.T) {
	t.Parallel()

	s := newStream(8)
	begin := time.Now()
	n := s.write([]byte("0123456789"), 20*time.Millisecond)
	if n != 8 {
		t.Fatalf("write() = %d, want 8 accepted", n)
	}
	if waited := time.Since(begin); waited < 20*time.Millisecond {
		t.Errorf("write() returned after %s, want it to wait for the device", waited)
	}
}

func TestStream_NoWaitReturnsImmediately(t *testing.T) {
	t.Parallel()

	s := newStream(4)
	if n := s.write([]byte("abcdef"), 0); n != 4 {
		t.Errorf("write() = %d, want 4", n)
	}
}

func TestStream_WriterResumesWhenDeviceDrains(t *testing.T) {
	t.Parallel()

	s := newStream(8)
	s.write([]byte("abcdefgh"), 0)

	go func() {
		time.Sleep(5 * time.Millisecond)
		buf := make([]byte, 4)
		_, _ = s.Read(buf)
	}()

	if n := s.write([]byte("ijkl"), time.Second); n != 4 {
		t.Fatalf("write() = %d, want the full 4 bytes once the device drained", n)
	}
	out := make([]byte, 8)
	if _, err := s.Read(out); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(out, []byte("efghijkl")) {
		t.Errorf("Read() = %q, want %q", out, "efghijkl")
	}
}

func TestStream_ReadPadsWithSilence(t *testing.T) {
	t.Parallel()

	s := newStream(8)
	s.write([]byte{1, 2}, 0)

	out := []byte{9, 9, 9, 9}
	n, err := s.Read(out)
	if err != nil || n != 4 {
		t.Fatalf("Read() = %d, %v, want 4, nil", n, err)
	}
	if !bytes.Equal(out, []byte{1, 2, 0, 0}) {
		t.Errorf("Read() = %v, want [1 2 0 0]", out)
	}
	if got := s.starve.Load(); got != 1 {
		t.Errorf("starved reads = %d, want 1", got)
	}
}

func TestSink_WriteBeforeConfigure(t *testing.T) {
	t.Parallel()

	if _, err := New().Write([]byte{0, 0}, 0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Write() error = %v, want ErrNotConfigured", err)
	}
}

func TestSink_ConfigureRejectsInvalidOutput(t *testing.T) {
	t.Parallel()

	cfg := contracts.OutputConfig{SampleRate: 44100, BitDepth: 24, Channels: contracts.Stereo}
	if err := New().Configure(cfg); !errors.Is(err, contracts.ErrInvalidOutputConfig) {
		t.Errorf("Configure() error = %v, want ErrInvalidOutputConfig", err)
	}
}

func TestSink_CloseUnconfigured(t *testing.T) {
	t.Parallel()

	if err := New().Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
