package otosink

import (
	"sync/atomic"
	"time"

	"github.com/leandrodaf/duosynth/internal/signal"
	"github.com/leandrodaf/duosynth/internal/sink/ring"
)

// stream sits between the render pipeline and the device callback. The pipeline
// pushes whole blocks; the device pulls whatever it needs and wakes a blocked writer.
type stream struct {
	ring   *ring.Buffer
	space  *signal.Signal
	starve atomic.Uint64
}

func newStream(size int) *stream {
	return &stream{ring: ring.New(size), space: signal.New()}
}

// write copies p into the ring, waiting up to wait for the device to free space.
// It returns how many bytes were accepted.
func (s *stream) write(p []byte, wait time.Duration) int {
	n := s.ring.Write(p)
	if n == len(p) || wait <= 0 {
		return n
	}

	deadline := time.Now().Add(wait)
	for n < len(p) {
		left := time.Until(deadline)
		if left <= 0 || !s.space.WaitTimeout(left) {
			break
		}
		n += s.ring.Write(p[n:])
	}
	return n
}

// Read implements io.Reader for the oto player. Missing bytes are played as silence.
func (s *stream) Read(p []byte) (int, error) {
	n := s.ring.Read(p)
	if n < len(p) {
		clear(p[n:])
		s.starve.Add(1)
	}
	if n > 0 {
		s.space.Notify()
	}
	return len(p), nil
}
