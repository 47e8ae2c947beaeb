// Package ring provides a lock-free single-producer, single-consumer byte ring.
//
// The producer is the render pipeline's primary core, the consumer is the audio
// device callback. Both positions grow monotonically; the capacity is a power of
// two so a position maps to a slot with a mask.
//
// Write and Free belong to the producer. Read and Available belong to the consumer.
package ring

import "sync/atomic"

// Buffer is a single-producer, single-consumer byte ring.
type Buffer struct {
	// Producer and consumer positions live on separate cache lines.
	writePos atomic.Uint64
	_        [56]byte
	readPos  atomic.Uint64
	_        [56]byte

	buf  []byte
	mask uint64
}

// New returns a ring holding at least minSize bytes, rounded up to a power of two.
func New(minSize int) *Buffer {
	size := 1
	for size < minSize {
		size <<= 1
	}
	return &Buffer{
		buf:  make([]byte, size),
		mask: uint64(size - 1),
	}
}

// Write copies as much of p as fits and returns the count. It never blocks.
func (b *Buffer) Write(p []byte) int {
	w := b.writePos.Load()
	r := b.readPos.Load()

	free := uint64(len(b.buf)) - (w - r)
	n := min(uint64(len(p)), free)
	if n == 0 {
		return 0
	}

	pos := w & b.mask
	first := uint64(len(b.buf)) - pos
	if first >= n {
		copy(b.buf[pos:pos+n], p[:n])
	} else {
		copy(b.buf[pos:], p[:first])
		copy(b.buf[:n-first], p[first:n])
	}

	b.writePos.Store(w + n)
	return int(n)
}

// Read copies up to len(p) buffered bytes into p and returns the count. It never blocks.
func (b *Buffer) Read(p []byte) int {
	r := b.readPos.Load()
	w := b.writePos.Load()

	n := min(uint64(len(p)), w-r)
	if n == 0 {
		return 0
	}

	pos := r & b.mask
	first := uint64(len(b.buf)) - pos
	if first >= n {
		copy(p[:n], b.buf[pos:pos+n])
	} else {
		copy(p[:first], b.buf[pos:])
		copy(p[first:n], b.buf[:n-first])
	}

	b.readPos.Store(r + n)
	return int(n)
}

// Available returns the number of buffered bytes.
func (b *Buffer) Available() int {
	return int(b.writePos.Load() - b.readPos.Load())
}

// Free returns the number of bytes Write can accept right now.
func (b *Buffer) Free() int {
	return len(b.buf) - b.Available()
}

// Cap returns the ring capacity.
func (b *Buffer) Cap() int { return len(b.buf) }
