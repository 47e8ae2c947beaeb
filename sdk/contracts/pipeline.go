package contracts

import (
	"context"
	"io"
)

// Pipeline is a running two-core render loop bound to an engine and a sink.
type Pipeline interface {
	// Run renders periods until ctx is cancelled, the period limit is reached, or a
	// fatal error (synchronization stall, sink failure) occurs.
	Run(ctx context.Context) error
	// Stats returns a snapshot of the period and underrun counters.
	Stats() PipelineStats
	// Engine returns the engine the pipeline drives.
	Engine() Engine
	// Close releases the sink.
	Close() error
}

// Scheduler composes events and submits them to an engine's event queue.
type Scheduler interface {
	Submit(e Event) error
	Polyphony(start int64, patch int32) error
	LoadScore(r io.Reader, offset int64) (int, error)
	Follow(ctx context.Context, in <-chan MIDI)
}
