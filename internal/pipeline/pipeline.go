// Package pipeline runs the two-core render loop.
//
// Each period the primary goroutine prepares the engine, wakes the secondary worker,
// renders the first half of the oscillator pool while the worker renders the second,
// waits for the worker, finalizes the block and streams it to the sink. Periods are
// strictly sequential; only the two half-renders overlap.
package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/duosynth/internal/affinity"
	"github.com/leandrodaf/duosynth/internal/signal"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

var (
	// ErrSyncStall is returned by Run when the secondary worker does not signal
	// completion within the configured stall timeout.
	ErrSyncStall = errors.New("secondary render worker stalled")
	// ErrAlreadyRunning is returned when Run is called on a running pipeline.
	ErrAlreadyRunning = errors.New("pipeline already running")
	// ErrSinkWrite is returned by Run when the sink fails outright.
	ErrSinkWrite = errors.New("sink write failed")
	// ErrBlockSize is returned by Run when the engine finalizes a block of the wrong length.
	ErrBlockSize = errors.New("finalized block does not match the configured block size")
)

const (
	primary   = 0
	secondary = 1
)

// Config wires a pipeline to its collaborators.
type Config struct {
	Engine       contracts.Engine
	Sink         contracts.Sink
	Logger       contracts.Logger
	Ranges       [2]contracts.OscRange // Primary and secondary render ranges.
	BlockBytes   int                   // Size of one encoded block.
	WriteWait    time.Duration
	StallTimeout time.Duration
	PinCores     bool
	Cores        [2]int
	Periods      uint64
	OnUnderrun   func(contracts.Underrun)
}

// Pipeline implements contracts.Pipeline.
type Pipeline struct {
	cfg   Config
	start *signal.Signal
	done  *signal.Signal
	buf   []byte

	running   atomic.Bool
	stalled   atomic.Bool
	periods   atomic.Uint64
	underruns atomic.Uint64
	lastShort atomic.Int64
}

// New validates cfg and returns an idle pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Engine == nil || cfg.Sink == nil || cfg.Logger == nil {
		return nil, errors.New("pipeline requires an engine, a sink and a logger")
	}
	if err := contracts.ValidatePartition(cfg.Ranges, cfg.Engine.Oscillators()); err != nil {
		return nil, err
	}
	if cfg.BlockBytes <= 0 || cfg.BlockBytes%2 != 0 {
		return nil, fmt.Errorf("invalid block size %d bytes", cfg.BlockBytes)
	}
	return &Pipeline{
		cfg:   cfg,
		start: signal.New(),
		done:  signal.New(),
		buf:   make([]byte, cfg.BlockBytes),
	}, nil
}

// Engine returns the engine driven by the pipeline.
func (p *Pipeline) Engine() contracts.Engine { return p.cfg.Engine }

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() contracts.PipelineStats {
	return contracts.PipelineStats{
		Periods:   p.periods.Load(),
		Underruns: p.underruns.Load(),
		LastShort: int(p.lastShort.Load()),
	}
}

// Close releases the sink.
func (p *Pipeline) Close() error {
	return p.cfg.Sink.Close()
}

// Run starts the secondary worker and runs the primary loop on the calling goroutine
// until ctx is cancelled, the period limit is reached, or a fatal error occurs.
// Cancellation is observed between periods.
func (p *Pipeline) Run(ctx context.Context) error {
	if p.stalled.Load() {
		return ErrSyncStall
	}
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	// The worker outlives ctx: it is stopped only once the primary loop can no longer
	// send it a start signal.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.secondary(workerCtx)
	}()
	defer func() {
		stopWorker()
		if !p.stalled.Load() {
			wg.Wait()
		}
	}()

	unlock := p.bind(primary)
	defer unlock()

	log := p.cfg.Logger
	log.Info("render pipeline started",
		log.Field().String("primaryRange", p.cfg.Ranges[primary].String()),
		log.Field().String("secondaryRange", p.cfg.Ranges[secondary].String()),
		log.Field().Int("blockBytes", p.cfg.BlockBytes))

	for {
		if err := ctx.Err(); err != nil {
			log.Info("render pipeline stopped", log.Field().Uint64("periods", p.periods.Load()))
			return nil
		}
		if p.cfg.Periods > 0 && p.periods.Load() >= p.cfg.Periods {
			log.Info("render pipeline reached its period limit", log.Field().Uint64("periods", p.cfg.Periods))
			return nil
		}
		if err := p.period(); err != nil {
			return err
		}
	}
}

// period renders, finalizes and streams one block.
func (p *Pipeline) period() error {
	engine := p.cfg.Engine
	n := p.periods.Load()

	engine.PrepareBuffer()
	p.start.Notify()
	engine.Render(p.cfg.Ranges[primary], primary)

	if !p.done.WaitTimeout(p.cfg.StallTimeout) {
		p.stalled.Store(true)
		p.cfg.Logger.Error("secondary render worker did not finish",
			p.cfg.Logger.Field().Uint64("period", n),
			p.cfg.Logger.Field().Duration("timeout", p.cfg.StallTimeout))
		return fmt.Errorf("%w: period %d, waited %s", ErrSyncStall, n, p.cfg.StallTimeout)
	}

	block := engine.FinalizeBuffer()
	if 2*len(block) != len(p.buf) {
		return fmt.Errorf("%w: got %d samples, want %d", ErrBlockSize, len(block), len(p.buf)/2)
	}
	encode(p.buf, block)

	written, err := p.cfg.Sink.Write(p.buf, p.cfg.WriteWait)
	p.periods.Add(1)
	if err != nil {
		p.cfg.Logger.Error("sink write failed", p.cfg.Logger.Field().Error("error", err))
		return fmt.Errorf("%w: %w", ErrSinkWrite, err)
	}
	if written < len(p.buf) {
		p.underrun(n, written)
	}
	return nil
}

// underrun reports a short write. The rest of the block is dropped; the next period
// starts from a fresh full-size buffer.
func (p *Pipeline) underrun(n uint64, written int) {
	p.underruns.Add(1)
	p.lastShort.Store(int64(written))
	p.cfg.Logger.Warn("audio underrun",
		p.cfg.Logger.Field().Uint64("period", n),
		p.cfg.Logger.Field().Int("written", written),
		p.cfg.Logger.Field().Int("requested", len(p.buf)))
	if p.cfg.OnUnderrun != nil {
		p.cfg.OnUnderrun(contracts.Underrun{Period: n, Written: written, Requested: len(p.buf)})
	}
}

// bind locks the calling goroutine to its thread and, when configured, pins it to the
// core assigned to role. The returned function undoes the binding.
//
// A pinned thread must not go back to the runtime's pool with the render mask and
// priority. The secondary worker keeps its thread locked, so the thread exits with
// the worker. The primary runs on the caller's goroutine and restores the thread's
// previous state before unlocking.
func (p *Pipeline) bind(role int) func() {
	unlock := affinity.Lock()
	if !p.cfg.PinCores {
		return unlock
	}
	log := p.cfg.Logger
	if role == secondary {
		p.pin(role)
		return func() {}
	}

	saved, err := affinity.Save()
	if err != nil {
		log.Warn("could not save render thread state, leaving it unpinned", log.Field().Error("error", err))
		return unlock
	}
	p.pin(role)
	return func() {
		if err := saved.Restore(); err != nil {
			// Stay locked: the thread is retired when the calling goroutine exits.
			log.Warn("could not restore render thread state", log.Field().Error("error", err))
			return
		}
		unlock()
	}
}

func (p *Pipeline) pin(role int) {
	log := p.cfg.Logger
	cpu := p.cfg.Cores[role]
	if err := affinity.Pin(cpu); err != nil {
		log.Warn("could not pin render thread", log.Field().Int("cpu", cpu), log.Field().Error("error", err))
	}
	if err := affinity.Boost(); err != nil {
		log.Debug("could not raise render thread priority", log.Field().Error("error", err))
	}
}

// encode writes block into dst as little-endian 16-bit samples.
func encode(dst []byte, block contracts.Block) {
	for i, s := range block {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(s))
	}
}
