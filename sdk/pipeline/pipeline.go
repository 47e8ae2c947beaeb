// Package pipeline is the public entry point: it assembles an engine, an output sink
// and the two-core render loop from functional options.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/duosynth/internal/logger"
	renderloop "github.com/leandrodaf/duosynth/internal/pipeline"
	"github.com/leandrodaf/duosynth/internal/scheduler"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

var (
	// ErrEngineStart is returned when the engine rejects its configuration.
	ErrEngineStart = errors.New("engine start failed")
	// ErrSinkConfigure is returned when the output peripheral cannot be configured.
	ErrSinkConfigure = errors.New("output configuration failed")
	// ErrSyncStall is returned by Run when the secondary render core stops answering.
	ErrSyncStall = renderloop.ErrSyncStall
)

// NewPipeline starts the engine, configures the sink and returns a pipeline ready to Run.
// A configuration failure leaves nothing running.
//
// opts ...contracts.Option: A variadic list of option functions to customize the pipeline.
//
// Returns:
//   - contracts.Pipeline: The assembled render pipeline.
//   - error: An error wrapping ErrEngineStart or ErrSinkConfigure when assembly fails.
func NewPipeline(opts ...contracts.Option) (contracts.Pipeline, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	log := options.Logger

	engine := options.Engine
	if err := engine.Start(contracts.EngineConfig{
		Cores:       2,
		Voices:      options.Voices,
		Channels:    int(options.Output.Channels),
		Oscillators: options.Oscillators,
		BlockSize:   options.BlockSize,
		SampleRate:  options.Output.SampleRate,
	}); err != nil {
		log.Error("engine rejected its configuration", log.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %w", ErrEngineStart, err)
	}

	if err := options.Sink.Configure(options.Output); err != nil {
		log.Error("output configuration failed", log.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %w", ErrSinkConfigure, err)
	}

	p, err := renderloop.New(renderloop.Config{
		Engine:       engine,
		Sink:         options.Sink,
		Logger:       log,
		Ranges:       contracts.SplitRange(engine.Oscillators()),
		BlockBytes:   options.BlockSize * options.Output.BytesPerFrame(),
		WriteWait:    options.WriteWait,
		StallTimeout: options.StallTimeout,
		PinCores:     options.PinCores,
		Cores:        options.Cores,
		Periods:      options.Periods,
		OnUnderrun:   options.OnUnderrun,
	})
	if err != nil {
		_ = options.Sink.Close()
		return nil, err
	}
	return p, nil
}

// NewScheduler returns a scheduler feeding engine's event queue. A nil logger discards.
func NewScheduler(engine contracts.Engine, l contracts.Logger) contracts.Scheduler {
	if l == nil {
		l = logger.NewNop()
	}
	return scheduler.New(engine, scheduler.WithLogger(l))
}
