package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/leandrodaf/duosynth/internal/logger"
	"github.com/leandrodaf/duosynth/internal/sink/wavsink"
	"github.com/leandrodaf/duosynth/sdk/contracts"
	"github.com/leandrodaf/duosynth/sdk/midi"
	"github.com/leandrodaf/duosynth/sdk/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(6))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(2))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1))
)

func main() {
	out := flag.String("out", "", "write a WAV file instead of playing on the audio device")
	seconds := flag.Float64("seconds", 0, "stop after this many seconds of audio (0 runs until interrupted)")
	patch := flag.Int("patch", 0, "patch loaded on the polyphony voices")
	score := flag.String("score", "", "JSON score to play instead of the polyphony pattern")
	block := flag.Int("block", pipeline.DefaultBlockSize, "frames rendered per period")
	level := flag.String("log-level", "info", "debug, info, warn, error or fatal")
	device := flag.Int("midi", -1, "MIDI input device to follow (-1 disables live input)")
	pin := flag.String("pin", "", "pin the render cores, e.g. 2,3")
	stall := flag.Duration("stall", 0, "fail when the secondary core takes longer than this (0 waits forever)")
	flag.Parse()

	log := logger.NewZapLogger()
	if err := run(log, options{
		out: *out, seconds: *seconds, patch: *patch, score: *score, block: *block,
		level: *level, device: *device, pin: *pin, stall: *stall,
	}); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(" error ")+" "+err.Error())
		os.Exit(1)
	}
}

type options struct {
	out     string
	seconds float64
	patch   int
	score   string
	block   int
	level   string
	device  int
	pin     string
	stall   time.Duration
}

func (o options) validate() error {
	if o.block <= 0 {
		return fmt.Errorf("-block must be positive, got %d", o.block)
	}
	if o.seconds < 0 {
		return fmt.Errorf("-seconds must not be negative, got %g", o.seconds)
	}
	return nil
}

func run(log contracts.Logger, o options) error {
	if err := o.validate(); err != nil {
		return err
	}
	level, err := contracts.ParseLogLevel(o.level)
	if err != nil {
		return err
	}

	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithBlockSize(o.block),
		contracts.WithStallTimeout(o.stall),
	}
	var sink contracts.Sink
	if o.out != "" {
		if sink, err = wavsink.Create(o.out, wavsink.WithLogger(log)); err != nil {
			return err
		}
		opts = append(opts, contracts.WithSink(sink))
	}
	if o.seconds > 0 {
		periods := uint64(o.seconds * pipeline.DefaultSampleRate / float64(o.block))
		opts = append(opts, contracts.WithPeriods(max(periods, 1)))
	}
	if o.pin != "" {
		primary, secondary, err := parseCores(o.pin)
		if err != nil {
			return err
		}
		opts = append(opts, contracts.WithCoreAffinity(primary, secondary))
	}

	p, err := pipeline.NewPipeline(opts...)
	if err != nil {
		if sink != nil {
			_ = sink.Close()
		}
		return err
	}
	defer p.Close()

	engine := p.Engine()
	engine.ResetOscillators()
	sched := pipeline.NewScheduler(engine, log)

	// Leave the first half second for the device to settle.
	start := engine.SysClock() + 500
	if o.score != "" {
		f, err := os.Open(o.score)
		if err != nil {
			return err
		}
		_, err = sched.LoadScore(f, start)
		f.Close()
		if err != nil {
			return err
		}
	} else if err := sched.Polyphony(start, int32(o.patch)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if o.device >= 0 {
		input, err := midi.NewMIDIInput(contracts.WithMIDILogger(log), contracts.WithClock(engine.SysClock))
		if err != nil {
			return err
		}
		defer input.Stop()
		if err := input.SelectDevice(o.device); err != nil {
			return err
		}
		events := make(chan contracts.MIDI, 64)
		input.StartCapture(events)
		go sched.Follow(ctx, events)
	}

	fmt.Println(titleStyle.Render("duosynth") + " rendering on two cores, Ctrl+C to stop")
	began := time.Now()
	runErr := p.Run(ctx)
	printSummary(p.Stats(), time.Since(began), runErr)
	if errors.Is(runErr, pipeline.ErrSyncStall) {
		return fmt.Errorf("render cores lost synchronization: %w", runErr)
	}
	return runErr
}

func parseCores(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("-pin wants two CPU indices, got %q", s)
	}
	primary, errA := strconv.Atoi(strings.TrimSpace(a))
	secondary, errB := strconv.Atoi(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return 0, 0, fmt.Errorf("-pin wants two CPU indices, got %q", s)
	}
	return primary, secondary, nil
}

func printSummary(stats contracts.PipelineStats, elapsed time.Duration, err error) {
	status := okStyle.Render("ok")
	if err != nil {
		status = errStyle.Render(" failed ")
	}
	underruns := okStyle.Render("0")
	if stats.Underruns > 0 {
		underruns = warnStyle.Render(fmt.Sprintf("%d (last %d bytes)", stats.Underruns, stats.LastShort))
	}
	fmt.Println(titleStyle.Render("periods  ") + " " + strconv.FormatUint(stats.Periods, 10))
	fmt.Println(titleStyle.Render("underruns") + " " + underruns)
	fmt.Println(titleStyle.Render("elapsed  ") + " " + elapsed.Round(time.Millisecond).String())
	fmt.Println(titleStyle.Render("status   ") + " " + status)
}
