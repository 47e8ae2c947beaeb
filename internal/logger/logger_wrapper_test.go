package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/leandrodaf/duosynth/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_FieldsReachCore(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Warn("audio underrun",
		log.Field().Int("written", 512),
		log.Field().Uint64("period", 7),
		log.Field().Duration("wait", 5*time.Millisecond),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.FilterMessage("audio underrun").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["written"] != int64(512) {
		t.Errorf("written = %v, want 512", ctx["written"])
	}
	if ctx["period"] != uint64(7) {
		t.Errorf("period = %v, want 7", ctx["period"])
	}
	if ctx["wait"] != 5*time.Millisecond {
		t.Errorf("wait = %v, want 5ms", ctx["wait"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error = %v, want boom", ctx["error"])
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("level = %v, want warn", entries[0].Level)
	}
}

func TestZapLogger_SetLevelFilters(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))
	log.SetLevel(contracts.WarnLevel)

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error")

	if got := logs.Len(); got != 2 {
		t.Fatalf("logged %d entries, want 2", got)
	}
	if logs.FilterMessage("info").Len() != 0 {
		t.Error("info entry passed a warn-level logger")
	}
}

func TestZapLogger_NopDiscards(t *testing.T) {
	t.Parallel()

	log := NewNop()
	log.Info("ignored", log.Field().String("k", "v"))
	log.SetLevel(contracts.DebugLevel)
	log.Debug("ignored")
}

func TestToZapLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   contracts.LogLevel
		want zapcore.Level
	}{
		{contracts.DebugLevel, zapcore.DebugLevel},
		{contracts.InfoLevel, zapcore.InfoLevel},
		{contracts.WarnLevel, zapcore.WarnLevel},
		{contracts.ErrorLevel, zapcore.ErrorLevel},
		{contracts.FatalLevel, zapcore.FatalLevel},
	}
	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
