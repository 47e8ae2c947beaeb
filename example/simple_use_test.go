package main

import (
	"testing"

	"github.com/leandrodaf/duosynth/internal/logger"
)

func TestRun_RejectsBadFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		o    options
	}{
		{"zero block", options{block: 0, seconds: 1, level: "info"}},
		{"negative block", options{block: -64, level: "info"}},
		{"negative seconds", options{block: 256, seconds: -1, level: "info"}},
		{"unknown level", options{block: 256, level: "loud"}},
	}
	for _, tt := range tests {
		if err := run(logger.NewNop(), tt.o); err == nil {
			t.Errorf("%s: run() error = nil, want a flag error", tt.name)
		}
	}
}

func TestParseCores(t *testing.T) {
	t.Parallel()

	a, b, err := parseCores("2, 3")
	if err != nil || a != 2 || b != 3 {
		t.Errorf("parseCores(2, 3) = %d, %d, %v", a, b, err)
	}
	for _, in := range []string{"2", "a,b", ""} {
		if _, _, err := parseCores(in); err == nil {
			t.Errorf("parseCores(%q) error = nil", in)
		}
	}
}
