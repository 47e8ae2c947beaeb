//go:build headless

package otosink

import (
	"io"
	"time"

	"github.com/leandrodaf/duosynth/sdk/contracts"
)

type device struct{}

func openDevice(contracts.OutputConfig, time.Duration, io.Reader) (*device, error) {
	return nil, ErrUnsupported
}

func (*device) close() error { return nil }
