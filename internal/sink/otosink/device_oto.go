//go:build !headless

package otosink

import (
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/leandrodaf/duosynth/sdk/contracts"
)

type device struct {
	ctx    *oto.Context
	player *oto.Player
}

func openDevice(cfg contracts.OutputConfig, latency time.Duration, src io.Reader) (*device, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: int(cfg.Channels),
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()
	return &device{ctx: ctx, player: player}, nil
}

func (d *device) close() error {
	if err := d.player.Close(); err != nil {
		return err
	}
	return d.ctx.Suspend()
}
