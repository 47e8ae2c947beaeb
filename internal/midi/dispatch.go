// Package midi holds the platform-independent half of live MIDI capture: decoding
// raw messages, stamping them with the render clock, filtering and delivering them
// to the capture channel without ever blocking the driver callback.
package midi

import (
	"errors"
	"sync"

	"github.com/leandrodaf/duosynth/sdk/contracts"
)

// ErrIncompleteMIDIPacket is reported when a packet ends in the middle of a message.
var ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")

// Dispatcher turns raw MIDI bytes into contracts.MIDI values on a capture channel.
type Dispatcher struct {
	logger contracts.Logger
	filter *contracts.MIDIEventFilter
	clock  func() int64

	mu sync.RWMutex
	ch chan contracts.MIDI
}

// NewDispatcher builds a dispatcher from the input options. A nil clock stamps zero.
func NewDispatcher(options *contracts.MIDIOptions) *Dispatcher {
	clock := options.Clock
	if clock == nil {
		clock = func() int64 { return 0 }
	}
	return &Dispatcher{
		logger: options.Logger,
		filter: options.MIDIEventFilter,
		clock:  clock,
	}
}

// Attach starts delivering to ch. It replaces any previous channel.
func (d *Dispatcher) Attach(ch chan contracts.MIDI) {
	d.mu.Lock()
	d.ch = ch
	d.mu.Unlock()
}

// Detach stops delivery. It returns once no delivery is in flight.
func (d *Dispatcher) Detach() {
	d.mu.Lock()
	d.ch = nil
	d.mu.Unlock()
}

// Attached reports whether a capture channel is set.
func (d *Dispatcher) Attached() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ch != nil
}

// Packet walks a buffer of complete channel messages. System messages end the walk.
func (d *Dispatcher) Packet(data []byte) {
	for len(data) > 0 {
		status := data[0]
		if status < 0x80 || status >= 0xF0 {
			d.logger.Debug("skipping non-channel MIDI data", d.logger.Field().Uint8("status", status))
			return
		}
		n := 3
		if c := status & 0xF0; c == 0xC0 || c == 0xD0 {
			n = 2
		}
		if len(data) < n {
			d.logger.Warn(ErrIncompleteMIDIPacket.Error(), d.logger.Field().Int("bytes", len(data)))
			return
		}
		var data2 byte
		if n == 3 {
			data2 = data[2]
		}
		d.Message(status, data[1], data2)
		data = data[n:]
	}
}

// Message stamps, filters and delivers one channel message. A full channel drops the
// message with a warning.
func (d *Dispatcher) Message(status, data1, data2 byte) {
	event := contracts.MIDI{
		Timestamp: d.clock(),
		Command:   status & 0xF0,
		Channel:   status & 0x0F,
		Note:      data1,
		Velocity:  data2,
	}
	if !d.filter.Allows(event.Command) {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.ch == nil {
		return
	}
	select {
	case d.ch <- event:
	default:
		d.logger.Warn("MIDI event channel is full; event discarded",
			d.logger.Field().Uint8("command", event.Command),
			d.logger.Field().Uint8("note", event.Note))
	}
}
