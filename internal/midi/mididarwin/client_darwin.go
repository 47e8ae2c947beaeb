//go:build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/duosynth/internal/midi"
	"github.com/leandrodaf/duosynth/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
)

// portConnection is the part of a CoreMIDI port connection the input needs.
type portConnection interface {
	Disconnect()
}

// Input captures live MIDI from a CoreMIDI source on macOS.
type Input struct {
	logger    contracts.Logger
	client    coremidi.Client    // CoreMIDI client owning the input port.
	inputPort coremidi.InputPort // Port created on the first SelectDevice.
	portConn  portConnection     // Connection to the selected source.
	dispatch  *midi.Dispatcher
	mu        sync.Mutex
	stopOnce  sync.Once
}

// NewMIDIInput creates a CoreMIDI client named after options.CoreMIDIConfig.
func NewMIDIInput(options *contracts.MIDIOptions) (contracts.MIDIInput, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client created",
		options.Logger.Field().String("clientName", options.CoreMIDIConfig.ClientName))

	return &Input{
		logger:   options.Logger,
		client:   client,
		dispatch: midi.NewDispatcher(options),
	}, nil
}

// ListDevices returns every CoreMIDI source; ID is the index accepted by SelectDevice.
func (m *Input) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to the source at deviceID, dropping any previous connection.
func (m *Input) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("%w: %d", ErrInvalidMIDIDevice, deviceID)
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.inputPort, err = coremidi.NewInputPort(m.client, "duosynth input", m.handlePacket)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateInputPort, err)
	}
	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device connected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))
	return nil
}

func (m *Input) handlePacket(_ coremidi.Source, packet coremidi.Packet) {
	m.dispatch.Packet(packet.Data)
}

// StartCapture delivers captured messages to eventChannel until Stop.
func (m *Input) StartCapture(eventChannel chan contracts.MIDI) {
	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.dispatch.Attached() {
		m.logger.Warn("capture already started; switching channel")
	}
	m.dispatch.Attach(eventChannel)
	m.logger.Info("MIDI capture started")
}

// Stop disconnects the source and waits for in-flight deliveries. Later calls are no-ops.
func (m *Input) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.portConn != nil {
			m.portConn.Disconnect()
			m.portConn = nil
		}
		m.dispatch.Detach()
		m.logger.Info("MIDI capture stopped")
	})
	return nil
}
