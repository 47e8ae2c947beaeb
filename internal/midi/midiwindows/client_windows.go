//go:build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/leandrodaf/duosynth/internal/midi"
	"github.com/leandrodaf/duosynth/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Errors reported by the winmm input.
var (
	ErrNoMIDIDevices  = errors.New("no MIDI devices found")
	ErrNoDevice       = errors.New("no MIDI device selected")
	ErrDeviceOpen     = errors.New("failed to open MIDI device")
	ErrDeviceStart    = errors.New("failed to start MIDI capture")
	ErrInvalidHandle  = errors.New("invalid MIDI device handle")
	ErrDeviceShutdown = errors.New("failed to stop MIDI device")
)

type hMIDIIn windows.Handle

// midiInOpen flags.
const (
	callbackFunction = 0x00030000
	midiIOStatus     = 0x00000020
)

// Messages delivered to the input callback.
const (
	mimOpen      = 0x3C1
	mimClose     = 0x3C2
	mimData      = 0x3C3
	mimError     = 0x3C5
	mimLongError = 0x3C6
	mimMoreData  = 0x3CC
)

// midiInCaps mirrors MIDIINCAPSW.
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// Callbacks identify their input by a registry key rather than a Go pointer.
var (
	callbackOnce sync.Once
	callback     uintptr
	nextID       atomic.Uintptr
	inputs       sync.Map // uintptr -> *Input
)

// Input captures live MIDI through winmm on Windows.
type Input struct {
	id       uintptr
	logger   contracts.Logger
	dispatch *midi.Dispatcher
	mu       sync.Mutex
	handle   hMIDIIn
	open     bool
	started  bool
}

// NewMIDIInput creates a winmm input.
func NewMIDIInput(options *contracts.MIDIOptions) (contracts.MIDIInput, error) {
	callbackOnce.Do(func() { callback = windows.NewCallback(midiInCallback) })

	m := &Input{
		id:       nextID.Add(1),
		logger:   options.Logger,
		dispatch: midi.NewDispatcher(options),
	}
	inputs.Store(m.id, m)
	options.Logger.Info("winmm MIDI input created")
	return m, nil
}

// ListDevices lists winmm input devices; ID is the device index.
func (m *Input) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := range numDevices {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn("failed to query MIDI device", m.logger.Field().Int("deviceID", int(i)))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			ID:           int(i),
			Name:         name,
			EntityName:   name,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// SelectDevice opens the device at deviceID, closing any previously opened one.
func (m *Input) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open {
		if err := m.closeDevice(); err != nil {
			return fmt.Errorf("failed to release previous MIDI device: %w", err)
		}
	}

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.handle)),
		uintptr(deviceID),
		callback,
		m.id,
		uintptr(callbackFunction|midiIOStatus),
	)
	if r1 != 0 {
		m.logger.Error(ErrDeviceOpen.Error(), m.logger.Field().Int("deviceID", deviceID), m.logger.Field().Error("error", err))
		return fmt.Errorf("%w %d: %w", ErrDeviceOpen, deviceID, err)
	}

	m.open = true
	m.logger.Info("MIDI device connected", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// StartCapture attaches eventChannel and starts the device.
func (m *Input) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open || m.handle == 0 {
		m.logger.Error(ErrNoDevice.Error())
		return
	}
	m.dispatch.Attach(eventChannel)
	if m.started {
		m.logger.Warn("capture already started; switching channel")
		return
	}

	r1, _, err := procMidiInStart.Call(uintptr(m.handle))
	if r1 != 0 {
		m.logger.Error(ErrDeviceStart.Error(), m.logger.Field().Error("error", err))
		return
	}
	m.started = true
	m.logger.Info("MIDI capture started")
}

// Stop stops capture and closes the device.
func (m *Input) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return nil
	}
	if err := m.closeDevice(); err != nil {
		return err
	}
	inputs.Delete(m.id)
	m.logger.Info("MIDI capture stopped and device closed")
	return nil
}

func (m *Input) closeDevice() error {
	if m.handle == 0 {
		return ErrInvalidHandle
	}
	m.dispatch.Detach()

	if r1, _, err := procMidiInStop.Call(uintptr(m.handle)); r1 != 0 {
		return fmt.Errorf("%w: %w", ErrDeviceShutdown, err)
	}
	if r1, _, err := procMidiInClose.Call(uintptr(m.handle)); r1 != 0 {
		return fmt.Errorf("%w: %w", ErrDeviceShutdown, err)
	}

	m.open = false
	m.started = false
	m.handle = 0
	return nil
}

func midiInCallback(_ uintptr, wMsg uint32, dwInstance, dwParam1, _ uintptr) uintptr {
	v, ok := inputs.Load(dwInstance)
	if !ok {
		return 0
	}
	m := v.(*Input)

	switch wMsg {
	case mimData:
		m.dispatch.Message(byte(dwParam1), byte(dwParam1>>8), byte(dwParam1>>16))
	case mimOpen, mimClose:
		m.logger.Debug("MIDI device state changed", m.logger.Field().Uint64("message", uint64(wMsg)))
	case mimError, mimLongError:
		m.logger.Error("MIDI driver reported an error", m.logger.Field().Uint64("message", uint64(wMsg)))
	case mimMoreData:
	default:
		m.logger.Warn("unknown MIDI message", m.logger.Field().Uint64("message", uint64(wMsg)))
	}
	return 0
}
