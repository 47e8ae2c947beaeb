package contracts

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

// MIDI represents a captured MIDI message stamped with the render clock.
type MIDI struct {
	Timestamp int64 // Timestamp is the clock value, in milliseconds, when the message arrived.
	Command   byte  // Command is the status byte with the channel nibble cleared.
	Channel   byte  // Channel is the zero-based MIDI channel.
	Note      byte  // Note represents the MIDI note number (0-127).
	Velocity  byte  // Velocity indicates the strength of the note being played (0-127).
}

// IsNoteOn reports whether the message starts a note.
func (m MIDI) IsNoteOn() bool { return MIDICommand(m.Command) == NoteOn && m.Velocity > 0 }

// IsNoteOff reports whether the message releases a note, including Note On with zero velocity.
func (m MIDI) IsNoteOff() bool {
	return MIDICommand(m.Command) == NoteOff || (MIDICommand(m.Command) == NoteOn && m.Velocity == 0)
}

// MIDIEventFilter allows users to specify which MIDI commands to capture.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to filter.
}

// Allows reports whether command passes the filter. A nil filter allows everything.
func (f *MIDIEventFilter) Allows(command byte) bool {
	if f == nil {
		return true
	}
	for _, allowed := range f.Commands {
		if command == byte(allowed) {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// MIDIOptions defines the configuration options for a live MIDI input.
type MIDIOptions struct {
	Logger          Logger           // Logger for device and capture events.
	LogLevel        LogLevel         // Level of logging to use.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
	Clock           func() int64     // Clock used to stamp messages; usually Engine.SysClock.
}

// MIDIOption is a function that modifies MIDIOptions.
type MIDIOption func(*MIDIOptions)

// WithMIDILogger sets the logger for the MIDI input.
func WithMIDILogger(l Logger) MIDIOption {
	return func(opts *MIDIOptions) {
		opts.Logger = l
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the MIDI input.
func WithMIDIEventFilter(filter MIDIEventFilter) MIDIOption {
	return func(opts *MIDIOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI input.
func WithCoreMIDIConfig(config CoreMIDIConfig) MIDIOption {
	return func(opts *MIDIOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithClock sets the clock used to timestamp captured messages.
func WithClock(clock func() int64) MIDIOption {
	return func(opts *MIDIOptions) {
		opts.Clock = clock
	}
}

// MIDIInput defines a live MIDI source feeding the event scheduler.
type MIDIInput interface {
	Stop() error                         // Stops capturing and releases the device.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI devices.
	SelectDevice(deviceID int) error     // Selects a MIDI device by its ID for communication.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI messages into the specified channel.
}

// DeviceInfo describes a MIDI source available for capture.
type DeviceInfo struct {
	ID           int    // Index accepted by SelectDevice.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}
