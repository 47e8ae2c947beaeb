package contracts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Unset marks an optional numeric Event field that carries no value.
const Unset = -1

// VoiceListCap is the fixed capacity, in bytes, of an Event's textual voice list.
const VoiceListCap = 64

// MaxVoices bounds the voice indices a VoiceList may name: 0 through MaxVoices-1.
const MaxVoices = 256

var (
	// ErrVoiceListTooLong is returned when a voice list does not fit in VoiceListCap bytes.
	ErrVoiceListTooLong = errors.New("voice list exceeds capacity")
	// ErrInvalidVoiceList is returned when a voice list cannot be parsed into indices.
	ErrInvalidVoiceList = errors.New("invalid voice list")
)

// Event is a timestamped musical command travelling from the scheduler, through the
// event queue, to the renderer. It is a plain value: copying it copies every field.
type Event struct {
	Time      int64     // Time is the engine clock value, in milliseconds, at which the event is due.
	LoadPatch int32     // LoadPatch is the patch to load on Voices, or Unset.
	Voices    VoiceList // Voices is the target voice set, e.g. "0,1,2" or "0..11".
	Velocity  float32   // Velocity in [0,1]; 0 with a note releases it. Unset when negative.
	MidiNote  int16     // MidiNote is the MIDI note number (0-127), or Unset.
}

// DefaultEvent returns the template every new event starts from: time zero and every
// optional field unset.
func DefaultEvent() Event {
	return Event{
		Time:      0,
		LoadPatch: Unset,
		Velocity:  Unset,
		MidiNote:  Unset,
	}
}

// HasPatch reports whether the event loads a patch.
func (e Event) HasPatch() bool { return e.LoadPatch >= 0 }

// HasNote reports whether the event carries a MIDI note.
func (e Event) HasNote() bool { return e.MidiNote >= 0 }

// HasVelocity reports whether the event carries a velocity.
func (e Event) HasVelocity() bool { return e.Velocity >= 0 }

// IsNoteOff reports whether the event releases its note.
func (e Event) IsNoteOff() bool { return e.HasNote() && e.Velocity == 0 }

// VoiceList is a small fixed-capacity text field holding a voice index list.
// The zero value is the empty list.
type VoiceList struct {
	buf [VoiceListCap]byte
	n   uint8
}

// ParseVoiceList builds a VoiceList from s and validates its syntax.
func ParseVoiceList(s string) (VoiceList, error) {
	var v VoiceList
	if err := v.Set(s); err != nil {
		return VoiceList{}, err
	}
	if err := v.scan(func(int, int) {}); err != nil {
		return VoiceList{}, err
	}
	return v, nil
}

// MustVoiceList is like ParseVoiceList but panics on error. It is meant for constants.
func MustVoiceList(s string) VoiceList {
	v, err := ParseVoiceList(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Set replaces the list text. It never grows past VoiceListCap.
func (v *VoiceList) Set(s string) error {
	if len(s) > VoiceListCap {
		return fmt.Errorf("%w: %d bytes, max %d", ErrVoiceListTooLong, len(s), VoiceListCap)
	}
	v.n = uint8(copy(v.buf[:], s))
	return nil
}

// String returns the list text as submitted.
func (v VoiceList) String() string { return string(v.buf[:v.n]) }

// IsEmpty reports whether no voices are targeted.
func (v VoiceList) IsEmpty() bool { return v.n == 0 }

// Indices expands the list into voice indices. Tokens are comma separated; a token
// of the form "a..b" expands to the inclusive range a through b. Indices at or above
// MaxVoices are rejected.
func (v VoiceList) Indices() ([]int, error) {
	if v.n == 0 {
		return nil, nil
	}
	var out []int
	err := v.scan(func(lo, hi int) {
		for i := lo; i <= hi; i++ {
			out = append(out, i)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Each calls fn, in list order, for every listed index below limit, without building
// the index slice. The whole list is validated before fn runs. It returns the number
// of listed indices at or above limit.
func (v VoiceList) Each(limit int, fn func(voice int)) (skipped int, err error) {
	if err := v.scan(func(int, int) {}); err != nil {
		return 0, err
	}
	_ = v.scan(func(lo, hi int) {
		for i := lo; i <= min(hi, limit-1); i++ {
			fn(i)
		}
		if hi >= limit {
			skipped += hi - max(lo, limit) + 1
		}
	})
	return skipped, nil
}

// scan parses the list into inclusive ranges. A lone index is a range of one.
func (v VoiceList) scan(fn func(lo, hi int)) error {
	if v.n == 0 {
		return nil
	}
	for _, tok := range strings.Split(v.String(), ",") {
		tok = strings.TrimSpace(tok)
		lo, hi, isRange := strings.Cut(tok, "..")
		if !isRange {
			hi = lo
		}
		a, errA := strconv.Atoi(lo)
		b, errB := strconv.Atoi(hi)
		if errA != nil || errB != nil || a < 0 || b < a {
			return fmt.Errorf("%w: %q", ErrInvalidVoiceList, tok)
		}
		if b >= MaxVoices {
			return fmt.Errorf("%w: %q names voice %d, max %d", ErrInvalidVoiceList, tok, b, MaxVoices-1)
		}
		fn(a, b)
	}
	return nil
}
