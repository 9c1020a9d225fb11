package midi

import (
	"fmt"
)

const (
	// message types
	NoteOff               uint8 = 0b1000 << 4
	NoteOn                uint8 = 0b1001 << 4
	PolyphonicKeyPressure uint8 = 0b1010 << 4 // After-touch
	ControlChange         uint8 = 0b1011 << 4
	ProgramChange         uint8 = 0b1100 << 4
	ChannelPressure       uint8 = 0b1101 << 4 // After-touch
	PitchWheelChange      uint8 = 0b1110 << 4

	// system real-time
	TimingClock uint8 = 0xF8

	// ControlChange
	AllNotesOff         uint8 = 0b01111011
	AllSoundOff         uint8 = 0b01111000
	ResetAllControllers uint8 = 0b01111001
)

var valToPitch = map[uint8]string{
	0: "C", 1: "C#", 2: "D", 3: "D#",
	4: "E", 5: "F", 6: "F#", 7: "G",
	8: "G#", 9: "A", 10: "A#", 11: "B",
}

func NoteToPitch(note byte) string {
	return valToPitch[note%12]
}

func NoteToOctave(note byte) int {
	return int(note/12) - 2
}

func noteToString(note byte) string {
	return fmt.Sprintf("%-2s%2d", NoteToPitch(note), NoteToOctave(note))
}

type Event []byte

func (e Event) String() string {
	if len(e) == 0 {
		return fmt.Sprintf("Warning: empty Midi event, it should be not emitted")
	}
	if e[0] == TimingClock {
		return "Timing Clock"
	}
	channel := e[0]&0b1111 + 1
	switch x := e[0] & 0b11110000; x {
	case NoteOff:
		return fmt.Sprintf("Note Off: %s (channel: %2d, velocity: %3d)", noteToString(e[1]), channel, e[2])
	case NoteOn:
		return fmt.Sprintf("Note On : %s (channel: %2d, velocity: %3d)", noteToString(e[1]), channel, e[2])
	case PolyphonicKeyPressure:
		return fmt.Sprintf("Polyphonic Key Pressure: %s (channel: %2d, pressure: %3d)", noteToString(e[1]), channel, e[2])
	case ControlChange:
		var value string
		if len(e) == 3 {
			value = fmt.Sprintf("%3d", e[2])
		} else {
			value = "---"
		}
		return fmt.Sprintf("Control Change: %3d, value: %s (channel: %2d)", e[1], value, channel)
	case ProgramChange:
		return fmt.Sprintf("Program Change: %3d (channel: %2d)", e[1], channel)
	case ChannelPressure:
		return fmt.Sprintf("Channel Pressure: %3d (channel: %2d)", e[1], channel)
	case PitchWheelChange:
		val := float64((int(e[2])<<7)+int(e[1])-8192) / 8192 // max value: 16383, middle value (no pitch change): 8192
		return fmt.Sprintf("Pitch Bend: %4.0f%% (channel: %2d)", val*100, channel)
	// TODO: cover the rest of possible midi events
	default:
		msg := "Oof, unexpected event format: "
		for _, v := range e {
			msg += fmt.Sprintf("0x%02x ", v)
		}
		return msg
	}
}

func NoteEvent(messageType, channel, note, velocity uint8) Event {
	return Event{messageType | channel, note, velocity}
}

func ControlChangeEvent(channel, function, value uint8) Event {
	return Event{ControlChange | channel, function, value}
}

func ProgramChangeEvent(channel, program uint8) Event {
	return Event{ProgramChange | channel, program & 0x7f}
}

func ChannelPressureEvent(channel, pressure uint8) Event {
	return Event{ChannelPressure | channel, pressure & 0x7f}
}

// PitchBendEvent accepts a signed value in range -8192 to 8191, values beyond are clamped
func PitchBendEvent(channel uint8, bend int16) Event {
	if bend < -8192 {
		bend = -8192
	}
	if bend > 8191 {
		bend = 8191
	}
	target := int(bend) + 8192               // valid 14-bit pitch-bend range
	msb := uint8((target >> 7) & 0b01111111) // filtering bit that is beyond valid pitch-bend range, just in case
	lsb := uint8(target & 0b01111111)
	return Event{PitchWheelChange | channel, lsb, msb}
}

func ClockEvent() Event {
	return Event{TimingClock}
}

// Channel returns 1-16 channel of channel voice message.
func (e Event) Channel() uint8 {
	return e[0]&0b1111 + 1
}

func (e Event) Type() uint8 {
	if e[0] >= 0xF0 {
		return e[0]
	}
	return e[0] & 0b11110000
}
