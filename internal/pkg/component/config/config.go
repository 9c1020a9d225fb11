package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	RolePotentiometer Role = "potentiometer"
	RoleButton        Role = "button"
	RoleLED           Role = "led"
	RoleI2C           Role = "i2c"
	RoleSPI           Role = "spi"
	RoleUART          Role = "uart"

	MsgNote          MessageKind = "note"
	MsgControlChange MessageKind = "control_change"
	MsgProgramChange MessageKind = "program_change"
	MsgPitchBend     MessageKind = "pitch_bend"
	MsgAftertouch    MessageKind = "aftertouch"
	MsgNoteVelocity  MessageKind = "note_velocity"
	MsgNoteSweep     MessageKind = "note_sweep"
	MsgClock         MessageKind = "clock"
	MsgTapTempo      MessageKind = "tap_tempo"

	PressRelease ButtonMode = "press_release"
	Pulse        ButtonMode = "pulse"
	Toggle       ButtonMode = "toggle"

	OnPress   PulseTiming = "press"
	OnRelease PulseTiming = "release"

	FormatFloat = "float"
	FormatMIDI  = "midi"

	FilterAdaptive = "adaptive"
	FilterMedian   = "median"

	LEDOnOff = "onoff"
	LEDPWM   = "pwm"
)

const (
	Potentiometer Kind = iota
	Button
	LED
)

const (
	FlagPrimary    Flags = 1 << iota // midi output
	FlagSecondary                    // osc output
	FlagStructured                   // osc as note/param/channel triple instead of a float
)

var (
	ErrNotComponent       = errors.New("role does not describe a component")
	ErrUnsupportedMessage = errors.New("message type not supported")
)

type Role string
type MessageKind string
type ButtonMode string
type PulseTiming string
type Kind uint8
type Flags uint8

var SupportedRoles = map[Role]bool{
	RolePotentiometer: true,
	RoleButton:        true,
	RoleLED:           true,
	RoleI2C:           true,
	RoleSPI:           true,
	RoleUART:          true,
}

var SupportedButtonModes = map[ButtonMode]bool{
	PressRelease: true,
	Pulse:        true,
	Toggle:       true,
}

var SupportedPulseTimings = map[PulseTiming]bool{
	OnPress:   true,
	OnRelease: true,
}

// SupportedMessages lists message kinds each component kind is able to produce or consume.
var SupportedMessages = map[Kind]map[MessageKind]bool{
	Potentiometer: {
		MsgControlChange: true,
		MsgPitchBend:     true,
		MsgAftertouch:    true,
		MsgNoteVelocity:  true,
		MsgNoteSweep:     true,
	},
	Button: {
		MsgNote:          true,
		MsgNoteVelocity:  true,
		MsgNoteSweep:     true,
		MsgControlChange: true,
		MsgProgramChange: true,
		MsgClock:         true,
		MsgTapTempo:      true,
	},
	LED: {
		MsgNote:          true,
		MsgControlChange: true,
	},
}

var roleKinds = map[Role]Kind{
	RolePotentiometer: Potentiometer,
	RoleButton:        Button,
	RoleLED:           LED,
}

func (k Kind) String() string {
	switch k {
	case Potentiometer:
		return "potentiometer"
	case Button:
		return "button"
	case LED:
		return "led"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Role returns component kind of the role, bus roles are not components.
func (r Role) Kind() (Kind, bool) {
	k, ok := roleKinds[r]
	return k, ok
}

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// Message is one of the concrete message types below, each carrying only its own parameters.
type Message interface {
	Kind() MessageKind
}

type Note struct{ Note uint8 }
type ControlChange struct{ Controller uint8 }
type ProgramChange struct{ Program uint8 }
type PitchBend struct{}
type Aftertouch struct{}
type NoteVelocity struct{ Note uint8 }
type Clock struct{}
type TapTempo struct{}

type NoteSweep struct {
	Min, Max uint8
	Velocity uint8
	AutoOff  time.Duration // 0 disables
}

func (Note) Kind() MessageKind          { return MsgNote }
func (ControlChange) Kind() MessageKind { return MsgControlChange }
func (ProgramChange) Kind() MessageKind { return MsgProgramChange }
func (PitchBend) Kind() MessageKind     { return MsgPitchBend }
func (Aftertouch) Kind() MessageKind    { return MsgAftertouch }
func (NoteVelocity) Kind() MessageKind  { return MsgNoteVelocity }
func (NoteSweep) Kind() MessageKind     { return MsgNoteSweep }
func (Clock) Kind() MessageKind         { return MsgClock }
func (TapTempo) Kind() MessageKind      { return MsgTapTempo }

const (
	DefaultSweepMin      = 48
	DefaultSweepMax      = 72
	DefaultSweepVelocity = 100
)

// NewMessage builds message of given kind with its main parameter.
// For note sweep the parameter is the lowest note of a two octave range.
func NewMessage(kind MessageKind, param uint8) (Message, error) {
	if param > 127 {
		return nil, fmt.Errorf("parameter outside of 0-127 range: %d", param)
	}
	switch kind {
	case MsgNote:
		return Note{Note: param}, nil
	case MsgControlChange:
		return ControlChange{Controller: param}, nil
	case MsgProgramChange:
		return ProgramChange{Program: param}, nil
	case MsgPitchBend:
		return PitchBend{}, nil
	case MsgAftertouch:
		return Aftertouch{}, nil
	case MsgNoteVelocity:
		return NoteVelocity{Note: param}, nil
	case MsgNoteSweep:
		max := int(param) + 24
		if max > 127 {
			max = 127
		}
		return NoteSweep{Min: param, Max: uint8(max), Velocity: DefaultSweepVelocity}, nil
	case MsgClock:
		return Clock{}, nil
	case MsgTapTempo:
		return TapTempo{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMessage, kind)
	}
}

// Param returns note, controller or program number of the message.
func Param(m Message) (uint8, bool) {
	switch v := m.(type) {
	case Note:
		return v.Note, true
	case NoteVelocity:
		return v.Note, true
	case ControlChange:
		return v.Controller, true
	case ProgramChange:
		return v.Program, true
	case NoteSweep:
		return v.Min, true
	default:
		return 0, false
	}
}

type ComponentConfig struct {
	Label   string
	Kind    Kind
	Channel uint8 // 1-16
	Message Message
	Flags   Flags
	Address string // osc address, empty means default for the kind
	Filter  string // potentiometer smoothing, empty means adaptive

	ButtonMode  ButtonMode
	PulseTiming PulseTiming

	Dimmable bool // led brightness follows velocity or controller value

	Debug       bool
	DebugHeader string
}

// Validate checks invariants that do not depend on board, swapped sweep range
// and empty button modes are fixed in place.
func (c *ComponentConfig) Validate() error {
	if c.Channel < 1 || c.Channel > 16 {
		return fmt.Errorf("[%s] channel outside of 1-16 range: %d", c.Label, c.Channel)
	}
	if c.Message == nil {
		return fmt.Errorf("[%s] message not set", c.Label)
	}
	if !SupportedMessages[c.Kind][c.Message.Kind()] {
		return fmt.Errorf("[%s] %w: %s for %s", c.Label, ErrUnsupportedMessage, c.Message.Kind(), c.Kind)
	}
	if p, ok := Param(c.Message); ok && p > 127 {
		return fmt.Errorf("[%s] parameter outside of 0-127 range: %d", c.Label, p)
	}
	if sweep, ok := c.Message.(NoteSweep); ok {
		if sweep.Max > 127 || sweep.Velocity > 127 {
			return fmt.Errorf("[%s] sweep values outside of 0-127 range", c.Label)
		}
		if sweep.Min > sweep.Max {
			sweep.Min, sweep.Max = sweep.Max, sweep.Min
			c.Message = sweep
		}
	}
	if c.Kind == Button {
		if c.ButtonMode == "" {
			c.ButtonMode = PressRelease
		}
		if c.PulseTiming == "" {
			c.PulseTiming = OnPress
		}
		if !SupportedButtonModes[c.ButtonMode] {
			return fmt.Errorf("[%s] unsupported button mode: %s", c.Label, c.ButtonMode)
		}
		if !SupportedPulseTimings[c.PulseTiming] {
			return fmt.Errorf("[%s] unsupported pulse timing: %s", c.Label, c.PulseTiming)
		}
	}
	return nil
}
