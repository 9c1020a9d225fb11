package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Record is the persisted form of a pin configuration, one TOML document per pin.
type Record struct {
	Role    string `toml:"role" yaml:"role"`
	Message string `toml:"message" yaml:"message"`
	Channel int    `toml:"channel" yaml:"channel"`
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Note    int    `toml:"note" yaml:"note"`
	CC      int    `toml:"cc" yaml:"cc"`
	Program int    `toml:"program" yaml:"program"`
	Filter  string `toml:"filter" yaml:"filter"`

	Sweep struct {
		Min       int `toml:"min" yaml:"min"`
		Max       int `toml:"max" yaml:"max"`
		Velocity  int `toml:"velocity" yaml:"velocity"`
		AutoOffMs int `toml:"auto_off_ms" yaml:"auto_off_ms"`
	} `toml:"sweep" yaml:"sweep"`

	Button struct {
		Mode   string `toml:"mode" yaml:"mode"`
		Timing string `toml:"timing" yaml:"timing"`
	} `toml:"button" yaml:"button"`

	LED struct {
		Mode string `toml:"mode" yaml:"mode"`
	} `toml:"led" yaml:"led"`

	OSC struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Address string `toml:"address" yaml:"address"`
		Format  string `toml:"format" yaml:"format"`
	} `toml:"osc" yaml:"osc"`

	Debug struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Header  string `toml:"header" yaml:"header"`
	} `toml:"debug" yaml:"debug"`
}

func checkRange(label, field string, v, min, max int) error {
	if v < min || v > max {
		return fmt.Errorf("[%s] %s value outside of %d-%d range: %d", label, field, min, max, v)
	}
	return nil
}

// Validate checks record fields, label is used for error messages only.
func (r *Record) Validate(label string) error {
	role := Role(r.Role)
	if !SupportedRoles[role] {
		return fmt.Errorf("[%s] unsupported role: \"%s\"", label, r.Role)
	}
	if _, ok := role.Kind(); !ok {
		return nil // bus roles carry no further settings
	}

	for _, c := range []struct {
		field    string
		v        int
		min, max int
	}{
		{"channel", r.Channel, 1, 16},
		{"note", r.Note, 0, 127},
		{"cc", r.CC, 0, 127},
		{"program", r.Program, 0, 127},
		{"sweep.min", r.Sweep.Min, 0, 127},
		{"sweep.max", r.Sweep.Max, 0, 127},
		{"sweep.velocity", r.Sweep.Velocity, 0, 127},
		{"sweep.auto_off_ms", r.Sweep.AutoOffMs, 0, 600000},
	} {
		if err := checkRange(label, c.field, c.v, c.min, c.max); err != nil {
			return err
		}
	}

	if r.Filter != "" && r.Filter != FilterAdaptive && r.Filter != FilterMedian {
		return fmt.Errorf("[%s] unsupported filter: \"%s\"", label, r.Filter)
	}
	if r.OSC.Format != "" && r.OSC.Format != FormatFloat && r.OSC.Format != FormatMIDI {
		return fmt.Errorf("[%s] unsupported osc format: \"%s\"", label, r.OSC.Format)
	}
	if r.OSC.Address != "" && !strings.HasPrefix(r.OSC.Address, "/") {
		return fmt.Errorf("[%s] osc address has to start with \"/\": \"%s\"", label, r.OSC.Address)
	}
	if r.LED.Mode != "" && r.LED.Mode != LEDOnOff && r.LED.Mode != LEDPWM {
		return fmt.Errorf("[%s] unsupported led mode: \"%s\"", label, r.LED.Mode)
	}
	if r.Button.Mode != "" && !SupportedButtonModes[ButtonMode(r.Button.Mode)] {
		return fmt.Errorf("[%s] unsupported button mode: \"%s\"", label, r.Button.Mode)
	}
	if r.Button.Timing != "" && !SupportedPulseTimings[PulseTiming(r.Button.Timing)] {
		return fmt.Errorf("[%s] unsupported pulse timing: \"%s\"", label, r.Button.Timing)
	}
	return nil
}

func decodeStrict(data []byte, r *Record) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(r)
}

// ParseRecord decodes record on top of defaults of its role, so fields added in later versions
// get their default values. Unknown fields and malformed values are errors.
func ParseRecord(label, data string, defaults *Defaults) (Record, error) {
	var head struct {
		Role string `toml:"role"`
	}
	if err := toml.Unmarshal([]byte(data), &head); err != nil {
		return Record{}, fmt.Errorf("[%s] parsing toml failed: %w", label, err)
	}
	if head.Role == "" {
		return Record{}, fmt.Errorf("[%s] role not set", label)
	}

	var r Record
	if defaults != nil {
		if d, ok := defaults.Role(Role(head.Role)); ok {
			r = d
		}
	}
	if err := decodeStrict([]byte(data), &r); err != nil {
		return Record{}, fmt.Errorf("[%s] parsing toml failed: %w", label, err)
	}
	if err := r.Validate(label); err != nil {
		return Record{}, err
	}
	return r, nil
}

func EncodeRecord(r Record) (string, error) {
	data, err := toml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding toml failed: %w", err)
	}
	return string(data), nil
}

// ToComponentConfig converts validated record into runtime configuration.
func (r Record) ToComponentConfig(label string) (ComponentConfig, error) {
	kind, ok := Role(r.Role).Kind()
	if !ok {
		return ComponentConfig{}, fmt.Errorf("[%s] %w: %s", label, ErrNotComponent, r.Role)
	}

	var msg Message
	switch MessageKind(r.Message) {
	case MsgNote:
		msg = Note{Note: uint8(r.Note)}
	case MsgNoteVelocity:
		msg = NoteVelocity{Note: uint8(r.Note)}
	case MsgControlChange:
		msg = ControlChange{Controller: uint8(r.CC)}
	case MsgProgramChange:
		msg = ProgramChange{Program: uint8(r.Program)}
	case MsgPitchBend:
		msg = PitchBend{}
	case MsgAftertouch:
		msg = Aftertouch{}
	case MsgNoteSweep:
		msg = NoteSweep{
			Min:      uint8(r.Sweep.Min),
			Max:      uint8(r.Sweep.Max),
			Velocity: uint8(r.Sweep.Velocity),
			AutoOff:  time.Duration(r.Sweep.AutoOffMs) * time.Millisecond,
		}
	case MsgClock:
		msg = Clock{}
	case MsgTapTempo:
		msg = TapTempo{}
	default:
		return ComponentConfig{}, fmt.Errorf("[%s] %w: \"%s\"", label, ErrUnsupportedMessage, r.Message)
	}

	var flags Flags
	if r.Enabled {
		flags |= FlagPrimary
	}
	if r.OSC.Enabled {
		flags |= FlagSecondary
	}
	if r.OSC.Format == FormatMIDI {
		flags |= FlagStructured
	}

	c := ComponentConfig{
		Label:       label,
		Kind:        kind,
		Channel:     uint8(r.Channel),
		Message:     msg,
		Flags:       flags,
		Address:     r.OSC.Address,
		Filter:      r.Filter,
		ButtonMode:  ButtonMode(r.Button.Mode),
		PulseTiming: PulseTiming(r.Button.Timing),
		Dimmable:    kind == LED && r.LED.Mode == LEDPWM,
		Debug:       r.Debug.Enabled,
		DebugHeader: r.Debug.Header,
	}
	if err := c.Validate(); err != nil {
		return ComponentConfig{}, err
	}
	return c, nil
}
