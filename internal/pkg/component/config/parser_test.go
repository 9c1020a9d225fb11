package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFactoryDefaults(t *testing.T) {
	d := FactoryDefaults()

	for _, tc := range []struct {
		label   string
		role    Role
		message MessageKind
		param   int
	}{
		{label: "A0", role: RolePotentiometer, message: MsgControlChange, param: 1},
		{label: "a3", role: RolePotentiometer, message: MsgControlChange, param: 4},
		{label: "D2", role: RoleButton, message: MsgNote, param: 62},
		{label: "D8", role: RoleLED, message: MsgNote, param: 37},
		{label: "D10", role: RoleLED, message: MsgControlChange, param: 10},
		{label: "SDA", role: RoleI2C},
		{label: "GPIO17", role: RoleButton, message: MsgNote, param: 60},
	} {
		t.Run(tc.label, func(t *testing.T) {
			r := d.Pin(tc.label)
			assert.Equal(t, string(tc.role), r.Role)
			if tc.message == "" {
				return
			}
			assert.Equal(t, string(tc.message), r.Message)
			switch tc.message {
			case MsgControlChange:
				assert.Equal(t, tc.param, r.CC)
			case MsgNote:
				assert.Equal(t, tc.param, r.Note)
			}
		})
	}

	d0 := d.Pin("D0")
	assert.Equal(t, string(Pulse), d0.Button.Mode)
	assert.Equal(t, "/note", d0.OSC.Address)
	assert.Equal(t, LEDPWM, d.Pin("D10").LED.Mode)
	assert.Equal(t, "/ctl", d.Pin("A1").OSC.Address)
}

func TestDefaultRoundTrip(t *testing.T) {
	d := FactoryDefaults()
	blob, err := d.Default("A2")
	assert.Equal(t, nil, err)

	r, err := ParseRecord("A2", blob, d)
	assert.Equal(t, nil, err)
	assert.Equal(t, d.Pin("A2"), r)
}

func TestParseRecordFillsMissingFields(t *testing.T) {
	d := FactoryDefaults()
	r, err := ParseRecord("D5", `
role = "button"
message = "control_change"
cc = 20

[button]
mode = "toggle"
`, d)
	assert.Equal(t, nil, err)
	assert.Equal(t, 20, r.CC)
	assert.Equal(t, 1, r.Channel)
	assert.True(t, r.Enabled)
	assert.Equal(t, "toggle", r.Button.Mode)
	assert.Equal(t, "press", r.Button.Timing)
	assert.Equal(t, "/note", r.OSC.Address)

	completed, err := d.Complete("D5", `role = "potentiometer"`)
	assert.Equal(t, nil, err)
	assert.True(t, strings.Contains(completed, "control_change"))
}

func TestParseRecordErrors(t *testing.T) {
	d := FactoryDefaults()
	for i, data := range []string{
		``,
		`role = "button`,
		`role = "keyboard"`,
		`role = "button"
octave = 3`,
		`role = "button"
channel = 0`,
		`role = "button"
channel = 17`,
		`role = "button"
note = 128`,
		`role = "potentiometer"
cc = -1`,
		`role = "button"
[button]
mode = "hold"`,
		`role = "button"
[osc]
format = "json"`,
		`role = "button"
[osc]
address = "note"`,
		`role = "button"
channel = "one"`,
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := ParseRecord("D1", data, d)
			assert.NotEqual(t, nil, err)
		})
	}
}

func TestToComponentConfig(t *testing.T) {
	d := FactoryDefaults()
	r, err := ParseRecord("A0", `
role = "potentiometer"
message = "note_sweep"
channel = 3
enabled = false

[sweep]
min = 80
max = 40
velocity = 90
auto_off_ms = 500

[osc]
enabled = true
format = "midi"
`, d)
	assert.Equal(t, nil, err)

	c, err := r.ToComponentConfig("A0")
	assert.Equal(t, nil, err)
	assert.Equal(t, Potentiometer, c.Kind)
	assert.Equal(t, uint8(3), c.Channel)
	assert.Equal(t, NoteSweep{Min: 40, Max: 80, Velocity: 90, AutoOff: 500 * time.Millisecond}, c.Message)
	assert.False(t, c.Flags.Has(FlagPrimary))
	assert.True(t, c.Flags.Has(FlagSecondary))
	assert.True(t, c.Flags.Has(FlagStructured))
	assert.Equal(t, "/ctl", c.Address)
}

func TestLEDMode(t *testing.T) {
	d := FactoryDefaults()

	dimmed, err := d.Pin("D10").ToComponentConfig("D10")
	assert.Equal(t, nil, err)
	assert.True(t, dimmed.Dimmable)
	assert.Equal(t, ControlChange{Controller: 10}, dimmed.Message)

	plain, err := d.Pin("D7").ToComponentConfig("D7")
	assert.Equal(t, nil, err)
	assert.False(t, plain.Dimmable)

	pot := d.Pin("A0")
	pot.LED.Mode = LEDPWM
	c, err := pot.ToComponentConfig("A0")
	assert.Equal(t, nil, err)
	assert.False(t, c.Dimmable, "only leds can be dimmed")
}

func TestToComponentConfigRejects(t *testing.T) {
	d := FactoryDefaults()

	bus := d.Pin("SCL")
	_, err := bus.ToComponentConfig("SCL")
	assert.True(t, errors.Is(err, ErrNotComponent))

	led := d.Pin("D7")
	led.Message = string(MsgPitchBend)
	_, err = led.ToComponentConfig("D7")
	assert.True(t, errors.Is(err, ErrUnsupportedMessage))

	pot := d.Pin("A0")
	pot.Message = string(MsgClock)
	_, err = pot.ToComponentConfig("A0")
	assert.True(t, errors.Is(err, ErrUnsupportedMessage))
}

func TestNewMessage(t *testing.T) {
	for i, tc := range []struct {
		kind     MessageKind
		param    uint8
		expected Message
	}{
		{kind: MsgNote, param: 60, expected: Note{Note: 60}},
		{kind: MsgControlChange, param: 7, expected: ControlChange{Controller: 7}},
		{kind: MsgProgramChange, param: 3, expected: ProgramChange{Program: 3}},
		{kind: MsgPitchBend, param: 99, expected: PitchBend{}},
		{kind: MsgNoteSweep, param: 48, expected: NoteSweep{Min: 48, Max: 72, Velocity: DefaultSweepVelocity}},
		{kind: MsgNoteSweep, param: 120, expected: NoteSweep{Min: 120, Max: 127, Velocity: DefaultSweepVelocity}},
		{kind: MsgTapTempo, param: 0, expected: TapTempo{}},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			m, err := NewMessage(tc.kind, tc.param)
			assert.Equal(t, nil, err)
			assert.Equal(t, tc.expected, m)
			assert.Equal(t, tc.kind, m.Kind())
		})
	}

	_, err := NewMessage(MsgNote, 128)
	assert.NotEqual(t, nil, err)
	_, err = NewMessage("sysex", 0)
	assert.True(t, errors.Is(err, ErrUnsupportedMessage))
}

func TestValidateSwapsSweep(t *testing.T) {
	c := ComponentConfig{
		Label:   "A1",
		Kind:    Potentiometer,
		Channel: 1,
		Message: NoteSweep{Min: 70, Max: 50, Velocity: 100},
	}
	assert.Equal(t, nil, c.Validate())
	assert.Equal(t, NoteSweep{Min: 50, Max: 70, Velocity: 100}, c.Message)

	b := ComponentConfig{Label: "D1", Kind: Button, Channel: 1, Message: Note{Note: 1}}
	assert.Equal(t, nil, b.Validate())
	assert.Equal(t, PressRelease, b.ButtonMode)
	assert.Equal(t, OnPress, b.PulseTiming)
}
