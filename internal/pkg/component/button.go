package component

import (
	"fmt"

	"github.com/gethiox/GPIDI/internal/pkg/component/config"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
)

func (t *Table) updateButton(s *slot) {
	level, err := t.io.DigitalRead(s.id)
	if err != nil {
		log.Info(fmt.Sprintf("[%s] read failed: %v", s.cfg.Label, err), logger.Debug)
		return
	}

	// inputs are pulled up, pressed button shorts the pin to ground
	stable := s.debounce.Update(!level, t.opts.Clock())
	if stable == s.prevStable {
		return
	}
	s.prevStable = stable
	t.debug(s, "stable: %t", stable)

	pressed := stable
	switch s.cfg.ButtonMode {
	case config.PressRelease:
		t.buttonEmit(s, pressed)
	case config.Pulse:
		switch {
		case s.cfg.PulseTiming == config.OnPress && pressed:
			t.buttonPulse(s)
		case s.cfg.PulseTiming == config.OnRelease && pressed:
			s.pulsePending = true
		case s.cfg.PulseTiming == config.OnRelease && !pressed && s.pulsePending:
			s.pulsePending = false
			t.buttonPulse(s)
		}
	case config.Toggle:
		if !pressed {
			return
		}
		s.toggle = !s.toggle
		t.buttonEmit(s, s.toggle)
	}
}

func (t *Table) buttonPulse(s *slot) {
	t.buttonEmit(s, true)
	t.buttonEmit(s, false)
}

// buttonEmit maps on/off state of the button onto its message kind.
// Program change and clock have no "off" message.
func (t *Table) buttonEmit(s *slot, on bool) {
	var value uint8
	if on {
		value = 127
	}

	switch m := s.cfg.Message.(type) {
	case config.Note:
		t.buttonNote(s, m.Note, 127, on)
	case config.NoteVelocity:
		t.buttonNote(s, m.Note, 127, on)
	case config.NoteSweep:
		t.buttonNote(s, m.Min, m.Velocity, on)
	case config.ControlChange:
		if t.primary(s) {
			t.sender.ControlChange(s.cfg.Channel, m.Controller, value)
		}
		s.last = int(value)
		t.event(s, midi.ControlChangeEvent(s.cfg.Channel-1, m.Controller, value))
		t.output(s, m.Controller, value, value)
	case config.ProgramChange:
		if !on {
			return
		}
		if t.primary(s) {
			t.sender.ProgramChange(s.cfg.Channel, m.Program)
		}
		s.last = int(m.Program)
		t.event(s, midi.ProgramChangeEvent(s.cfg.Channel-1, m.Program))
		t.output(s, m.Program, value, value)
	case config.Clock, config.TapTempo:
		if !on {
			return
		}
		if t.primary(s) {
			t.sender.Clock()
		}
		t.event(s, midi.ClockEvent())
		t.output(s, 0, value, value)
	}
}

func (t *Table) buttonNote(s *slot, note, velocity uint8, on bool) {
	if on {
		t.noteOn(s, note, velocity)
		return
	}
	t.noteOff(s, note)
}
