package component

import (
	"fmt"

	"github.com/gethiox/GPIDI/internal/pkg/component/config"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
)

// HandleNoteOn lights LEDs bound to the note, velocity 0 is treated as note off.
// Dimmable LEDs take velocity as brightness.
func (t *Table) HandleNoteOn(channel, note, velocity uint8) {
	t.routeLED(channel, config.MsgNote, note, velocity, velocity > 0)
}

func (t *Table) HandleNoteOff(channel, note, _ uint8) {
	t.routeLED(channel, config.MsgNote, note, 0, false)
}

func (t *Table) HandleControlChange(channel, controller, value uint8) {
	t.routeLED(channel, config.MsgControlChange, controller, value, value > 63)
}

// HandleEvent dispatches inbound midi event, channel voice messages other than notes and control changes are ignored.
func (t *Table) HandleEvent(ev midi.Event) {
	if len(ev) < 3 {
		return
	}
	switch ev.Type() {
	case midi.NoteOn:
		t.HandleNoteOn(ev.Channel(), ev[1], ev[2])
	case midi.NoteOff:
		t.HandleNoteOff(ev.Channel(), ev[1], ev[2])
	case midi.ControlChange:
		t.HandleControlChange(ev.Channel(), ev[1], ev[2])
	}
}

func (t *Table) routeLED(channel uint8, kind config.MessageKind, param, value uint8, on bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used || s.cfg.Kind != config.LED || s.cfg.Channel != channel || s.cfg.Message.Kind() != kind {
			continue
		}
		if p, _ := config.Param(s.cfg.Message); p != param {
			continue
		}

		var level uint8
		switch {
		case s.cfg.Dimmable:
			level = value
		case on:
			level = hw.PWMMax
		}
		t.driveLED(s, param, level)
	}
}

func (t *Table) writeLED(s *slot, level uint8) error {
	if s.cfg.Dimmable {
		return t.io.PWMWrite(s.id, level)
	}
	return t.io.DigitalWrite(s.id, level > 0)
}

func (t *Table) driveLED(s *slot, param, level uint8) {
	if err := t.writeLED(s, level); err != nil {
		log.Info(fmt.Sprintf("[%s] led write failed: %v", s.cfg.Label, err), logger.Debug)
		return
	}
	changed := s.ledLevel != level
	s.ledLevel = level
	if !changed {
		return
	}

	s.last = int(level)
	t.debug(s, "led: %d", level)
	t.output(s, param, level, level)
}
