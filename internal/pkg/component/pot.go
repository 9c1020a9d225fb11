package component

import (
	"fmt"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/component/config"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
)

// scale maps 12-bit analog reading into 0-127.
func scale(raw uint16) int {
	if raw > hw.AnalogMax {
		raw = hw.AnalogMax
	}
	return int(raw) * 127 / hw.AnalogMax
}

// pitchBend maps 0-127 onto -8192..8191.
func pitchBend(value uint8) int16 {
	return int16(int(value)*16383/127 - 8192)
}

// sweepNote maps levels 1-maxLevel onto min-max with rounding, level 0 means no note.
func sweepNote(sweep config.NoteSweep, level, maxLevel uint8) int {
	if level == 0 {
		return noNote
	}
	steps := int(maxLevel) - 1
	if steps <= 0 {
		return int(sweep.Min)
	}
	span := int(sweep.Max) - int(sweep.Min)
	return int(sweep.Min) + ((int(level)-1)*span*2+steps)/(2*steps)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (t *Table) updatePot(s *slot) {
	raw, err := t.io.AnalogRead(s.id)
	if err != nil {
		log.Info(fmt.Sprintf("[%s] read failed: %v", s.cfg.Label, err), logger.Debug)
		return
	}

	var filtered uint16
	if s.median != nil {
		filtered = s.median.Update(raw)
	} else {
		filtered = s.adaptive.Update(raw)
	}
	value := scale(filtered)

	if sweep, ok := s.cfg.Message.(config.NoteSweep); ok {
		t.updateSweep(s, sweep, value)
		return
	}

	if s.last != neverEmitted && abs(value-s.last) < t.opts.Threshold {
		return
	}
	t.debug(s, "raw: %4d, filtered: %4d, value: %3d", raw, filtered, value)
	s.last = value
	t.potEmit(s, uint8(value))
}

func (t *Table) potEmit(s *slot, value uint8) {
	ch := s.cfg.Channel
	switch m := s.cfg.Message.(type) {
	case config.ControlChange:
		if t.primary(s) {
			t.sender.ControlChange(ch, m.Controller, value)
		}
		t.event(s, midi.ControlChangeEvent(ch-1, m.Controller, value))
		t.output(s, value, m.Controller, value)
	case config.PitchBend:
		bend := pitchBend(value)
		if t.primary(s) {
			t.sender.PitchBend(ch, bend)
		}
		t.event(s, midi.PitchBendEvent(ch-1, bend))
		t.output(s, value, 0, value)
	case config.Aftertouch:
		if t.primary(s) {
			t.sender.Aftertouch(ch, value)
		}
		t.event(s, midi.ChannelPressureEvent(ch-1, value))
		t.output(s, value, 0, value)
	case config.NoteVelocity:
		if value == 0 {
			if s.held != noNote {
				t.noteOff(s, uint8(s.held))
			}
			return
		}
		t.noteOn(s, m.Note, value)
	}
}

// updateSweep turns pot into a note selector. Order of the steps matters,
// auto-off is checked before the hysteresis can trigger a new note.
func (t *Table) updateSweep(s *slot, sweep config.NoteSweep, value int) {
	now := t.opts.Clock()

	if sweep.AutoOff > 0 && s.held != noNote && now.Sub(s.onTime) >= sweep.AutoOff {
		t.debug(s, "auto-off after %s", now.Sub(s.onTime))
		t.noteOff(s, uint8(s.held))
		s.onTime = time.Time{}
	}

	if !s.hyst.Update(uint8(value)) {
		return
	}

	stable := s.hyst.Value()
	note := sweepNote(sweep, s.hyst.Level(), s.hyst.MaxLevel())
	if note == s.held {
		return
	}
	t.debug(s, "value: %3d, stable: %3d, note: %d -> %d", value, stable, s.held, note)

	if s.held != noNote {
		t.noteOff(s, uint8(s.held))
	}
	if note != noNote {
		t.noteOn(s, uint8(note), sweep.Velocity)
		if sweep.AutoOff > 0 {
			s.onTime = now
		}
	} else {
		s.onTime = time.Time{}
	}

	s.held = note
	s.last = int(stable)
}
