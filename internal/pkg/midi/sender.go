package midi

import (
	"sync/atomic"
)

// Sender is the outbound side of the runtime. Channels are 1-16.
type Sender interface {
	NoteOn(channel, note, velocity uint8)
	NoteOff(channel, note, velocity uint8)
	ControlChange(channel, controller, value uint8)
	ProgramChange(channel, program uint8)
	PitchBend(channel uint8, bend int16)
	Aftertouch(channel, pressure uint8)
	Clock()
}

// EventSender turns Sender calls into Events written to a channel.
// It never blocks, events are dropped when output channel is full.
type EventSender struct {
	output  chan<- Event
	sent    atomic.Uint64
	dropped atomic.Uint64
}

func NewEventSender(output chan<- Event) *EventSender {
	return &EventSender{output: output}
}

func wireChannel(channel uint8) uint8 {
	if channel < 1 {
		return 0
	}
	if channel > 16 {
		return 15
	}
	return channel - 1
}

func (s *EventSender) emit(ev Event) {
	select {
	case s.output <- ev:
		s.sent.Add(1)
	default:
		s.dropped.Add(1)
	}
}

func (s *EventSender) NoteOn(channel, note, velocity uint8) {
	s.emit(NoteEvent(NoteOn, wireChannel(channel), note&0x7f, velocity&0x7f))
}

func (s *EventSender) NoteOff(channel, note, velocity uint8) {
	s.emit(NoteEvent(NoteOff, wireChannel(channel), note&0x7f, velocity&0x7f))
}

func (s *EventSender) ControlChange(channel, controller, value uint8) {
	s.emit(ControlChangeEvent(wireChannel(channel), controller&0x7f, value&0x7f))
}

func (s *EventSender) ProgramChange(channel, program uint8) {
	s.emit(ProgramChangeEvent(wireChannel(channel), program))
}

func (s *EventSender) PitchBend(channel uint8, bend int16) {
	s.emit(PitchBendEvent(wireChannel(channel), bend))
}

func (s *EventSender) Aftertouch(channel, pressure uint8) {
	s.emit(ChannelPressureEvent(wireChannel(channel), pressure))
}

func (s *EventSender) Clock() {
	s.emit(ClockEvent())
}

func (s *EventSender) Sent() uint64 {
	return s.sent.Load()
}

func (s *EventSender) Dropped() uint64 {
	return s.dropped.Load()
}
