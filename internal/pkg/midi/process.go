package midi

import (
	"context"
	"fmt"
	"sync"

	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
)

var log = logger.GetLogger()

// Decode converts inbound message into Event, only note on/off and control change
// are of any interest, anything else is reported as not ok.
func Decode(data []byte) (Event, bool) {
	msg := gomidi.Message(data)

	var channel, key, velocity, controller, value uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		return NoteEvent(NoteOn, channel, key, velocity), true
	case msg.GetNoteEnd(&channel, &key):
		// note on with zero velocity ends up here as well
		return NoteEvent(NoteOff, channel, key, 0), true
	case msg.GetControlChange(&channel, &controller, &value):
		return ControlChangeEvent(channel, controller, value), true
	}
	return nil, false
}

// ProcessMidiEvents writes outgoing events into the port output and forwards
// decoded port input into midiEventsIn. Both directions stop with ctx.
func ProcessMidiEvents(ctx context.Context, wg *sync.WaitGroup, port driver.Port,
	midiEventsOut <-chan Event, midiEventsIn chan<- Event) error {

	if port.Output != nil {
		err := port.Output.Open()
		if err != nil {
			return fmt.Errorf("failed to open output port: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer port.Output.Close()
			portOut := port.Output.SendChannel()

		root:
			for {
				select {
				case <-ctx.Done():
					break root
				case ev, ok := <-midiEventsOut:
					if !ok {
						break root
					}
					portOut <- []byte(ev)
					log.Info(ev.String(), logger.Events)
				}
			}

			log.Info("Processing output midi events stopped", logger.Debug)
		}()
	}

	if port.Input != nil && midiEventsIn != nil {
		err := port.Input.Open()
		if err != nil {
			return fmt.Errorf("failed to open input port: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer port.Input.Close()
			inEvents := port.Input.ReceiveChannel()

		root:
			for {
				select {
				case <-ctx.Done():
					break root
				case raw, ok := <-inEvents:
					if !ok {
						break root
					}
					ev, ok := Decode(raw)
					if !ok {
						log.Info(fmt.Sprintf("input event ignored: %s", gomidi.Message(raw).String()), logger.Debug)
						continue
					}
					select {
					case midiEventsIn <- ev:
						log.Info(fmt.Sprintf("input event: %s", ev), logger.Events)
					default:
						log.Info(fmt.Sprintf("input event dropped: %s", ev), logger.Warning)
					}
				}
			}

			log.Info("Processing input midi events stopped", logger.Debug)
		}()
	}
	return nil
}
