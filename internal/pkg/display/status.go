package display

import (
	"fmt"

	"github.com/gethiox/GPIDI/internal/pkg/bridge"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// fit pads or cuts s to exactly width runes.
func fit(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return fmt.Sprintf("%-*s", width, s)
}

// StatusLines formats runtime status for the LCD.
func StatusLines(s bridge.Status, width int) [4]string {
	var lines [4]string

	held := 0
	for _, slot := range s.Slots {
		if slot.Held >= 0 {
			held++
		}
	}
	lines[0] = fmt.Sprintf("slots %d/%d held %d", len(s.Slots), s.Capacity, held)

	if s.MIDIDropped > 0 {
		lines[1] = fmt.Sprintf("midi %d drop %d", s.MIDISent, s.MIDIDropped)
	} else {
		lines[1] = fmt.Sprintf("midi %d", s.MIDISent)
	}

	if s.OSCEnabled {
		lines[2] = fmt.Sprintf("osc %d/%d q%d d%d", s.Queue.Sent, s.Queue.Failed, s.QueueLen, s.Dirty)
	} else {
		lines[2] = fmt.Sprintf("osc off dirty %d", s.Dirty)
	}

	lines[3] = s.LastEvent
	if lines[3] == "" {
		lines[3] = "waiting..."
	}

	for i := range lines {
		lines[i] = fit(lines[i], width)
	}
	return lines
}

// Graph renders values as bar blocks, oldest first, zero as space.
func Graph(values []uint64, width int) string {
	var max uint64 = 8
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var g []rune
	start := 0
	if len(values) > width {
		start = len(values) - width
	}
	for _, v := range values[start:] {
		if v == 0 {
			g = append(g, ' ')
			continue
		}
		g = append(g, blocks[int(float64(v)/float64(max+1)*float64(len(blocks)-1))])
	}
	return fit(string(g), width)
}
