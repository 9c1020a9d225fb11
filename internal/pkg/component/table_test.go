package component

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/board"
	"github.com/gethiox/GPIDI/internal/pkg/component/config"
	"github.com/gethiox/GPIDI/internal/pkg/filter"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
	"github.com/stretchr/testify/assert"
)

var testBoard = board.New("test",
	[]board.Pin{
		{ID: 1, Label: "D0", Analog: true, Digital: true},
		{ID: 2, Label: "D1", Analog: true, Digital: true},
		{ID: 3, Label: "D2", Digital: true},
		{ID: 4, Label: "D3", Digital: true},
		{ID: 5, Label: "D7", Digital: true},
		{ID: 6, Label: "D8", Digital: true},
	},
	[]board.Alias{{Label: "A0", ID: 1}, {Label: "A1", ID: 2}},
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type item struct {
	address    string
	structured bool
	value      float32
	data1      uint8
	data2      uint8
	channel    uint8
}

type fakeQueue struct {
	items []item
}

func (q *fakeQueue) EnqueueScalar(address string, value float32) bool {
	q.items = append(q.items, item{address: address, value: value})
	return true
}

func (q *fakeQueue) EnqueueStructured(address string, data1, data2, channel uint8) bool {
	q.items = append(q.items, item{address: address, structured: true, data1: data1, data2: data2, channel: channel})
	return true
}

type harness struct {
	table  *Table
	io     *hw.Mock
	clock  *fakeClock
	events chan midi.Event
	queue  *fakeQueue
}

func newHarness(opts Options) *harness {
	h := harness{
		io:     hw.NewMock(),
		clock:  &fakeClock{now: time.Unix(1000, 0)},
		events: make(chan midi.Event, 4096),
		queue:  &fakeQueue{},
	}
	opts.Clock = h.clock.Now
	h.table = NewTable(opts, testBoard, h.io, midi.NewEventSender(h.events), h.queue)
	return &h
}

func (h *harness) drain() []midi.Event {
	var events []midi.Event
	for {
		select {
		case ev := <-h.events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.table.Update()
		h.clock.Advance(time.Millisecond)
	}
}

// settle lets debounce accept the current level.
func (h *harness) settle() {
	h.table.Update()
	h.clock.Advance(filter.DefaultDebounce)
	h.table.Update()
}

func noteOn(note, velocity uint8) midi.Event {
	return midi.NoteEvent(midi.NoteOn, 0, note, velocity)
}

func noteOff(note uint8) midi.Event {
	return midi.NoteEvent(midi.NoteOff, 0, note, 0)
}

func button(label string, msg config.Message, mode config.ButtonMode, timing config.PulseTiming) config.ComponentConfig {
	return config.ComponentConfig{
		Label:       label,
		Kind:        config.Button,
		Channel:     1,
		Message:     msg,
		Flags:       config.FlagPrimary,
		ButtonMode:  mode,
		PulseTiming: timing,
	}
}

func TestAddErrors(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("A0", config.Potentiometer, 7, 1, config.MsgControlChange))

	for _, tc := range []struct {
		name     string
		label    string
		kind     config.Kind
		message  config.MessageKind
		expected error
	}{
		{name: "unknown pin", label: "D99", kind: config.Button, message: config.MsgNote, expected: ErrInvalidPin},
		{name: "alias of used pin", label: "D0", kind: config.Button, message: config.MsgNote, expected: ErrDuplicatePin},
		{name: "same label", label: "a0", kind: config.Potentiometer, message: config.MsgControlChange, expected: ErrDuplicatePin},
		{name: "pot without adc", label: "D2", kind: config.Potentiometer, message: config.MsgControlChange, expected: ErrNoAnalog},
		{name: "led pitch bend", label: "D7", kind: config.LED, message: config.MsgPitchBend, expected: ErrUnsupportedMessage},
		{name: "pot program change", label: "A1", kind: config.Potentiometer, message: config.MsgProgramChange, expected: ErrUnsupportedMessage},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := h.table.AddComponent(tc.label, tc.kind, 10, 1, tc.message)
			assert.True(t, errors.Is(err, tc.expected), "unexpected error: %v", err)
			assert.Equal(t, 1, h.table.Len())
		})
	}

	assert.False(t, h.io.IsOutput(5))
	assert.NotEqual(t, nil, h.table.AddComponent("D2", config.Button, 60, 17, config.MsgNote))
}

func TestAddPotWithoutConverter(t *testing.T) {
	h := newHarness(DefaultOptions())
	h.io.DetachADC(2)

	err := h.table.AddComponent("A1", config.Potentiometer, 7, 1, config.MsgControlChange)
	assert.True(t, errors.Is(err, hw.ErrNoADC), "unexpected error: %v", err)
	assert.Equal(t, 0, h.table.Len())

	assert.Equal(t, nil, h.table.AddComponent("A1", config.Button, 60, 1, config.MsgNote))
	assert.Equal(t, nil, h.table.AddComponent("A0", config.Potentiometer, 7, 1, config.MsgControlChange))
	assert.Equal(t, 2, h.table.Len())
}

func TestAddCapacity(t *testing.T) {
	h := newHarness(Options{Capacity: 2})
	assert.Equal(t, nil, h.table.AddComponent("D2", config.Button, 60, 1, config.MsgNote))
	assert.Equal(t, nil, h.table.AddComponent("D7", config.LED, 36, 1, config.MsgNote))

	err := h.table.AddComponent("D3", config.Button, 61, 1, config.MsgNote)
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.Equal(t, 2, h.table.Len())

	assert.Equal(t, nil, h.table.Remove("D7"))
	assert.Equal(t, nil, h.table.AddComponent("D3", config.Button, 61, 1, config.MsgNote))

	slots := h.table.Slots()
	assert.Equal(t, 2, len(slots))
	assert.Equal(t, "D3", slots[1].Label)
	assert.Equal(t, 1, slots[1].Index)
}

func TestAddSetsUpPins(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D2", config.Button, 60, 1, config.MsgNote))
	assert.Equal(t, nil, h.table.AddComponent("D7", config.LED, 36, 1, config.MsgNote))

	assert.True(t, h.io.Level(3))
	assert.True(t, h.io.IsOutput(5))
	assert.False(t, h.io.Level(5))
}

func TestButtonPressRelease(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D2", config.Button, 60, 1, config.MsgNote))

	h.io.Press(3)
	h.table.Update()
	assert.Empty(t, h.drain(), "debounce window not elapsed yet")
	h.clock.Advance(filter.DefaultDebounce)
	h.table.Update()
	assert.Equal(t, []midi.Event{noteOn(60, 127)}, h.drain())

	h.tick(100)
	assert.Empty(t, h.drain())

	h.io.Release(3)
	h.settle()
	assert.Equal(t, []midi.Event{noteOff(60)}, h.drain())
}

func TestButtonBounceIgnored(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D2", config.Button, 60, 1, config.MsgNote))

	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			h.io.Press(3)
		} else {
			h.io.Release(3)
		}
		h.tick(5)
	}
	h.io.Release(3)
	h.settle()
	assert.Empty(t, h.drain())
}

func TestButtonToggle(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.Add(button("D2", config.ControlChange{Controller: 64}, config.Toggle, "")))

	const presses = 5
	var emitted []midi.Event
	for i := 0; i < presses; i++ {
		h.io.Press(3)
		h.settle()
		emitted = append(emitted, h.drain()...)

		h.io.Release(3)
		h.settle()
		assert.Empty(t, h.drain(), "release must not emit in toggle mode")
	}

	assert.Equal(t, presses, len(emitted))
	for i, ev := range emitted {
		var value uint8
		if i%2 == 0 {
			value = 127
		}
		assert.Equal(t, midi.ControlChangeEvent(0, 64, value), ev)
	}
}

func TestButtonPulse(t *testing.T) {
	for _, tc := range []struct {
		timing    config.PulseTiming
		onPress   []midi.Event
		onRelease []midi.Event
	}{
		{timing: config.OnPress, onPress: []midi.Event{noteOn(62, 127), noteOff(62)}},
		{timing: config.OnRelease, onRelease: []midi.Event{noteOn(62, 127), noteOff(62)}},
	} {
		t.Run(string(tc.timing), func(t *testing.T) {
			h := newHarness(DefaultOptions())
			assert.Equal(t, nil, h.table.Add(button("D2", config.Note{Note: 62}, config.Pulse, tc.timing)))

			h.io.Press(3)
			h.settle()
			h.tick(500)
			assert.Equal(t, tc.onPress, h.drain())

			h.io.Release(3)
			h.settle()
			assert.Equal(t, tc.onRelease, h.drain())
			assert.Equal(t, noNote, h.table.Slots()[0].Held)
		})
	}
}

func TestButtonPressOnlyMessages(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D2", config.Button, 5, 1, config.MsgProgramChange))
	assert.Equal(t, nil, h.table.AddComponent("D3", config.Button, 0, 1, config.MsgClock))

	h.io.Press(3)
	h.io.Press(4)
	h.settle()
	assert.Equal(t, []midi.Event{midi.ProgramChangeEvent(0, 5), midi.ClockEvent()}, h.drain())

	h.io.Release(3)
	h.io.Release(4)
	h.settle()
	assert.Empty(t, h.drain())
}

func TestPotEndToEnd(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("A0", config.Potentiometer, 7, 1, config.MsgControlChange))

	last := -1
	for _, tc := range []struct {
		raw      uint16
		expected int
	}{
		{raw: 0, expected: 0},
		{raw: 2047, expected: 63},
		{raw: 4095, expected: 127},
	} {
		h.io.SetAnalog(1, tc.raw)
		h.tick(300)

		events := h.drain()
		assert.NotEmpty(t, events)
		for _, ev := range events {
			assert.Equal(t, midi.ControlChange, ev.Type())
			assert.Equal(t, uint8(1), ev.Channel())
			assert.Equal(t, uint8(7), ev[1])
			if last != -1 {
				assert.GreaterOrEqual(t, abs(int(ev[2])-last), DefaultThreshold)
			}
			last = int(ev[2])
		}
		assert.InDelta(t, tc.expected, last, DefaultThreshold)

		h.tick(50)
		assert.Empty(t, h.drain(), "settled pot must stay silent")
	}
}

func TestPotFirstReadingEmits(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("A1", config.Potentiometer, 0, 1, config.MsgPitchBend))
	h.io.SetAnalog(2, 4095)
	h.table.Update()
	assert.Equal(t, []midi.Event{midi.PitchBendEvent(0, 8191)}, h.drain())
	assert.Equal(t, 127, h.table.Slots()[0].Value)
}

func TestPitchBendMapping(t *testing.T) {
	assert.Equal(t, int16(-8192), pitchBend(0))
	assert.Equal(t, int16(8191), pitchBend(127))
	assert.Equal(t, int16(64), pitchBend(64))
}

func TestScale(t *testing.T) {
	assert.Equal(t, 0, scale(0))
	assert.Equal(t, 63, scale(2047))
	assert.Equal(t, 127, scale(4095))
	assert.Equal(t, 127, scale(65535))
}

func sweepPot(autoOff time.Duration, flags config.Flags) config.ComponentConfig {
	return config.ComponentConfig{
		Label:   "A0",
		Kind:    config.Potentiometer,
		Channel: 1,
		Message: config.NoteSweep{Min: 48, Max: 72, Velocity: 100, AutoOff: autoOff},
		Flags:   flags,
	}
}

func TestSweepNote(t *testing.T) {
	var tests = []struct {
		sweep           config.NoteSweep
		level, maxLevel uint8
		note            int
	}{
		{sweep: config.NoteSweep{Min: 48, Max: 72}, level: 0, maxLevel: 31, note: noNote},
		{sweep: config.NoteSweep{Min: 48, Max: 72}, level: 1, maxLevel: 31, note: 48},
		{sweep: config.NoteSweep{Min: 48, Max: 72}, level: 16, maxLevel: 31, note: 60},
		{sweep: config.NoteSweep{Min: 48, Max: 72}, level: 31, maxLevel: 31, note: 72},
		{sweep: config.NoteSweep{Min: 60, Max: 62}, level: 31, maxLevel: 31, note: 62},
		{sweep: config.NoteSweep{Min: 60, Max: 62}, level: 16, maxLevel: 31, note: 61},
		{sweep: config.NoteSweep{Min: 60, Max: 60}, level: 31, maxLevel: 31, note: 60},
		{sweep: config.NoteSweep{Min: 60, Max: 62}, level: 1, maxLevel: 1, note: 60},
	}

	for i, test := range tests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, test.note, sweepNote(test.sweep, test.level, test.maxLevel))
		})
	}
}

func TestSweepFullScaleReachesMax(t *testing.T) {
	h := newHarness(DefaultOptions())
	cfg := sweepPot(0, config.FlagPrimary)
	cfg.Message = config.NoteSweep{Min: 60, Max: 62, Velocity: 100}
	assert.Equal(t, nil, h.table.Add(cfg))

	for raw := 0; raw <= hw.AnalogMax; raw += 64 {
		h.io.SetAnalog(1, uint16(raw))
		h.tick(1)
	}
	h.io.SetAnalog(1, hw.AnalogMax)
	h.tick(400)

	seen := map[uint8]bool{}
	var last uint8
	for _, ev := range h.drain() {
		if ev.Type() == midi.NoteOn {
			seen[ev[1]] = true
			last = ev[1]
		}
	}
	assert.Equal(t, map[uint8]bool{60: true, 61: true, 62: true}, seen)
	assert.Equal(t, uint8(62), last)
	assert.Equal(t, 62, h.table.Slots()[0].Held)
}

func TestSweepAutoOff(t *testing.T) {
	h := newHarness(DefaultOptions())
	cfg := sweepPot(500*time.Millisecond, config.FlagPrimary|config.FlagSecondary|config.FlagStructured)
	assert.Equal(t, nil, h.table.Add(cfg))

	h.io.SetAnalog(1, 4095)
	h.table.Update()
	assert.Equal(t, []midi.Event{noteOn(72, 100)}, h.drain())

	h.clock.Advance(499 * time.Millisecond)
	h.table.Update()
	assert.Empty(t, h.drain())

	h.clock.Advance(time.Millisecond)
	h.table.Update()
	assert.Equal(t, []midi.Event{noteOff(72)}, h.drain())
	assert.Equal(t, noNote, h.table.Slots()[0].Held)

	h.clock.Advance(time.Second)
	h.tick(10)
	assert.Empty(t, h.drain())

	assert.Equal(t, []item{
		{address: DefaultPotAddress, structured: true, data1: 72, data2: 100, channel: 1},
		{address: DefaultPotAddress, structured: true, data1: 72, data2: 0, channel: 1},
	}, h.queue.items)
}

func TestSweepTransitions(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.Add(sweepPot(0, config.FlagPrimary)))

	h.io.SetAnalog(1, 4095)
	h.table.Update()
	h.io.SetAnalog(1, 0)
	h.tick(400)

	events := h.drain()
	assert.Greater(t, len(events), 3)
	assert.Equal(t, noteOn(72, 100), events[0])

	held := -1
	for _, ev := range events {
		switch ev.Type() {
		case midi.NoteOn:
			assert.Equal(t, -1, held, "note on while other note is held")
			held = int(ev[1])
		case midi.NoteOff:
			assert.Equal(t, held, int(ev[1]), "note off for a note that is not held")
			held = -1
		}
	}
	assert.Equal(t, midi.NoteOff, events[len(events)-1].Type())
	assert.Equal(t, -1, held)
	assert.Equal(t, noNote, h.table.Slots()[0].Held)
}

func TestRemoveSendsNoteOff(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.Add(sweepPot(0, config.FlagPrimary)))

	h.io.SetAnalog(1, 4095)
	h.table.Update()
	assert.Equal(t, []midi.Event{noteOn(72, 100)}, h.drain())

	assert.Equal(t, nil, h.table.Remove("A0"))
	assert.Equal(t, []midi.Event{noteOff(72)}, h.drain())
	assert.Equal(t, 0, h.table.Len())

	assert.True(t, errors.Is(h.table.Remove("A0"), ErrNotFound))
	assert.True(t, errors.Is(h.table.Remove("D99"), ErrInvalidPin))
	assert.Empty(t, h.drain())
}

func TestClearReleasesEverything(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D2", config.Button, 60, 1, config.MsgNote))
	assert.Equal(t, nil, h.table.AddComponent("D7", config.LED, 36, 1, config.MsgNote))

	h.io.Press(3)
	h.settle()
	h.table.HandleNoteOn(1, 36, 127)
	assert.True(t, h.io.Level(5))
	assert.Equal(t, []midi.Event{noteOn(60, 127)}, h.drain())

	h.table.Clear()
	assert.Equal(t, []midi.Event{noteOff(60)}, h.drain())
	assert.False(t, h.io.Level(5))
	assert.Equal(t, 0, h.table.Len())
	assert.Empty(t, h.table.Slots())
}

func TestLEDRouting(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D7", config.LED, 36, 1, config.MsgNote))
	assert.Equal(t, nil, h.table.AddComponent("D8", config.LED, 10, 2, config.MsgControlChange))

	for i, tc := range []struct {
		handle func()
		pin    board.ID
		high   bool
	}{
		{handle: func() { h.table.HandleNoteOn(1, 36, 100) }, pin: 5, high: true},
		{handle: func() { h.table.HandleNoteOn(1, 36, 0) }, pin: 5, high: false},
		{handle: func() { h.table.HandleNoteOn(2, 36, 100) }, pin: 5, high: false},
		{handle: func() { h.table.HandleNoteOn(1, 37, 100) }, pin: 5, high: false},
		{handle: func() { h.table.HandleEvent(midi.NoteEvent(midi.NoteOn, 0, 36, 1)) }, pin: 5, high: true},
		{handle: func() { h.table.HandleNoteOff(1, 36, 64) }, pin: 5, high: false},
		{handle: func() { h.table.HandleControlChange(2, 10, 64) }, pin: 6, high: true},
		{handle: func() { h.table.HandleControlChange(2, 10, 63) }, pin: 6, high: false},
		{handle: func() { h.table.HandleControlChange(1, 10, 127) }, pin: 6, high: false},
		{handle: func() { h.table.HandleEvent(midi.ControlChangeEvent(1, 10, 127)) }, pin: 6, high: true},
		{handle: func() { h.table.HandleEvent(midi.NoteEvent(midi.NoteOn, 1, 10, 0)) }, pin: 6, high: true},
	} {
		tc.handle()
		assert.Equal(t, tc.high, h.io.Level(tc.pin), "case %d", i)
	}
	assert.Empty(t, h.drain())
}

func TestDimmableLED(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.Add(config.ComponentConfig{
		Label:    "D8",
		Kind:     config.LED,
		Channel:  1,
		Message:  config.ControlChange{Controller: 10},
		Flags:    config.FlagSecondary | config.FlagStructured,
		Dimmable: true,
	}))
	assert.Equal(t, nil, h.table.Add(config.ComponentConfig{
		Label:    "D7",
		Kind:     config.LED,
		Channel:  1,
		Message:  config.Note{Note: 36},
		Dimmable: true,
	}))

	for i, tc := range []struct {
		handle     func()
		pin        board.ID
		brightness uint8
	}{
		{handle: func() { h.table.HandleControlChange(1, 10, 20) }, pin: 6, brightness: 20},
		{handle: func() { h.table.HandleControlChange(1, 10, 100) }, pin: 6, brightness: 100},
		{handle: func() { h.table.HandleNoteOn(1, 36, 64) }, pin: 5, brightness: 64},
		{handle: func() { h.table.HandleNoteOff(1, 36, 64) }, pin: 5, brightness: 0},
		{handle: func() { h.table.HandleNoteOn(1, 36, 127) }, pin: 5, brightness: 127},
	} {
		tc.handle()
		assert.Equal(t, tc.brightness, h.io.Brightness(tc.pin), "case %d", i)
	}

	assert.Equal(t, []item{
		{address: DefaultLEDAddress, structured: true, data1: 10, data2: 20, channel: 1},
		{address: DefaultLEDAddress, structured: true, data1: 10, data2: 100, channel: 1},
	}, h.queue.items)

	h.table.Clear()
	assert.Equal(t, uint8(0), h.io.Brightness(5))
	assert.Equal(t, uint8(0), h.io.Brightness(6))
}

func TestSecondaryOnly(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.Add(config.ComponentConfig{
		Label:   "A1",
		Kind:    config.Potentiometer,
		Channel: 1,
		Message: config.ControlChange{Controller: 7},
		Flags:   config.FlagSecondary,
		Address: "/volume",
	}))

	h.io.SetAnalog(2, 4095)
	h.table.Update()
	assert.Empty(t, h.drain())
	assert.Equal(t, []item{{address: "/volume", value: 1}}, h.queue.items)
}

func TestReadErrorSkipsSlot(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("A0", config.Potentiometer, 7, 1, config.MsgControlChange))

	h.io.SetAnalog(1, 4095)
	h.io.Fail(1, errors.New("adc busy"))
	h.tick(10)
	assert.Empty(t, h.drain())

	h.io.Fail(1, nil)
	h.table.Update()
	assert.Equal(t, []midi.Event{midi.ControlChangeEvent(0, 7, 127)}, h.drain())
}

type mapSource map[string]string

func (m mapSource) Labels() ([]string, error) {
	var labels []string
	for label := range m {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}

func (m mapSource) Get(label string) (string, error) {
	return m[label], nil
}

func TestReload(t *testing.T) {
	h := newHarness(DefaultOptions())
	assert.Equal(t, nil, h.table.AddComponent("D8", config.LED, 40, 1, config.MsgNote))

	n, err := h.table.Reload(mapSource{
		"A0":  "role = \"potentiometer\"\ncc = 7\n",
		"D2":  "role = \"button\"\nnote = 64\n[button]\nmode = \"toggle\"\n",
		"D3":  "role = \"button\"\nnote = 300\n",
		"D7":  "role = \"led\"\nmessage = \"pitch_bend\"\n",
		"D99": "role = \"button\"\n",
		"SDA": "role = \"i2c\"\n",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, n)

	var labels []string
	for _, s := range h.table.Slots() {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"A0", "D2"}, labels)

	// first pot reading is always reported
	h.table.Update()
	assert.Equal(t, []midi.Event{midi.ControlChangeEvent(0, 7, 0)}, h.drain())

	h.io.Press(3)
	h.settle()
	assert.Equal(t, []midi.Event{noteOn(64, 127)}, h.drain())
}
