package hw

import (
	"fmt"
	"sync"

	"github.com/gethiox/GPIDI/internal/pkg/board"
)

type Write struct {
	ID   board.ID
	High bool
}

// Mock keeps pin levels in memory, used for tests and hardware-less runs.
// Unconfigured digital inputs read high, like a floating pull-up.
type Mock struct {
	mutex   sync.Mutex
	levels  map[board.ID]bool
	analog  map[board.ID]uint16
	inputs  map[board.ID]bool
	outputs map[board.ID]bool
	fail    map[board.ID]error
	noADC   map[board.ID]bool
	duty    map[board.ID]uint8
	writes  []Write
}

func NewMock() *Mock {
	return &Mock{
		levels:  make(map[board.ID]bool),
		analog:  make(map[board.ID]uint16),
		inputs:  make(map[board.ID]bool),
		outputs: make(map[board.ID]bool),
		fail:    make(map[board.ID]error),
		noADC:   make(map[board.ID]bool),
		duty:    make(map[board.ID]uint8),
	}
}

func (m *Mock) SetupInput(id board.ID, pullUp bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.inputs[id] = pullUp
	if _, ok := m.levels[id]; !ok {
		m.levels[id] = pullUp
	}
	return nil
}

func (m *Mock) SetupOutput(id board.ID) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.outputs[id] = true
	m.levels[id] = false
	return nil
}

func (m *Mock) DigitalRead(id board.ID) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.fail[id]; err != nil {
		return false, err
	}
	level, ok := m.levels[id]
	if !ok {
		return true, nil
	}
	return level, nil
}

func (m *Mock) AnalogRead(id board.ID) (uint16, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.fail[id]; err != nil {
		return 0, err
	}
	return m.analog[id], nil
}

// HasADC is true for every pin unless detached with DetachADC.
func (m *Mock) HasADC(id board.ID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return !m.noADC[id]
}

func (m *Mock) DetachADC(id board.ID) {
	m.mutex.Lock()
	m.noADC[id] = true
	m.mutex.Unlock()
}

func (m *Mock) DigitalWrite(id board.ID, high bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.outputs[id] {
		return fmt.Errorf("%w: %d is not an output", ErrNoPin, id)
	}
	m.levels[id] = high
	m.duty[id] = 0
	if high {
		m.duty[id] = PWMMax
	}
	m.writes = append(m.writes, Write{ID: id, High: high})
	return nil
}

func (m *Mock) PWMWrite(id board.ID, level uint8) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if !m.outputs[id] {
		return fmt.Errorf("%w: %d is not an output", ErrNoPin, id)
	}
	if level > PWMMax {
		level = PWMMax
	}
	m.levels[id] = level > 0
	m.duty[id] = level
	return nil
}

// Brightness returns last duty level of the output, 0-PWMMax.
func (m *Mock) Brightness(id board.ID) uint8 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.duty[id]
}

// SetLevel sets digital level seen by following reads.
func (m *Mock) SetLevel(id board.ID, high bool) {
	m.mutex.Lock()
	m.levels[id] = high
	m.mutex.Unlock()
}

// Press pulls pull-up input low, as a button wired to ground does.
func (m *Mock) Press(id board.ID) {
	m.SetLevel(id, false)
}

func (m *Mock) Release(id board.ID) {
	m.SetLevel(id, true)
}

func (m *Mock) SetAnalog(id board.ID, value uint16) {
	if value > AnalogMax {
		value = AnalogMax
	}
	m.mutex.Lock()
	m.analog[id] = value
	m.mutex.Unlock()
}

// Fail makes every read of the pin return err, nil clears it.
func (m *Mock) Fail(id board.ID, err error) {
	m.mutex.Lock()
	if err == nil {
		delete(m.fail, id)
	} else {
		m.fail[id] = err
	}
	m.mutex.Unlock()
}

func (m *Mock) Level(id board.ID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.levels[id]
}

func (m *Mock) IsOutput(id board.ID) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.outputs[id]
}

func (m *Mock) Writes() []Write {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	w := make([]Write, len(m.writes))
	copy(w, m.writes)
	return w
}
