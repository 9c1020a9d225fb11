package hw

import (
	"errors"

	"github.com/gethiox/GPIDI/internal/pkg/board"
)

// AnalogMax is the top of the analog scale every backend reports in (12-bit).
const AnalogMax = 4095

var (
	ErrNoPin = errors.New("pin not available")
	ErrNoADC = errors.New("pin has no analog input")
)

// IO is the hardware access used by the component runtime.
// Reads are expected to return immediately.
type IO interface {
	SetupInput(id board.ID, pullUp bool) error
	SetupOutput(id board.ID) error
	DigitalRead(id board.ID) (bool, error)
	AnalogRead(id board.ID) (uint16, error)
	HasADC(id board.ID) bool
	DigitalWrite(id board.ID, high bool) error
	// PWMWrite sets output duty cycle, level 0-127 where 0 drives the pin low.
	PWMWrite(id board.ID, level uint8) error
}

// PWMMax is the level of a fully on PWM output.
const PWMMax = 127
