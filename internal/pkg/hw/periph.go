package hw

import (
	"fmt"
	"sync"

	"github.com/gethiox/GPIDI/internal/pkg/board"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const pwmFrequency = physic.KiloHertz

var log = logger.GetLogger()

// Periph talks to the GPIO header through periph.io drivers.
type Periph struct {
	mutex   sync.Mutex
	pins    map[board.ID]gpio.PinIO
	adcs    map[board.ID]analogSource
	closers []func() error
}

func newPeriph() *Periph {
	return &Periph{
		pins: make(map[board.ID]gpio.PinIO),
		adcs: make(map[board.ID]analogSource),
	}
}

func NewPeriph() (*Periph, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("periph host init failed: %w", err)
	}
	for _, d := range state.Loaded {
		log.Info(fmt.Sprintf("periph driver loaded: %s", d), logger.Debug)
	}

	return newPeriph(), nil
}

// RegisterADC binds analog channel to the pin ID, eg. external I2C converter channel.
func (p *Periph) RegisterADC(id board.ID, adc analogSource) {
	p.mutex.Lock()
	p.adcs[id] = adc
	p.mutex.Unlock()
	log.Info(fmt.Sprintf("analog channel registered: %s", adc), logger.Debug, zap.String("pin", fmt.Sprint(id)))
}

func (p *Periph) HasADC(id board.ID) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	_, ok := p.adcs[id]
	return ok
}

// Close stops converter sampling and releases buses, last opened first.
func (p *Periph) Close() error {
	p.mutex.Lock()
	closers := p.closers
	p.closers = nil
	p.mutex.Unlock()

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i]())
	}
	return err
}

func (p *Periph) pin(id board.ID) (gpio.PinIO, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	pin, ok := p.pins[id]
	if ok {
		return pin, nil
	}

	pin = gpioreg.ByName(fmt.Sprintf("GPIO%d", id))
	if pin == nil {
		return nil, fmt.Errorf("%w: GPIO%d", ErrNoPin, id)
	}
	p.pins[id] = pin
	return pin, nil
}

func (p *Periph) SetupInput(id board.ID, pullUp bool) error {
	pin, err := p.pin(id)
	if err != nil {
		return err
	}
	pull := gpio.Float
	if pullUp {
		pull = gpio.PullUp
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return fmt.Errorf("cannot set %s as input: %w", pin, err)
	}
	return nil
}

func (p *Periph) SetupOutput(id board.ID) error {
	pin, err := p.pin(id)
	if err != nil {
		return err
	}
	if err := pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("cannot set %s as output: %w", pin, err)
	}
	return nil
}

func (p *Periph) DigitalRead(id board.ID) (bool, error) {
	pin, err := p.pin(id)
	if err != nil {
		return false, err
	}
	return pin.Read() == gpio.High, nil
}

func (p *Periph) DigitalWrite(id board.ID, high bool) error {
	pin, err := p.pin(id)
	if err != nil {
		return err
	}
	return pin.Out(gpio.Level(high))
}

func (p *Periph) PWMWrite(id board.ID, level uint8) error {
	pin, err := p.pin(id)
	if err != nil {
		return err
	}
	if level == 0 {
		return pin.Out(gpio.Low)
	}
	if level > PWMMax {
		level = PWMMax
	}
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(level) / PWMMax)
	if err := pin.PWM(duty, pwmFrequency); err != nil {
		return fmt.Errorf("cannot set %s duty to %s: %w", pin, duty, err)
	}
	return nil
}

// AnalogRead rescales raw sample from converter range into 0-AnalogMax.
func (p *Periph) AnalogRead(id board.ID) (uint16, error) {
	p.mutex.Lock()
	adc, ok := p.adcs[id]
	p.mutex.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoADC, id)
	}

	sample, err := adc.Read()
	if err != nil {
		return 0, fmt.Errorf("reading %s failed: %w", adc, err)
	}
	min, max := adc.Range()
	return scale(sample.Raw, min.Raw, max.Raw), nil
}

func scale(raw, min, max int32) uint16 {
	if max <= min {
		return 0
	}
	if raw <= min {
		return 0
	}
	if raw >= max {
		return AnalogMax
	}
	return uint16(int64(raw-min) * AnalogMax / int64(max-min))
}
