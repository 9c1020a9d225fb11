package hw

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/board"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

var ErrNotSampled = errors.New("no sample taken yet")

// analogSource is the reading side of analog.PinADC.
type analogSource interface {
	Read() (analog.Sample, error)
	Range() (analog.Sample, analog.Sample)
	String() string
}

type converterPin interface {
	analogSource
	Halt() error
}

// ADCConfig describes ADS1015/ADS1115 converter on I2C bus.
type ADCConfig struct {
	Chip       string // ads1015 or ads1115
	Bus        string // i2creg name, empty picks the first bus
	Address    uint16
	Channels   int
	MaxVoltage physic.ElectricPotential
	Rate       physic.Frequency
}

var adsChannels = []ads1x15.Channel{ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3}

// OpenADS1x15 registers single-ended converter channels as pins
// board.ADCChannelBase+n. Channels are sampled in background at cfg.Rate.
func (p *Periph) OpenADS1x15(cfg ADCConfig) error {
	if cfg.Channels < 1 || cfg.Channels > len(adsChannels) {
		return fmt.Errorf("unsupported channel count: %d", cfg.Channels)
	}
	if cfg.Rate < physic.Hertz {
		return fmt.Errorf("sample rate too low: %s", cfg.Rate)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return fmt.Errorf("cannot open i2c bus \"%s\": %w", cfg.Bus, err)
	}

	opts := ads1x15.Opts{I2cAddress: cfg.Address}
	var dev *ads1x15.Dev
	switch cfg.Chip {
	case "ads1015":
		dev, err = ads1x15.NewADS1015(bus, &opts)
	case "ads1115":
		dev, err = ads1x15.NewADS1115(bus, &opts)
	default:
		err = fmt.Errorf("unsupported converter: \"%s\"", cfg.Chip)
	}
	if err != nil {
		bus.Close()
		return err
	}

	p.mutex.Lock()
	p.closers = append(p.closers, bus.Close)
	p.mutex.Unlock()

	interval := time.Second / time.Duration(cfg.Rate/physic.Hertz)
	for n, ch := range adsChannels[:cfg.Channels] {
		pin, err := dev.PinForChannel(ch, cfg.MaxVoltage, cfg.Rate, ads1x15.SaveEnergy)
		if err != nil {
			return fmt.Errorf("%s channel %d: %w", cfg.Chip, n, err)
		}
		var cp converterPin = pin
		sampler := StartSampler(cp, interval)

		p.mutex.Lock()
		p.closers = append(p.closers, sampler.Close, cp.Halt)
		p.mutex.Unlock()

		p.RegisterADC(board.ADCChannelBase+board.ID(n), sampler)
	}

	log.Info(fmt.Sprintf("%s ready (%d channels, %s)", cfg.Chip, cfg.Channels, cfg.Rate), logger.Info,
		zap.String("address", fmt.Sprintf("0x%02x", cfg.Address)))
	return nil
}

// Sampler keeps the latest sample of a slow converter channel, so reads
// from the polling loop never wait for a conversion.
type Sampler struct {
	adc      analogSource
	interval time.Duration

	mutex  sync.Mutex
	sample analog.Sample
	err    error
	failed bool

	stop chan struct{}
	done chan struct{}
}

// StartSampler takes the first sample before returning.
func StartSampler(adc analogSource, interval time.Duration) *Sampler {
	s := Sampler{
		adc:      adc,
		interval: interval,
		err:      ErrNotSampled,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.take()
	go s.run()
	return &s
}

func (s *Sampler) take() {
	sample, err := s.adc.Read()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if err != nil {
		if !s.failed {
			log.Info(fmt.Sprintf("sampling %s failed: %v", s.adc, err), logger.Warning)
		}
		s.failed = true
		s.err = err
		return
	}
	if s.failed {
		log.Info(fmt.Sprintf("sampling %s recovered", s.adc), logger.Info)
	}
	s.failed = false
	s.sample, s.err = sample, nil
}

func (s *Sampler) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.take()
		}
	}
}

func (s *Sampler) Read() (analog.Sample, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sample, s.err
}

func (s *Sampler) Range() (analog.Sample, analog.Sample) {
	return s.adc.Range()
}

func (s *Sampler) String() string {
	return s.adc.String()
}

func (s *Sampler) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return nil
}
