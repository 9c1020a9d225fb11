package hw

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3/analog"
)

func TestScale(t *testing.T) {
	for i, tc := range []struct {
		raw, min, max int32
		expected      uint16
	}{
		{raw: 0, min: 0, max: 32767, expected: 0},
		{raw: 32767, min: 0, max: 32767, expected: AnalogMax},
		{raw: 40000, min: 0, max: 32767, expected: AnalogMax},
		{raw: -5, min: 0, max: 32767, expected: 0},
		{raw: 0, min: -32768, max: 32767, expected: 2047},
		{raw: 512, min: 0, max: 1023, expected: 2049},
		{raw: 10, min: 5, max: 5, expected: 0},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			assert.Equal(t, tc.expected, scale(tc.raw, tc.min, tc.max))
		})
	}
}

func TestMock(t *testing.T) {
	m := NewMock()

	assert.Equal(t, nil, m.SetupInput(3, true))
	level, err := m.DigitalRead(3)
	assert.Equal(t, nil, err)
	assert.True(t, level)

	m.Press(3)
	level, _ = m.DigitalRead(3)
	assert.False(t, level)

	assert.NotEqual(t, nil, m.DigitalWrite(4, true))
	assert.Equal(t, nil, m.SetupOutput(4))
	assert.Equal(t, nil, m.DigitalWrite(4, true))
	assert.True(t, m.Level(4))
	assert.Equal(t, []Write{{ID: 4, High: true}}, m.Writes())
	assert.Equal(t, uint8(PWMMax), m.Brightness(4))

	assert.NotEqual(t, nil, m.PWMWrite(5, 10))
	assert.Equal(t, nil, m.PWMWrite(4, 40))
	assert.Equal(t, uint8(40), m.Brightness(4))
	assert.True(t, m.Level(4))
	assert.Equal(t, nil, m.PWMWrite(4, 0))
	assert.False(t, m.Level(4))
	assert.Equal(t, nil, m.PWMWrite(4, 200))
	assert.Equal(t, uint8(PWMMax), m.Brightness(4))

	m.SetAnalog(2, 5000)
	v, err := m.AnalogRead(2)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(AnalogMax), v)

	boom := errors.New("boom")
	m.Fail(2, boom)
	_, err = m.AnalogRead(2)
	assert.True(t, errors.Is(err, boom))
	m.Fail(2, nil)
	_, err = m.AnalogRead(2)
	assert.Equal(t, nil, err)

	assert.True(t, m.HasADC(2))
	m.DetachADC(2)
	assert.False(t, m.HasADC(2))
}

type fakeConverter struct {
	mutex sync.Mutex
	raw   int32
	err   error
	reads int
}

func (f *fakeConverter) Read() (analog.Sample, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.reads++
	return analog.Sample{Raw: f.raw}, f.err
}

func (f *fakeConverter) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{Raw: 0}, analog.Sample{Raw: 32767}
}

func (f *fakeConverter) String() string {
	return "fake"
}

func (f *fakeConverter) set(raw int32, err error) {
	f.mutex.Lock()
	f.raw, f.err = raw, err
	f.mutex.Unlock()
}

func TestSampler(t *testing.T) {
	conv := &fakeConverter{raw: 100}
	s := StartSampler(conv, time.Millisecond)

	sample, err := s.Read()
	assert.Equal(t, nil, err)
	assert.Equal(t, int32(100), sample.Raw)

	conv.set(200, nil)
	assert.Eventually(t, func() bool {
		sample, err := s.Read()
		return err == nil && sample.Raw == 200
	}, time.Second, time.Millisecond)

	boom := errors.New("i2c nack")
	conv.set(300, boom)
	assert.Eventually(t, func() bool {
		_, err := s.Read()
		return errors.Is(err, boom)
	}, time.Second, time.Millisecond)

	assert.Equal(t, nil, s.Close())
	assert.Equal(t, nil, s.Close())
}

func TestSamplerFirstReadFails(t *testing.T) {
	boom := errors.New("i2c nack")
	s := StartSampler(&fakeConverter{err: boom}, time.Hour)
	defer s.Close()

	_, err := s.Read()
	assert.True(t, errors.Is(err, boom))
}

func TestPeriphAnalog(t *testing.T) {
	p := newPeriph()
	assert.False(t, p.HasADC(100))
	_, err := p.AnalogRead(100)
	assert.True(t, errors.Is(err, ErrNoADC))

	conv := &fakeConverter{raw: 32767}
	s := StartSampler(conv, time.Hour)
	p.closers = append(p.closers, s.Close)
	p.RegisterADC(100, s)

	assert.True(t, p.HasADC(100))
	v, err := p.AnalogRead(100)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(AnalogMax), v)

	assert.Equal(t, nil, p.Close())
	assert.Equal(t, nil, p.Close())
}
