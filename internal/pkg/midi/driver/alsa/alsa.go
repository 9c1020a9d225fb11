package alsa

import (
	"errors"
	"fmt"

	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi/driver"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var log = logger.GetLogger()

var ErrPortNotFound = errors.New("midi port not found")

const bufferSize = 64

type inPort struct {
	c        chan []byte
	port     drivers.In
	stopFunc func()
}

func (in *inPort) Name() string {
	return in.port.String()
}

func (in *inPort) Open() error {
	err := in.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}

	stopFn, err := in.port.Listen(func(msg []byte, milliseconds int32) {
		data := make([]byte, len(msg))
		copy(data, msg)
		select {
		case in.c <- data:
		default:
			log.Info(fmt.Sprintf("input buffer full, message dropped: %s", gomidi.Message(data)), logger.Warning)
		}
	}, drivers.ListenConfig{
		OnErr: func(err error) {
			log.Info(fmt.Sprintf("input error on %s: %v", in.port, err), logger.Warning)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to listen on device: %w", err)
	}
	in.stopFunc = stopFn
	return nil
}

func (in *inPort) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
	}
	close(in.c)
	return in.port.Close()
}

func (in *inPort) ReceiveChannel() <-chan []byte {
	return in.c
}

type outPort struct {
	c    chan []byte
	port drivers.Out
	done chan struct{}
}

func (out *outPort) Name() string {
	return out.port.String()
}

func (out *outPort) Open() error {
	err := out.port.Open()
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	out.done = make(chan struct{})
	go func() {
		defer close(out.done)
		for event := range out.c {
			if err := out.port.Send(event); err != nil {
				log.Info(fmt.Sprintf("send to %s failed: %v", out.port, err), logger.Warning)
			}
		}
	}()
	return nil
}

// Close waits until every event written before is handed over to the driver.
func (out *outPort) Close() error {
	close(out.c)
	if out.done != nil {
		<-out.done
	}
	return out.port.Close()
}

func (out *outPort) SendChannel() chan<- []byte {
	return out.c
}

func newInPort(in drivers.In) driver.MIDIIn {
	return &inPort{c: make(chan []byte, bufferSize), port: in}
}

func newOutPort(out drivers.Out) driver.MIDIOut {
	return &outPort{c: make(chan []byte, bufferSize), port: out}
}

// CreatePort opens virtual input and output visible to other applications under the given name.
func CreatePort(name string) (driver.Port, error) {
	d := drivers.Get()
	if d == nil {
		return driver.Port{}, fmt.Errorf("failed to get driver")
	}

	rtmidid, ok := d.(*rtmididrv.Driver)
	if !ok {
		return driver.Port{}, fmt.Errorf("failed to convert driver")
	}

	in, err := rtmidid.OpenVirtualIn(name)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open virtual input: %w", err)
	}
	out, err := rtmidid.OpenVirtualOut(name)
	if err != nil {
		return driver.Port{}, fmt.Errorf("failed to open virtual output: %w", err)
	}

	return driver.Port{Input: newInPort(in), Output: newOutPort(out)}, nil
}

// FindPort looks up existing ports, eg. USB interface, whose name contains name.
// Either direction may be missing.
func FindPort(name string) (driver.Port, error) {
	var port driver.Port
	if in, err := gomidi.FindInPort(name); err == nil {
		port.Input = newInPort(in)
	}
	if out, err := gomidi.FindOutPort(name); err == nil {
		port.Output = newOutPort(out)
	}
	if !port.Available() {
		return port, fmt.Errorf("%w: \"%s\"", ErrPortNotFound, name)
	}
	return port, nil
}
