package driver

import "fmt"

type MIDIPort interface {
	Name() string
	Open() error
	Close() error
}

type MIDIIn interface {
	MIDIPort
	ReceiveChannel() <-chan []byte
}

type MIDIOut interface {
	MIDIPort
	SendChannel() chan<- []byte
}

// Port pairs both directions of a single device, either side may be nil.
type Port struct {
	Input  MIDIIn
	Output MIDIOut
}

// Available reports whether port has any direction at all.
func (p *Port) Available() bool {
	return p.Input != nil || p.Output != nil
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

func (p *Port) String() string {
	switch {
	case !p.Available():
		return "(none)"
	case p.Input == nil:
		return fmt.Sprintf("%s (Output only)", p.Output.Name())
	case p.Output == nil:
		return fmt.Sprintf("%s (Input only)", p.Input.Name())
	}
	return fmt.Sprintf("%s (Input/Output)", commonPrefix(p.Input.Name(), p.Output.Name()))
}
