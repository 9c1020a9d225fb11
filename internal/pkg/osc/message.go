package osc

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

type Format uint8

const (
	Scalar     Format = iota // single float argument
	Structured               // data1, data2, channel int arguments
)

func (f Format) String() string {
	switch f {
	case Scalar:
		return "scalar"
	case Structured:
		return "structured"
	default:
		return fmt.Sprintf("format(%d)", uint8(f))
	}
}

// Item is a single outbound message waiting in the queue.
type Item struct {
	Address string
	Format  Format
	Value   float32
	Data1   uint8
	Data2   uint8
	Channel uint8
	Queued  time.Time
}

func pad(n int) int {
	return (4 - n%4) % 4
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, s...)
	buf = append(buf, 0)
	for i := 0; i < pad(len(s)+1); i++ {
		buf = append(buf, 0)
	}
	return buf
}

// Encode serializes item into OSC 1.0 message.
func Encode(item Item) []byte {
	var buf []byte
	buf = appendString(buf, item.Address)

	switch item.Format {
	case Structured:
		buf = appendString(buf, ",iii")
		for _, v := range []uint8{item.Data1, item.Data2, item.Channel} {
			buf = binary.BigEndian.AppendUint32(buf, uint32(int32(v)))
		}
	default:
		buf = appendString(buf, ",f")
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(item.Value))
	}
	return buf
}

func readString(data []byte, pos int) (string, int, error) {
	end := pos
	for end < len(data) && data[end] != 0 {
		end++
	}
	if end == len(data) {
		return "", 0, fmt.Errorf("osc: unterminated string")
	}
	return string(data[pos:end]), end + 1 + pad(end-pos+1), nil
}

// Decode parses OSC message with int32, float32 and string arguments.
func Decode(data []byte) (string, []any, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("osc: message too short")
	}

	address, pos, err := readString(data, 0)
	if err != nil {
		return "", nil, err
	}
	if pos >= len(data) || data[pos] != ',' {
		return address, nil, nil
	}

	typetag, pos, err := readString(data, pos)
	if err != nil {
		return address, nil, err
	}

	var args []any
	for _, t := range typetag[1:] {
		switch t {
		case 'i':
			if pos+4 > len(data) {
				return address, args, fmt.Errorf("osc: truncated int32")
			}
			args = append(args, int32(binary.BigEndian.Uint32(data[pos:])))
			pos += 4
		case 'f':
			if pos+4 > len(data) {
				return address, args, fmt.Errorf("osc: truncated float32")
			}
			args = append(args, math.Float32frombits(binary.BigEndian.Uint32(data[pos:])))
			pos += 4
		case 's':
			var s string
			s, pos, err = readString(data, pos)
			if err != nil {
				return address, args, err
			}
			args = append(args, s)
		default:
			return address, args, fmt.Errorf("osc: unsupported type tag: %c", t)
		}
	}
	return address, args, nil
}
