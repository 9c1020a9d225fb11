package board

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ID identifies physical pin, on GPIO capable boards it is the GPIO number.
type ID uint8

const Invalid ID = 255

var ErrUnknownBoard = errors.New("unknown board")

type Resolver interface {
	LabelToID(label string) (ID, bool)
	HasAnalog(id ID) bool
	Label(id ID) string
	Labels() []string
}

type Pin struct {
	ID      ID
	Label   string
	Analog  bool
	Digital bool
	PWM     bool
	Touch   bool
}

type Alias struct {
	Label string
	ID    ID
}

type Board struct {
	Name string

	pins    map[ID]Pin
	labels  map[string]ID
	ordered []string
}

func New(name string, pins []Pin, aliases []Alias) *Board {
	b := Board{
		Name:   name,
		pins:   make(map[ID]Pin, len(pins)),
		labels: make(map[string]ID, len(pins)+len(aliases)),
	}

	for _, p := range pins {
		b.pins[p.ID] = p
		b.labels[strings.ToUpper(p.Label)] = p.ID
		b.ordered = append(b.ordered, p.Label)
	}
	for _, a := range aliases {
		if _, ok := b.pins[a.ID]; !ok {
			panic(fmt.Sprintf("board %s: alias %s points to unknown pin %d", name, a.Label, a.ID))
		}
		b.labels[strings.ToUpper(a.Label)] = a.ID
		b.ordered = append(b.ordered, a.Label)
	}
	return &b
}

// LabelToID resolves a label, alias or plain GPIO number ("GPIO5" or "5").
func (b *Board) LabelToID(label string) (ID, bool) {
	l := strings.ToUpper(strings.TrimSpace(label))
	if id, ok := b.labels[l]; ok {
		return id, true
	}

	n, err := strconv.Atoi(strings.TrimPrefix(l, "GPIO"))
	if err != nil || n < 0 || n >= int(Invalid) {
		return Invalid, false
	}
	if _, ok := b.pins[ID(n)]; !ok {
		return Invalid, false
	}
	return ID(n), true
}

func (b *Board) HasAnalog(id ID) bool {
	p, ok := b.pins[id]
	return ok && p.Analog
}

func (b *Board) HasDigital(id ID) bool {
	p, ok := b.pins[id]
	return ok && p.Digital
}

func (b *Board) Pin(id ID) (Pin, bool) {
	p, ok := b.pins[id]
	return p, ok
}

// Label returns primary label of the pin.
func (b *Board) Label(id ID) string {
	p, ok := b.pins[id]
	if !ok {
		return fmt.Sprintf("GPIO%d", id)
	}
	return p.Label
}

// Labels returns primary labels followed by aliases, in table order.
func (b *Board) Labels() []string {
	labels := make([]string, len(b.ordered))
	copy(labels, b.ordered)
	return labels
}

func Names() []string {
	var names []string
	for name := range boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ByName(name string) (*Board, error) {
	b, ok := boards[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: \"%s\" (available: %s)", ErrUnknownBoard, name, strings.Join(Names(), ", "))
	}
	return b, nil
}
