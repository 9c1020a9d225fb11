package component

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/board"
	"github.com/gethiox/GPIDI/internal/pkg/component/config"
	"github.com/gethiox/GPIDI/internal/pkg/filter"
	"github.com/gethiox/GPIDI/internal/pkg/hw"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	DefaultCapacity  = 32
	DefaultThreshold = 3
	DefaultSweepBits = 2

	DefaultPotAddress    = "/ctl"
	DefaultButtonAddress = "/note"
	DefaultLEDAddress    = "/led"
)

const (
	neverEmitted = -1
	noNote       = -1
)

var (
	ErrCapacity           = errors.New("no free slots")
	ErrInvalidPin         = errors.New("invalid pin")
	ErrDuplicatePin       = errors.New("pin already in use")
	ErrNoAnalog           = errors.New("pin has no analog input")
	ErrNotFound           = errors.New("component not found")
	ErrUnsupportedMessage = config.ErrUnsupportedMessage
)

// Enqueuer accepts secondary output items, it must not block.
type Enqueuer interface {
	EnqueueScalar(address string, value float32) bool
	EnqueueStructured(address string, data1, data2, channel uint8) bool
}

// Source provides serialized pin records by label.
type Source interface {
	Labels() ([]string, error)
	Get(label string) (string, error)
}

type Options struct {
	Capacity  int
	Threshold int           // minimal change of 0-127 pot value that gets emitted
	Debounce  time.Duration // button debounce window
	SweepBits uint8         // hysteresis width for note sweep, in bits of 0-127 value
	Clock     func() time.Time
	Defaults  *config.Defaults

	PotAddress    string
	ButtonAddress string
	LEDAddress    string
}

func DefaultOptions() Options {
	return Options{
		Capacity:      DefaultCapacity,
		Threshold:     DefaultThreshold,
		Debounce:      filter.DefaultDebounce,
		SweepBits:     DefaultSweepBits,
		Clock:         time.Now,
		PotAddress:    DefaultPotAddress,
		ButtonAddress: DefaultButtonAddress,
		LEDAddress:    DefaultLEDAddress,
	}
}

func (o *Options) fill() {
	d := DefaultOptions()
	if o.Capacity <= 0 {
		o.Capacity = d.Capacity
	}
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.SweepBits == 0 {
		o.SweepBits = d.SweepBits
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	if o.Defaults == nil {
		o.Defaults = config.FactoryDefaults()
	}
	if o.PotAddress == "" {
		o.PotAddress = d.PotAddress
	}
	if o.ButtonAddress == "" {
		o.ButtonAddress = d.ButtonAddress
	}
	if o.LEDAddress == "" {
		o.LEDAddress = d.LEDAddress
	}
}

type slot struct {
	used    bool
	id      board.ID
	cfg     config.ComponentConfig
	address string

	// potentiometer
	adaptive *filter.Adaptive
	median   *filter.Median
	hyst     *filter.Hysteresis
	last     int

	// notes emitted by any kind
	held   int
	onTime time.Time

	// button
	debounce     *filter.Debounce
	prevStable   bool
	toggle       bool
	pulsePending bool

	// led
	ledLevel uint8
}

// SlotInfo is a snapshot of a used slot.
type SlotInfo struct {
	Index   int
	Label   string
	ID      board.ID
	Kind    config.Kind
	Message config.MessageKind
	Channel uint8
	Value   int // last emitted value, -1 if nothing was emitted yet
	Held    int // held note, -1 if none
	LED     bool
}

// Table is a fixed-capacity arena of component slots, driven by a single polling goroutine.
type Table struct {
	opts      Options
	resolver  board.Resolver
	io        hw.IO
	sender    midi.Sender
	secondary Enqueuer

	slots []slot
	pins  map[board.ID]int
	count int

	lastEvent string
}

func NewTable(opts Options, resolver board.Resolver, io hw.IO, sender midi.Sender, secondary Enqueuer) *Table {
	opts.fill()
	return &Table{
		opts:      opts,
		resolver:  resolver,
		io:        io,
		sender:    sender,
		secondary: secondary,
		slots:     make([]slot, opts.Capacity),
		pins:      make(map[board.ID]int, opts.Capacity),
	}
}

func (t *Table) Len() int {
	return t.count
}

func (t *Table) Capacity() int {
	return len(t.slots)
}

// LastEvent describes the most recent emission, for status display.
func (t *Table) LastEvent() string {
	return t.lastEvent
}

func (t *Table) defaultAddress(kind config.Kind) string {
	switch kind {
	case config.Potentiometer:
		return t.opts.PotAddress
	case config.Button:
		return t.opts.ButtonAddress
	default:
		return t.opts.LEDAddress
	}
}

// Add validates configuration and binds it to a free slot. Nothing is changed on error.
func (t *Table) Add(cfg config.ComponentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	id, ok := t.resolver.LabelToID(cfg.Label)
	if !ok {
		return fmt.Errorf("[%s] %w", cfg.Label, ErrInvalidPin)
	}
	if index, ok := t.pins[id]; ok {
		return fmt.Errorf("[%s] %w (taken by %s)", cfg.Label, ErrDuplicatePin, t.slots[index].cfg.Label)
	}
	if cfg.Kind == config.Potentiometer && !t.resolver.HasAnalog(id) {
		return fmt.Errorf("[%s] %w", cfg.Label, ErrNoAnalog)
	}
	if cfg.Kind == config.Potentiometer && !t.io.HasADC(id) {
		return fmt.Errorf("[%s] %w", cfg.Label, hw.ErrNoADC)
	}

	index := -1
	for i := range t.slots {
		if !t.slots[i].used {
			index = i
			break
		}
	}
	if index == -1 {
		return fmt.Errorf("[%s] %w (capacity: %d)", cfg.Label, ErrCapacity, len(t.slots))
	}

	var err error
	switch cfg.Kind {
	case config.Button:
		err = t.io.SetupInput(id, true)
	case config.LED:
		err = t.io.SetupOutput(id)
	}
	if err != nil {
		return fmt.Errorf("[%s] pin setup failed: %w", cfg.Label, err)
	}

	s := slot{
		used:    true,
		id:      id,
		cfg:     cfg,
		address: cfg.Address,
		last:    neverEmitted,
		held:    noNote,
	}
	if s.address == "" {
		s.address = t.defaultAddress(cfg.Kind)
	}

	switch cfg.Kind {
	case config.Potentiometer:
		_, sweep := cfg.Message.(config.NoteSweep)
		if sweep || cfg.Filter == config.FilterMedian {
			s.median = filter.NewMedian()
		} else {
			s.adaptive = filter.NewAdaptive()
		}
		if sweep {
			s.hyst = filter.NewHysteresis(t.opts.SweepBits)
		}
	case config.Button:
		s.debounce = filter.NewDebounce(t.opts.Debounce)
	}

	t.slots[index] = s
	t.pins[id] = index
	t.count++

	log.Info(fmt.Sprintf("[%s] %s added (%s, channel %d)", cfg.Label, cfg.Kind, cfg.Message.Kind(), cfg.Channel),
		logger.Info,
		zap.String("pin", cfg.Label),
		zap.Int("slot", index),
		zap.String("kind", cfg.Kind.String()),
	)
	return nil
}

// AddComponent registers component with primary output enabled and defaults for everything else.
func (t *Table) AddComponent(label string, kind config.Kind, param, channel uint8, message config.MessageKind) error {
	msg, err := config.NewMessage(message, param)
	if err != nil {
		return fmt.Errorf("[%s] %w", label, err)
	}
	return t.Add(config.ComponentConfig{
		Label:   label,
		Kind:    kind,
		Channel: channel,
		Message: msg,
		Flags:   config.FlagPrimary,
	})
}

func (t *Table) lookup(label string) (int, error) {
	id, ok := t.resolver.LabelToID(label)
	if !ok {
		return -1, fmt.Errorf("[%s] %w", label, ErrInvalidPin)
	}
	index, ok := t.pins[id]
	if !ok {
		return -1, fmt.Errorf("[%s] %w", label, ErrNotFound)
	}
	return index, nil
}

// release turns held note and lit LED off, then frees the slot.
func (t *Table) release(index int) {
	s := &t.slots[index]
	if s.held != noNote {
		t.noteOff(s, uint8(s.held))
	}
	if s.cfg.Kind == config.LED && s.ledLevel > 0 {
		if err := t.writeLED(s, 0); err != nil {
			log.Info(fmt.Sprintf("[%s] turning led off failed: %v", s.cfg.Label, err), logger.Warning)
		}
	}
	delete(t.pins, s.id)
	t.slots[index] = slot{}
	t.count--
}

func (t *Table) Remove(label string) error {
	index, err := t.lookup(label)
	if err != nil {
		return err
	}
	log.Info(fmt.Sprintf("[%s] removed", t.slots[index].cfg.Label), logger.Info, zap.Int("slot", index))
	t.release(index)
	return nil
}

func (t *Table) Clear() {
	for i := range t.slots {
		if t.slots[i].used {
			t.release(i)
		}
	}
}

// Reload clears the table and loads every component record from src.
// Broken records and bus roles are skipped, returns number of loaded components.
func (t *Table) Reload(src Source) (int, error) {
	t.Clear()

	labels, err := src.Labels()
	if err != nil {
		return 0, fmt.Errorf("listing configured pins failed: %w", err)
	}

	loaded := 0
	for _, label := range labels {
		data, err := src.Get(label)
		if err != nil {
			log.Info(fmt.Sprintf("[%s] reading config failed: %v", label, err), logger.Warning)
			continue
		}
		record, err := config.ParseRecord(label, data, t.opts.Defaults)
		if err != nil {
			log.Info(fmt.Sprintf("skipping broken config: %v", err), logger.Warning)
			continue
		}
		cfg, err := record.ToComponentConfig(label)
		if errors.Is(err, config.ErrNotComponent) {
			log.Info(fmt.Sprintf("[%s] %s bus pin, skipping", label, record.Role), logger.Debug)
			continue
		}
		if err != nil {
			log.Info(fmt.Sprintf("skipping broken config: %v", err), logger.Warning)
			continue
		}
		if err := t.Add(cfg); err != nil {
			log.Info(fmt.Sprintf("cannot add component: %v", err), logger.Warning)
			continue
		}
		loaded++
	}

	log.Info(fmt.Sprintf("components loaded: %d/%d", loaded, len(labels)), logger.Info)
	return loaded, nil
}

// Update runs a single tick over all used slots in slot order.
func (t *Table) Update() {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used {
			continue
		}
		switch s.cfg.Kind {
		case config.Potentiometer:
			t.updatePot(s)
		case config.Button:
			t.updateButton(s)
		}
	}
}

func (t *Table) Slots() []SlotInfo {
	var infos []SlotInfo
	for i, s := range t.slots {
		if !s.used {
			continue
		}
		infos = append(infos, SlotInfo{
			Index:   i,
			Label:   s.cfg.Label,
			ID:      s.id,
			Kind:    s.cfg.Kind,
			Message: s.cfg.Message.Kind(),
			Channel: s.cfg.Channel,
			Value:   s.last,
			Held:    s.held,
			LED:     s.ledLevel > 0,
		})
	}
	return infos
}

func (t *Table) debug(s *slot, format string, args ...interface{}) {
	if !s.cfg.Debug {
		return
	}
	header := s.cfg.DebugHeader
	if header == "" {
		header = fmt.Sprintf("[%s]", s.cfg.Label)
	}
	log.Info(strings.TrimSpace(header+" "+fmt.Sprintf(format, args...)), logger.Debug)
}

func (t *Table) primary(s *slot) bool {
	return s.cfg.Flags.Has(config.FlagPrimary)
}

// output emits secondary item, structured items carry data1/data2/channel, scalar ones value/127.
func (t *Table) output(s *slot, data1, data2, value uint8) {
	if t.secondary == nil || !s.cfg.Flags.Has(config.FlagSecondary) {
		return
	}
	var ok bool
	if s.cfg.Flags.Has(config.FlagStructured) {
		ok = t.secondary.EnqueueStructured(s.address, data1, data2, s.cfg.Channel)
	} else {
		ok = t.secondary.EnqueueScalar(s.address, float32(value)/127)
	}
	if !ok {
		log.Info(fmt.Sprintf("[%s] osc queue full, item dropped", s.cfg.Label), logger.Queue)
	}
}

func (t *Table) event(s *slot, ev midi.Event) {
	t.lastEvent = fmt.Sprintf("%s %s", s.cfg.Label, ev)
	level := logger.Events
	if s.cfg.Kind == config.Potentiometer {
		level = logger.Analog
	}
	log.Info(fmt.Sprintf("[%s] %s", s.cfg.Label, ev), level)
}

func (t *Table) noteOn(s *slot, note, velocity uint8) {
	if t.primary(s) {
		t.sender.NoteOn(s.cfg.Channel, note, velocity)
	}
	s.held = int(note)
	t.event(s, midi.NoteEvent(midi.NoteOn, s.cfg.Channel-1, note, velocity))
	t.output(s, note, velocity, velocity)
}

func (t *Table) noteOff(s *slot, note uint8) {
	if t.primary(s) {
		t.sender.NoteOff(s.cfg.Channel, note, 0)
	}
	if s.held == int(note) {
		s.held = noNote
	}
	t.event(s, midi.NoteEvent(midi.NoteOff, s.cfg.Channel-1, note, 0))
	t.output(s, note, 0, 0)
}
