package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/cache"
	"github.com/gethiox/GPIDI/internal/pkg/component"
	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/midi"
	"github.com/gethiox/GPIDI/internal/pkg/osc"
	"go.uber.org/multierr"
)

var log = logger.GetLogger()

const (
	DefaultEventBuffer    = 64
	DefaultStatusInterval = time.Millisecond * 250
)

// Counter reports outcome of sends which never block.
type Counter interface {
	Sent() uint64
	Dropped() uint64
}

type Options struct {
	InlineDrain    bool // drain osc queue from the polling loop instead of a separate goroutine
	EventBuffer    int
	StatusInterval time.Duration
	Counter        Counter
}

type Status struct {
	Slots     []component.SlotInfo
	Capacity  int
	LastEvent string
	Ticks     uint64

	OSCEnabled bool
	Queue      osc.Stats
	QueueLen   int

	Dirty int

	MIDISent    uint64
	MIDIDropped uint64
}

// Bridge owns the runtime pieces and drives them from a single polling goroutine.
// Only that goroutine touches the component table.
type Bridge struct {
	table  *component.Table
	cache  *cache.Cache
	queue  *osc.Queue
	reload *cache.Reload
	events chan midi.Event
	opts   Options

	ticks     uint64
	published atomic.Pointer[Status]
}

func New(table *component.Table, c *cache.Cache, queue *osc.Queue, reload *cache.Reload, opts Options) *Bridge {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}
	if reload == nil {
		reload = &cache.Reload{}
	}
	b := &Bridge{
		table:  table,
		cache:  c,
		queue:  queue,
		reload: reload,
		events: make(chan midi.Event, opts.EventBuffer),
		opts:   opts,
	}
	b.published.Store(&Status{Capacity: table.Capacity()})
	return b
}

// Events accepts inbound midi events, they are handled by the next Update.
func (b *Bridge) Events() chan<- midi.Event {
	return b.events
}

func (b *Bridge) Reload() *cache.Reload {
	return b.reload
}

// Load rebuilds component table from the configuration cache.
func (b *Bridge) Load() (int, error) {
	return b.table.Reload(b.cache)
}

func (b *Bridge) handleEvents() {
	for {
		select {
		case ev := <-b.events:
			b.table.HandleEvent(ev)
		default:
			return
		}
	}
}

// Update is a single iteration of the polling loop.
func (b *Bridge) Update() {
	if b.reload.Take() {
		log.Info("configuration changed, reloading components", logger.Info)
		if _, err := b.Load(); err != nil {
			log.Info(fmt.Sprintf("reload failed: %v", err), logger.Error)
		}
	}

	b.handleEvents()
	b.table.Update()

	if b.opts.InlineDrain && b.queue != nil {
		b.queue.Drain()
	}
	b.ticks++
}

// Status has to be called from the polling goroutine, others use Published.
func (b *Bridge) Status() Status {
	s := Status{
		Slots:     b.table.Slots(),
		Capacity:  b.table.Capacity(),
		LastEvent: b.table.LastEvent(),
		Ticks:     b.ticks,
	}
	if b.queue != nil {
		s.OSCEnabled = true
		s.Queue = b.queue.Stats()
		s.QueueLen = b.queue.Len()
	}
	if b.cache != nil {
		s.Dirty = b.cache.Dirty()
	}
	if b.opts.Counter != nil {
		s.MIDISent = b.opts.Counter.Sent()
		s.MIDIDropped = b.opts.Counter.Dropped()
	}
	return s
}

// Published returns status snapshot taken by the polling loop.
func (b *Bridge) Published() Status {
	return *b.published.Load()
}

func (b *Bridge) publish() {
	s := b.Status()
	b.published.Store(&s)
}

// Run polls until context is done, then saves configuration and releases every component.
func (b *Bridge) Run(ctx context.Context, interval time.Duration) error {
	poll := time.NewTicker(interval)
	defer poll.Stop()
	status := time.NewTicker(b.opts.StatusInterval)
	defer status.Stop()

	log.Info(fmt.Sprintf("polling started (%s)", interval), logger.Debug)
root:
	for {
		select {
		case <-ctx.Done():
			break root
		case <-poll.C:
			b.Update()
		case <-status.C:
			b.publish()
		}
	}
	log.Info("polling stopped", logger.Debug)
	return b.shutdown()
}

func (b *Bridge) shutdown() error {
	var err error
	if b.cache != nil {
		err = multierr.Append(err, b.cache.ForceSave())
	}
	b.table.Clear()
	if b.queue != nil {
		for b.queue.Drain() > 0 {
		}
	}
	b.publish()
	return err
}
