package osc

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	DefaultSize       = 32
	DefaultBatch      = 3
	DefaultRetries    = 3
	DefaultRetryDelay = time.Millisecond * 2
	DefaultPort       = 8000
)

type Config struct {
	Size       int
	Batch      int // max items handled by a single Drain
	Retries    int // additional attempts after failed send
	RetryDelay time.Duration

	Broadcast bool
	Interface Interface
	Port      int          // destination port of broadcasts
	Target    *net.UDPAddr // unicast destination
}

func DefaultConfig() Config {
	return Config{
		Size:       DefaultSize,
		Batch:      DefaultBatch,
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
		Broadcast:  true,
		Interface:  Both,
		Port:       DefaultPort,
	}
}

type Stats struct {
	Enqueued uint64
	Dropped  uint64 // queue full
	Sent     uint64
	Failed   uint64 // retries exhausted
	Skipped  uint64 // interface down
}

// Queue decouples producers from network sends. Enqueue never blocks,
// Drain sends a bounded batch with a bounded number of retries.
type Queue struct {
	cfg   Config
	link  Link
	items chan Item

	sleep func(time.Duration)
	clock func() time.Time

	enqueued, dropped, sent, failed, skipped atomic.Uint64
}

func NewQueue(cfg Config, link Link) *Queue {
	d := DefaultConfig()
	if cfg.Size <= 0 {
		cfg.Size = d.Size
	}
	if cfg.Batch <= 0 {
		cfg.Batch = d.Batch
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	return &Queue{
		cfg:   cfg,
		link:  link,
		items: make(chan Item, cfg.Size),
		sleep: time.Sleep,
		clock: time.Now,
	}
}

func (q *Queue) Enqueue(item Item) bool {
	if item.Queued.IsZero() {
		item.Queued = q.clock()
	}
	select {
	case q.items <- item:
		q.enqueued.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

func (q *Queue) EnqueueScalar(address string, value float32) bool {
	return q.Enqueue(Item{Address: address, Format: Scalar, Value: value})
}

func (q *Queue) EnqueueStructured(address string, data1, data2, channel uint8) bool {
	return q.Enqueue(Item{Address: address, Format: Structured, Data1: data1, Data2: data2, Channel: channel})
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Cap() int {
	return cap(q.items)
}

func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued: q.enqueued.Load(),
		Dropped:  q.dropped.Load(),
		Sent:     q.sent.Load(),
		Failed:   q.failed.Load(),
		Skipped:  q.skipped.Load(),
	}
}

// Drain sends at most Batch queued items, returns number of processed items.
func (q *Queue) Drain() int {
	n := 0
	for n < q.cfg.Batch {
		select {
		case item := <-q.items:
			n++
			if q.deliver(item) {
				q.sent.Add(1)
			} else {
				q.failed.Add(1)
			}
		default:
			return n
		}
	}
	return n
}

func (q *Queue) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Info("osc queue started", logger.Debug)
	for {
		select {
		case <-ctx.Done():
			log.Info("osc queue stopped", logger.Debug)
			return
		case <-ticker.C:
			q.Drain()
		}
	}
}

func (q *Queue) deliver(item Item) bool {
	payload := Encode(item)

	if !q.cfg.Broadcast {
		if q.cfg.Target == nil {
			return false
		}
		return q.send(q.cfg.Target, payload)
	}

	delivered := false
	for _, iface := range q.cfg.Interface.Members() {
		if !q.link.Up(iface) {
			q.skipped.Add(1)
			log.Info(fmt.Sprintf("interface %s down, skipping", iface), logger.Queue, zap.String("interface", iface.String()))
			continue
		}
		ip, err := q.link.Broadcast(iface)
		if err != nil {
			q.skipped.Add(1)
			log.Info(fmt.Sprintf("no broadcast address on %s: %v", iface, err), logger.Queue, zap.String("interface", iface.String()))
			continue
		}
		if q.send(&net.UDPAddr{IP: ip, Port: q.cfg.Port}, payload) {
			delivered = true
		}
	}
	return delivered
}

func (q *Queue) send(addr *net.UDPAddr, payload []byte) bool {
	for attempt := 0; attempt <= q.cfg.Retries; attempt++ {
		if attempt > 0 {
			q.sleep(q.cfg.RetryDelay)
		}
		err := q.link.Send(addr, payload)
		if err == nil {
			return true
		}
		log.Info(fmt.Sprintf("send to %s failed (attempt %d): %v", addr, attempt+1, err), logger.Queue, zap.String("address", addr.String()))
	}
	return false
}
