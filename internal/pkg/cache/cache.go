package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"github.com/gethiox/GPIDI/internal/pkg/store"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	KeyPrefix       = "pin_"
	DefaultAutoSave = time.Second * 30
)

// Defaults synthesizes records for pins without stored configuration
// and completes stored records with fields they miss.
type Defaults interface {
	Default(label string) (string, error)
	Complete(label, stored string) (string, error)
}

type Options struct {
	AutoSave time.Duration
	Clock    func() time.Time
}

type entry struct {
	value string
	dirty bool
}

// Cache is a write-back cache of pin records in front of the store.
// Writes are batched by AutoSave, removals go to the store immediately.
type Cache struct {
	mutex    sync.Mutex
	store    store.Store
	defaults Defaults
	reload   *Reload
	opts     Options

	entries  map[string]*entry
	lastSave time.Time
}

func New(s store.Store, defaults Defaults, reload *Reload, opts Options) *Cache {
	if opts.AutoSave <= 0 {
		opts.AutoSave = DefaultAutoSave
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Cache{
		store:    s,
		defaults: defaults,
		reload:   reload,
		opts:     opts,
		entries:  make(map[string]*entry),
		lastSave: opts.Clock(),
	}
}

func Key(label string) string {
	return KeyPrefix + label
}

func (c *Cache) Get(label string) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, ok := c.entries[label]; ok && e.value != "" {
		return e.value, nil
	}

	stored, err := c.store.GetString(Key(label), "")
	if err != nil {
		return "", fmt.Errorf("[%s] reading store failed: %w", label, err)
	}

	if stored != "" {
		if c.defaults != nil {
			completed, err := c.defaults.Complete(label, stored)
			if err != nil {
				log.Info(fmt.Sprintf("[%s] stored config not completed: %v", label, err), logger.Warning, zap.String("pin", label))
			} else {
				stored = completed
			}
		}
		c.entries[label] = &entry{value: stored}
		return stored, nil
	}

	if c.defaults == nil {
		return "", fmt.Errorf("[%s] %w", label, store.ErrNotFound)
	}
	return c.defaults.Default(label)
}

// Set updates cached record, store is written by the next flush.
func (c *Cache) Set(label, value string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[label] = &entry{value: value, dirty: true}
	log.Info(fmt.Sprintf("[%s] config updated", label), logger.Debug, zap.String("pin", label))
}

// Remove evicts the record and deletes it from the store right away.
func (c *Cache) Remove(label string) error {
	c.mutex.Lock()
	delete(c.entries, label)
	c.mutex.Unlock()

	err := c.store.Remove(Key(label))
	if err != nil {
		return fmt.Errorf("[%s] removing config failed: %w", label, err)
	}
	if c.reload != nil {
		c.reload.Request()
	}
	return nil
}

// Labels returns labels of cached and stored records.
func (c *Cache) Labels() ([]string, error) {
	keys, err := c.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing store keys failed: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	var set = make(map[string]bool, len(keys)+len(c.entries))
	for _, key := range keys {
		if strings.HasPrefix(key, KeyPrefix) && len(key) > len(KeyPrefix) {
			set[strings.TrimPrefix(key, KeyPrefix)] = true
		}
	}
	for label := range c.entries {
		set[label] = true
	}

	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}

func (c *Cache) Dirty() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.dirty {
			n++
		}
	}
	return n
}

// AutoSave flushes dirty records when autosave interval elapsed since the last flush.
func (c *Cache) AutoSave() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.opts.Clock().Sub(c.lastSave) < c.opts.AutoSave {
		return nil
	}
	return c.flush()
}

func (c *Cache) ForceSave() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.flush()
}

// flush writes every dirty entry, entries which failed stay dirty.
func (c *Cache) flush() error {
	c.lastSave = c.opts.Clock()

	var labels []string
	for label, e := range c.entries {
		if e.dirty {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return nil
	}
	sort.Strings(labels)

	var errs error
	written := 0
	for _, label := range labels {
		e := c.entries[label]
		err := c.store.PutString(Key(label), e.value)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("[%s] writing config failed: %w", label, err))
			continue
		}
		e.dirty = false
		written++
	}

	log.Info(fmt.Sprintf("configs saved: %d/%d", written, len(labels)), logger.Info)
	if written > 0 && c.reload != nil {
		c.reload.Request()
	}
	return errs
}

func (c *Cache) Run(ctx context.Context) {
	interval := time.Second
	if c.opts.AutoSave < interval {
		interval = c.opts.AutoSave
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.AutoSave(); err != nil {
				for _, e := range multierr.Errors(err) {
					log.Info(fmt.Sprintf("autosave: %v", e), logger.Error)
				}
			}
		}
	}
}
