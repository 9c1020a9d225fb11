package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gethiox/GPIDI/internal/pkg/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

var (
	ErrNotFound   = errors.New("key not found")
	ErrInvalidKey = errors.New("invalid key")
)

var keyRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Store is a persistent string key/value storage.
type Store interface {
	GetString(key, def string) (string, error)
	PutString(key, value string) error
	IsKey(key string) bool
	Remove(key string) error
	Keys() ([]string, error)
}

func checkKey(key string) error {
	if !keyRegex.MatchString(key) {
		return fmt.Errorf("%w: \"%s\"", ErrInvalidKey, key)
	}
	return nil
}

const tempSuffix = ".tmp"

// Dir keeps every key in its own file under a directory.
type Dir struct {
	mutex sync.Mutex
	path  string

	// last value written or removal made through this Dir, per key
	written map[string]string
	removed map[string]bool
}

func OpenDir(path string) (*Dir, error) {
	err := os.MkdirAll(path, 0o777)
	if err != nil {
		return nil, fmt.Errorf("cannot create \"%s\" directory: %w", path, err)
	}
	return &Dir{
		path:    path,
		written: make(map[string]string),
		removed: make(map[string]bool),
	}, nil
}

// Own reports whether the current state of key on disk is the one this Dir left.
func (d *Dir) Own(key string) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	data, err := os.ReadFile(d.file(key))
	if errors.Is(err, os.ErrNotExist) {
		return d.removed[key]
	}
	if err != nil {
		return false
	}
	value, ok := d.written[key]
	return ok && value == string(data)
}

func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) file(key string) string {
	return filepath.Join(d.path, key)
}

func (d *Dir) GetString(key, def string) (string, error) {
	if err := checkKey(key); err != nil {
		return def, err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	data, err := os.ReadFile(d.file(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return def, nil
		}
		return def, fmt.Errorf("cannot read \"%s\" key: %w", key, err)
	}
	return string(data), nil
}

// PutString writes into temporary file first and renames it, readers never see partial value.
func (d *Dir) PutString(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()

	tmp := d.file(key) + tempSuffix
	err := os.WriteFile(tmp, []byte(value), 0o666)
	if err != nil {
		return fmt.Errorf("cannot write \"%s\" key: %w", key, err)
	}
	err = os.Rename(tmp, d.file(key))
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot write \"%s\" key: %w", key, err)
	}
	d.written[key] = value
	delete(d.removed, key)
	log.Info(fmt.Sprintf("key stored: %s", key), logger.Debug, zap.String("key", key))
	return nil
}

func (d *Dir) IsKey(key string) bool {
	if checkKey(key) != nil {
		return false
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	info, err := os.Stat(d.file(key))
	return err == nil && info.Mode().IsRegular()
}

func (d *Dir) Remove(key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	err := os.Remove(d.file(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove \"%s\" key: %w", key, err)
	}
	d.removed[key] = true
	delete(d.written, key)
	return nil
}

func (d *Dir) Keys() ([]string, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("cannot read \"%s\" directory: %w", d.path, err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, tempSuffix) || !keyRegex.MatchString(name) {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys, nil
}

// Memory is an in-memory Store which counts accesses.
type Memory struct {
	mutex  sync.Mutex
	values map[string]string
	fail   map[string]error

	gets, puts atomic.Int64
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
		fail:   make(map[string]error),
	}
}

func (m *Memory) GetString(key, def string) (string, error) {
	m.gets.Add(1)
	m.mutex.Lock()
	defer m.mutex.Unlock()
	v, ok := m.values[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

func (m *Memory) PutString(key, value string) error {
	m.puts.Add(1)
	if err := checkKey(key); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.fail[key]; err != nil {
		return err
	}
	m.values[key] = value
	return nil
}

func (m *Memory) IsKey(key string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	_, ok := m.values[key]
	return ok
}

func (m *Memory) Remove(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// FailPuts makes writes of the key fail with err, nil restores writes.
func (m *Memory) FailPuts(key string, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err == nil {
		delete(m.fail, key)
		return
	}
	m.fail[key] = err
}

func (m *Memory) Gets() int64 {
	return m.gets.Load()
}

func (m *Memory) Puts() int64 {
	return m.puts.Load()
}
