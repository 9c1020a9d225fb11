package filter

import "time"

const DefaultDebounce = time.Millisecond * 30

// Debounce trusts a digital reading only after it stayed unchanged for the whole window.
type Debounce struct {
	window     time.Duration
	lastRaw    bool
	stable     bool
	lastChange time.Time
}

func NewDebounce(window time.Duration) *Debounce {
	return &Debounce{window: window}
}

func (d *Debounce) Update(raw bool, now time.Time) bool {
	if raw != d.lastRaw {
		d.lastRaw = raw
		d.lastChange = now
	}

	if d.stable != d.lastRaw && now.Sub(d.lastChange) >= d.window {
		d.stable = d.lastRaw
	}
	return d.stable
}

func (d *Debounce) Stable() bool {
	return d.stable
}

func (d *Debounce) Window() time.Duration {
	return d.window
}
