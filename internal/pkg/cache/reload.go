package cache

import "sync/atomic"

// Reload tells the polling loop that component table has to be rebuilt.
type Reload struct {
	flag atomic.Bool
}

func (r *Reload) Request() {
	r.flag.Store(true)
}

// Take reports pending request and clears it.
func (r *Reload) Take() bool {
	return r.flag.Swap(false)
}

func (r *Reload) Pending() bool {
	return r.flag.Load()
}
