package filter

import "math"

const MedianSize = 5

// Median takes median of the last MedianSize samples and smooths the median
// stream with a fixed, slow coefficient. Used for note sweeping where
// stability matters more than latency.
type Median struct {
	ring   [MedianSize]uint16
	index  int
	filled int

	initialized bool
	filtered    float64
}

func NewMedian() *Median {
	return &Median{}
}

func (f *Median) median() uint16 {
	var sorted [MedianSize]uint16
	n := f.filled
	copy(sorted[:n], f.ring[:n])

	for i := 1; i < n; i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	return sorted[n/2]
}

func (f *Median) Update(raw uint16) uint16 {
	f.ring[f.index] = raw
	f.index = (f.index + 1) % MedianSize
	if f.filled < MedianSize {
		f.filled++
	}

	m := f.median()
	if !f.initialized {
		f.initialized = true
		f.filtered = float64(m)
	} else {
		f.filtered = AlphaSlow*float64(m) + (1-AlphaSlow)*f.filtered
	}
	return uint16(math.Round(f.filtered))
}

func (f *Median) Reset() {
	*f = Median{}
}
