package filter

import "math"

const (
	AlphaFast   = 0.3
	AlphaNormal = 0.1
	AlphaSlow   = 0.05

	FastThreshold = 50
	SlowThreshold = 10
)

// Adaptive is an exponential low-pass filter which picks its coefficient
// from the distance between incoming sample and previously returned value.
type Adaptive struct {
	initialized bool
	alpha       float64
	filtered    float64
	last        uint16
}

func NewAdaptive() *Adaptive {
	return &Adaptive{alpha: AlphaNormal}
}

func (f *Adaptive) adapt(raw uint16) {
	diff := math.Abs(float64(raw) - float64(f.last))
	switch {
	case diff > FastThreshold:
		f.alpha = AlphaFast
	case diff < SlowThreshold:
		f.alpha = AlphaSlow
	default:
		f.alpha = AlphaNormal
	}
}

func (f *Adaptive) Update(raw uint16) uint16 {
	if !f.initialized {
		f.initialized = true
		f.filtered = float64(raw)
		f.last = raw
		return raw
	}

	f.adapt(raw)
	f.filtered = f.alpha*float64(raw) + (1-f.alpha)*f.filtered
	f.last = uint16(math.Round(f.filtered))
	return f.last
}

// Alpha returns coefficient used by the most recent update.
func (f *Adaptive) Alpha() float64 {
	return f.alpha
}

func (f *Adaptive) Reset() {
	*f = Adaptive{alpha: AlphaNormal}
}
