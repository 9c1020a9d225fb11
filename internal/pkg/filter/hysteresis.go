package filter

const maxValue = 127

// Hysteresis discretizes 0-127 values into levels of 1<<bits width and
// ignores input wandering around center of the current level.
type Hysteresis struct {
	bits   uint8
	margin int
	offset int
	level  uint8
}

func NewHysteresis(bits uint8) *Hysteresis {
	h := Hysteresis{bits: bits, margin: (1 << bits) - 1}
	if bits > 0 {
		h.offset = 1 << (bits - 1)
	}
	return &h
}

// Center returns full-resolution center of the current level.
func (h *Hysteresis) Center() int {
	return int(h.level)<<h.bits | h.offset
}

// Bounds returns inclusive range of input values that keep current level.
func (h *Hysteresis) Bounds() (int, int) {
	center := h.Center()
	lower, upper := center-h.margin, center+h.margin
	if lower < 0 {
		lower = 0
	}
	if upper > maxValue {
		upper = maxValue
	}
	return lower, upper
}

// Update reports whether input left the dead zone, level follows the input in that case.
func (h *Hysteresis) Update(input uint8) bool {
	lower, upper := h.Bounds()
	v := int(input)
	if v < lower || v > upper {
		h.level = input >> h.bits
		return true
	}
	return false
}

func (h *Hysteresis) Level() uint8 {
	return h.level
}

// MaxLevel is the level reached by the highest input.
func (h *Hysteresis) MaxLevel() uint8 {
	return maxValue >> h.bits
}

// Value returns center of the current level.
func (h *Hysteresis) Value() uint8 {
	return uint8(h.Center())
}

func (h *Hysteresis) Reset() {
	h.level = 0
}
