package engine

// RollRange bounds the integer rolls a challenge produces. The width is a
// game-balance parameter, not a correctness invariant; what matters is that
// the same seed material always maps to the same roll.
type RollRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultRollRange is used when a challenge does not override it.
var DefaultRollRange = RollRange{Min: 1, Max: 100}

// Width returns the number of distinct rolls in the range.
func (r RollRange) Width() uint64 {
	return uint64(r.Max-r.Min) + 1
}

// Valid reports whether the range is usable for roll derivation.
func (r RollRange) Valid() bool {
	return r.Max >= r.Min
}
