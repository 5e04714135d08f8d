package booking

import "time"

// Interval is a half-open time range [Start, End). The start instant is
// included and the end instant is excluded so that back-to-back bookings
// can share a boundary without conflicting.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an Interval and enforces the creation invariant
// that End comes strictly after Start. Intervals violating it are never
// handed to the rest of the engine.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect. This is
// the sole overlap predicate used anywhere in the engine:
// [a1,a2) and [b1,b2) overlap iff a1 < b2 && a2 > b1.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
