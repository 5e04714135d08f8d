package booking

// Booked is the view of an existing reservation that conflict detection
// needs: its identity, its interval and its status. The checker never
// mutates anything and never touches a store.
type Booked struct {
	ID       uint64
	Interval Interval
	Status   Status
}

// Conflicts returns the blocking reservations among existing whose
// intervals overlap the candidate. Non-blocking records (rejected,
// cancelled) are skipped, and so is the record whose ID equals
// excludeID; updates pass their own reservation ID there so that a
// reservation never conflicts with itself. Pass excludeID zero for
// creations. The returned slice is empty when the candidate is free.
func Conflicts(candidate Interval, existing []Booked, excludeID uint64) []Booked {
	var found []Booked
	for _, b := range existing {
		if excludeID != 0 && b.ID == excludeID {
			continue
		}
		if !b.Status.Blocking() {
			continue
		}
		if candidate.Overlaps(b.Interval) {
			found = append(found, b)
		}
	}
	return found
}
