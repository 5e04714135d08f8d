package booking

import "time"

// SpaceStatus is the administrative availability of a space. Only an
// available space accepts new reservations; maintenance and unavailable
// reject every candidate regardless of its windows.
type SpaceStatus string

const (
	SpaceAvailable   SpaceStatus = "available"
	SpaceMaintenance SpaceStatus = "maintenance"
	SpaceUnavailable SpaceStatus = "unavailable"
)

// Window is an allowed sub-range of a day, expressed as wall-clock
// "HH:MM" strings. Windows for one weekday may overlap each other;
// containment is tested against each window separately, no merging.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklySchedule maps each weekday to the windows during which a space
// may legally be booked. A weekday with no entry accepts nothing.
type WeeklySchedule map[time.Weekday][]Window

// WithinSchedule decides whether the candidate interval may be booked
// under the given space status and weekly schedule. Wall-clock
// resolution uses loc; pass time.UTC when the campus timezone is not
// configured.
//
// A candidate spanning midnight is rejected: cross-day reservations are
// out of scope, so both instants must fall on the same calendar date.
func WithinSchedule(status SpaceStatus, sched WeeklySchedule, iv Interval, loc *time.Location) bool {
	if status != SpaceAvailable {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	start := iv.Start.In(loc)
	end := iv.End.In(loc)

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return false
	}

	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()

	for _, win := range sched[start.Weekday()] {
		ws, err := parseMinutes(win.Start)
		if err != nil {
			continue
		}
		we, err := parseMinutes(win.End)
		if err != nil {
			continue
		}
		if ws <= startMin && endMin <= we {
			return true
		}
	}
	return false
}

// parseMinutes converts an "HH:MM" wall-clock string into minutes since
// midnight.
func parseMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
