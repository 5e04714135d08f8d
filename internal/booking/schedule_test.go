package booking

import (
	"testing"
	"time"
)

func TestWithinSchedule(t *testing.T) {
	sched := WeeklySchedule{
		time.Monday: {
			{Start: "09:00", End: "12:00"},
			{Start: "14:00", End: "18:00"},
		},
	}

	cases := []struct {
		name   string
		status SpaceStatus
		iv     Interval
		want   bool
	}{
		{"inside window", SpaceAvailable, Interval{at(10, 0), at(11, 0)}, true},
		{"exactly the window", SpaceAvailable, Interval{at(9, 0), at(12, 0)}, true},
		{"starts before window", SpaceAvailable, Interval{at(8, 30), at(10, 0)}, false},
		{"ends after window", SpaceAvailable, Interval{at(11, 0), at(12, 30)}, false},
		{"straddles two windows", SpaceAvailable, Interval{at(11, 0), at(15, 0)}, false},
		{"second window", SpaceAvailable, Interval{at(14, 0), at(18, 0)}, true},
		{"weekday without windows", SpaceAvailable, Interval{base.AddDate(0, 0, 1), base.AddDate(0, 0, 1).Add(time.Hour)}, false},
		{"maintenance rejects everything", SpaceMaintenance, Interval{at(10, 0), at(11, 0)}, false},
		{"unavailable rejects everything", SpaceUnavailable, Interval{at(10, 0), at(11, 0)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WithinSchedule(tc.status, sched, tc.iv, time.UTC); got != tc.want {
				t.Fatalf("WithinSchedule = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWithinScheduleCrossMidnight(t *testing.T) {
	sched := WeeklySchedule{
		time.Monday:  {{Start: "00:00", End: "23:59"}},
		time.Tuesday: {{Start: "00:00", End: "23:59"}},
	}
	iv := Interval{at(23, 0), at(23, 0).Add(2 * time.Hour)}
	if WithinSchedule(SpaceAvailable, sched, iv, time.UTC) {
		t.Fatal("interval spanning midnight must be rejected")
	}
}

func TestWithinScheduleUsesLocation(t *testing.T) {
	// 10:00 Monday UTC is 13:00 Monday in UTC+3. A window that only
	// covers the afternoon must accept the candidate once evaluated in
	// the campus timezone.
	loc := time.FixedZone("campus", 3*60*60)
	sched := WeeklySchedule{
		time.Monday: {{Start: "13:00", End: "15:00"}},
	}
	iv := Interval{at(10, 0), at(11, 0)}
	if !WithinSchedule(SpaceAvailable, sched, iv, loc) {
		t.Fatal("expected candidate inside the window in campus time")
	}
	if WithinSchedule(SpaceAvailable, sched, iv, time.UTC) {
		t.Fatal("same candidate must fall outside the window in UTC")
	}
}

func TestWithinScheduleSkipsMalformedWindows(t *testing.T) {
	sched := WeeklySchedule{
		time.Monday: {
			{Start: "not-a-time", End: "12:00"},
			{Start: "09:00", End: "12:00"},
		},
	}
	iv := Interval{at(10, 0), at(11, 0)}
	if !WithinSchedule(SpaceAvailable, sched, iv, time.UTC) {
		t.Fatal("malformed window must be skipped, not fail the whole check")
	}
}
