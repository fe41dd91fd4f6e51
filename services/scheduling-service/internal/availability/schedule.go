package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

const DateLayout = "2006-01-02"

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(v string) (time.Duration, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", v, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// WindowsFor resolves a provider's opening windows on day (interpreted in
// loc). A DayException for that date replaces the weekday entry entirely.
// Malformed slots are skipped.
func WindowsFor(day time.Time, weekly *model.WeeklySchedule, exceptions []model.DayException, loc *time.Location) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	day = day.In(loc)
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	date := midnight.Format(DateLayout)

	var (
		open  bool
		slots []model.TimeSlot
		found bool
	)
	for _, e := range exceptions {
		if e.Date == date {
			open, slots, found = e.IsOpen, e.Slots, true
		}
	}
	if !found && weekly != nil {
		ds, ok := weekly.Schedule[int(midnight.Weekday())]
		open, slots = ok && ds.IsOpen, ds.Slots
	}
	if !open {
		return nil
	}

	var out []Interval
	for _, s := range slots {
		from, err := ParseClock(s.Start)
		if err != nil {
			continue
		}
		to, err := ParseClock(s.End)
		if err != nil || to <= from {
			continue
		}
		out = append(out, Interval{Start: midnight.Add(from), End: midnight.Add(to)})
	}
	return out
}

// BusyIntervals converts appointments into busy time, ignoring cancelled ones.
func BusyIntervals(appts []model.Appointment) []Interval {
	out := make([]Interval, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.StatusCancelled {
			continue
		}
		out = append(out, Interval{Start: a.Start, End: a.End})
	}
	return out
}
