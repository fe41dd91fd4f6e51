package availability

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// AvailableSlots returns slot start times inside the windows where a booking
// of length duration fits and overlaps none of the busy intervals. Starts
// before now are skipped.
//
// All times are expected to be in the same location (timezone).
func AvailableSlots(windows []Interval, duration, step time.Duration, busy []Interval, now time.Time) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var slots []time.Time
	for _, w := range windows {
		if !w.End.After(w.Start) {
			continue
		}
		for t := w.Start; !t.Add(duration).After(w.End); t = t.Add(step) {
			if t.Before(now) {
				continue
			}
			if !Overlaps(t, t.Add(duration), busy) {
				slots = append(slots, t)
			}
		}
	}
	return slots
}

// Overlaps reports whether [start,end) intersects any busy interval.
func Overlaps(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		// Half-open intervals: [start,end) overlaps [b.Start,b.End) iff start < b.End && b.Start < end.
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// Fits reports whether [start,end) lies entirely inside one window.
func Fits(start, end time.Time, windows []Interval) bool {
	for _, w := range windows {
		if !start.Before(w.Start) && !end.After(w.End) {
			return true
		}
	}
	return false
}
