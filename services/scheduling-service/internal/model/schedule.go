package model

// TimeSlot is a wall-clock range in "HH:MM" form.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type DaySchedule struct {
	IsOpen bool       `json:"is_open"`
	Slots  []TimeSlot `json:"slots"`
}

// WeeklySchedule maps weekday (0 = Sunday .. 6 = Saturday) to opening hours.
// There is at most one per provider.
type WeeklySchedule struct {
	ProviderID string              `json:"provider_id"`
	Schedule   map[int]DaySchedule `json:"schedule"`
}

func (w WeeklySchedule) Clone() WeeklySchedule {
	out := WeeklySchedule{ProviderID: w.ProviderID, Schedule: make(map[int]DaySchedule, len(w.Schedule))}
	for day, ds := range w.Schedule {
		out.Schedule[day] = DaySchedule{IsOpen: ds.IsOpen, Slots: append([]TimeSlot(nil), ds.Slots...)}
	}
	return out
}

// DayException overrides the weekly schedule of one provider on one date
// ("YYYY-MM-DD"). (ProviderID, Date) is its identity.
type DayException struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"provider_id"`
	Date       string     `json:"date"`
	IsOpen     bool       `json:"is_open"`
	Slots      []TimeSlot `json:"slots"`
}

func (e DayException) Clone() DayException {
	e.Slots = append([]TimeSlot(nil), e.Slots...)
	return e
}
