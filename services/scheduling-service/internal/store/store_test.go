package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

var seedNow = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func newSeeded(t *testing.T) *Store {
	t.Helper()
	return New(Seed(seedNow, time.UTC))
}

func TestSeedNormalizesExpenseAmounts(t *testing.T) {
	s := newSeeded(t)
	for _, f := range s.Financials("c1") {
		assert.GreaterOrEqual(t, f.Amount, 0.0, f.ID)
	}
	stats := s.CompanyStats("c1")
	assert.Equal(t, 2, stats.TotalAppointments)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 550.0, stats.Revenue)
}

func TestSeedClientPasswordsAreHashed(t *testing.T) {
	s := newSeeded(t)
	alice, ok := s.ClientByEmail("alice@email.com")
	require.True(t, ok)
	assert.NotEqual(t, DemoClientPassword, alice.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(alice.PasswordHash), []byte(DemoClientPassword)))
}

func TestUpdateAppointmentStatusUnknownIDIsNoop(t *testing.T) {
	s := newSeeded(t)
	before := s.snapshot()
	s.UpdateAppointmentStatus("does-not-exist", model.StatusCancelled)
	assert.Equal(t, before, s.snapshot())
}

func TestUpdateAppointmentStatusAnyTransition(t *testing.T) {
	s := newSeeded(t)
	s.UpdateAppointmentStatus("a1", model.StatusCompleted)
	s.UpdateAppointmentStatus("a1", model.StatusPending)
	a, ok := s.Appointment("a1")
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, a.Status)
}

func TestUpsertWeeklyScheduleIsIdempotent(t *testing.T) {
	s := newSeeded(t)
	sched := model.WeeklySchedule{
		ProviderID: "u9",
		Schedule:   map[int]model.DaySchedule{1: {IsOpen: true, Slots: []model.TimeSlot{{Start: "08:00", End: "12:00"}}}},
	}
	s.UpsertWeeklySchedule(sched)
	once := s.snapshot()
	s.UpsertWeeklySchedule(sched)
	assert.Equal(t, once, s.snapshot())
	assert.Len(t, once.WeeklySchedules, 2)

	replaced := sched.Clone()
	replaced.Schedule[1] = model.DaySchedule{IsOpen: false}
	s.UpsertWeeklySchedule(replaced)
	got, ok := s.WeeklySchedule("u9")
	require.True(t, ok)
	assert.False(t, got.Schedule[1].IsOpen)
	assert.Len(t, s.snapshot().WeeklySchedules, 2)
}

func TestUpsertDayExceptionIsIdempotentByProviderAndDate(t *testing.T) {
	s := newSeeded(t)
	exc := model.DayException{ID: "exc2", ProviderID: "u3", Date: "2024-02-12", IsOpen: true, Slots: []model.TimeSlot{{Start: "10:00", End: "12:00"}}}
	s.UpsertDayException(exc)
	once := s.snapshot()
	s.UpsertDayException(exc)
	assert.Equal(t, once, s.snapshot())

	closed := exc
	closed.ID = "exc3"
	closed.IsOpen = false
	closed.Slots = nil
	s.UpsertDayException(closed)
	excs := s.DayExceptions("u3")
	require.Len(t, excs, 2)
	assert.Equal(t, "exc3", excs[1].ID)

	got, ok := s.DayException("u3", "2024-02-12")
	require.True(t, ok)
	assert.False(t, got.IsOpen)
	_, ok = s.DayException("u3", "2024-02-13")
	assert.False(t, ok)
}

func TestCompanyBySlugIsExact(t *testing.T) {
	s := newSeeded(t)
	c, ok := s.CompanyBySlug("tech-health")
	require.True(t, ok)
	assert.Equal(t, "c1", c.ID)

	_, ok = s.CompanyBySlug("Tech-Health")
	assert.False(t, ok)
	_, ok = s.CompanyBySlug("tech")
	assert.False(t, ok)

	err := s.AddCompany(model.Company{ID: "c9", Slug: "tech-health"})
	assert.ErrorIs(t, err, ErrSlugTaken)
	require.NoError(t, s.AddCompany(model.Company{ID: "c9", Slug: "Tech-Health"}))
	c, _ = s.CompanyBySlug("Tech-Health")
	assert.Equal(t, "c9", c.ID)
}

func TestAddAndDeleteService(t *testing.T) {
	s := newSeeded(t)
	s.AddService(model.Service{ID: "s9", CompanyID: "c2", Name: "Barba", DurationMinutes: 20, Price: 40})
	assert.Len(t, s.Services("c2"), 2)
	s.DeleteService("s9")
	s.DeleteService("s9")
	assert.Len(t, s.Services("c2"), 1)
	_, ok := s.Service("s9")
	assert.False(t, ok)
}

func TestAddAppointmentAllowsDoubleBooking(t *testing.T) {
	s := newSeeded(t)
	a1, _ := s.Appointment("a1")
	dup := a1
	dup.ID = "dup"
	s.AddAppointment(dup)
	assert.Len(t, s.AppointmentsByProvider("u3"), 3)
}

func TestUpdateClientProfileReplacesByID(t *testing.T) {
	s := newSeeded(t)
	alice, _ := s.ClientByID("cli1")
	alice.Phone = "5511000000000"
	s.UpdateClientProfile(alice)
	got, _ := s.ClientByEmail("alice@email.com")
	assert.Equal(t, "5511000000000", got.Phone)

	before := s.snapshot()
	s.UpdateClientProfile(model.ClientUser{ID: "ghost"})
	assert.Equal(t, before, s.snapshot())
}

func TestClientStats(t *testing.T) {
	s := newSeeded(t)
	now := time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)
	s.AddAppointment(model.Appointment{ID: "later", ClientID: "cli1", Start: now.Add(48 * time.Hour), End: now.Add(49 * time.Hour)})
	s.AddAppointment(model.Appointment{ID: "sooner", ClientID: "cli1", Start: now.Add(2 * time.Hour), End: now.Add(3 * time.Hour)})

	st := s.ClientStats("cli1", now)
	assert.Equal(t, 3, st.TotalAppointments)
	assert.Equal(t, 2, st.Upcoming)
	require.NotNil(t, st.Next)
	assert.Equal(t, "sooner", st.Next.ID)

	list := s.AppointmentsByClient("cli1")
	assert.Equal(t, "later", list[0].ID)
}

func TestReadsReturnCopies(t *testing.T) {
	s := newSeeded(t)
	c, _ := s.CompanyBySlug("tech-health")
	c.CustomFormFields[0].Label = "changed"
	again, _ := s.CompanyBySlug("tech-health")
	assert.Equal(t, "Alergias", again.CustomFormFields[0].Label)
}

func TestConcurrentMutations(t *testing.T) {
	s := newSeeded(t)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddAppointment(model.Appointment{ID: "p" + string(rune('a'+i%26)), CompanyID: "c2"})
			s.UpdateAppointmentStatus("a1", model.StatusConfirmed)
			_ = s.CompanyStats("c2")
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.CompanyStats("c2").TotalAppointments)
}
