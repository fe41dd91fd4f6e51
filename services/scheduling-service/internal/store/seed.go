package store

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
)

// DemoClientPassword is the password of the sample clients.
const DemoClientPassword = "123456"

// Seed returns the sample tenants used on every start. The two sample
// appointments fall on the day of now, in loc.
func Seed(now time.Time, loc *time.Location) Snapshot {
	if loc == nil {
		loc = time.UTC
	}
	day := now.In(loc)
	at := func(hour int) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoClientPassword), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}

	open := func(slots ...model.TimeSlot) model.DaySchedule { return model.DaySchedule{IsOpen: true, Slots: slots} }
	morning := model.TimeSlot{Start: "09:00", End: "12:00"}
	afternoon := model.TimeSlot{Start: "13:00", End: "18:00"}

	return Snapshot{
		Companies: []model.Company{
			{
				ID:               "c1",
				Name:             "Clínica TechHealth",
				Slug:             "tech-health",
				ThemeColor:       "blue",
				IsActive:         true,
				SubscriptionPlan: model.PlanPro,
				CustomFormFields: []model.FormField{
					{ID: "f1", Label: "Alergias", Type: model.FieldText},
					{ID: "f2", Label: "Convênio Médico", Type: model.FieldSelect, Options: []string{"Unimed", "Bradesco Saúde", "Particular"}, Required: true},
				},
			},
			{
				ID:               "c2",
				Name:             "Barbearia Elite",
				Slug:             "elite-barber",
				ThemeColor:       "slate",
				IsActive:         true,
				SubscriptionPlan: model.PlanBasic,
				CustomFormFields: []model.FormField{
					{ID: "f3", Label: "Estilo Preferido", Type: model.FieldText, Required: true},
				},
			},
		},
		Users: []model.User{
			{ID: "u1", Name: "Administrador Geral", Email: "master@nexsched.com", Phone: "000", Role: model.RoleMasterAdmin},
			{ID: "u2", Name: "Dra. Sarah Silva", Email: "sarah@techhealth.com", Phone: "11999990000", Role: model.RoleCompanyAdmin, CompanyID: "c1"},
			{ID: "u3", Name: "João Santos", Email: "joao@techhealth.com", Phone: "11999991111", Role: model.RoleProvider, CompanyID: "c1", Specialty: "Clínico Geral"},
			{ID: "u4", Name: "Mike Tesoura", Email: "mike@elitebarber.com", Phone: "11999992222", Role: model.RoleCompanyAdmin, CompanyID: "c2", Specialty: "Barbeiro Sênior"},
		},
		Clients: []model.ClientUser{
			{ID: "cli1", Name: "Alice Ferreira", Email: "alice@email.com", Phone: "5511987654321", PasswordHash: string(hash), CreatedAt: time.Date(2023, 1, 15, 10, 0, 0, 0, time.UTC)},
			{ID: "cli2", Name: "Roberto Oliveira", Email: "roberto@email.com", Phone: "5511912345678", PasswordHash: string(hash), CreatedAt: time.Date(2023, 2, 20, 14, 30, 0, 0, time.UTC)},
		},
		Services: []model.Service{
			{ID: "s1", CompanyID: "c1", Name: "Consulta Geral", DurationMinutes: 30, Price: 200, Color: "#3b82f6"},
			{ID: "s2", CompanyID: "c1", Name: "Limpeza Dental", DurationMinutes: 60, Price: 350, Color: "#10b981"},
			{ID: "s3", CompanyID: "c2", Name: "Corte & Barba", DurationMinutes: 45, Price: 80, Color: "#64748b"},
		},
		Appointments: []model.Appointment{
			{
				ID: "a1", CompanyID: "c1", ServiceID: "s1", ProviderID: "u3",
				ClientID: "cli1", ClientName: "Alice Ferreira", ClientPhone: "5511987654321",
				Start: at(10), End: at(10).Add(30 * time.Minute),
				Status:         model.StatusConfirmed,
				Notes:          "Primeira visita",
				CustomFormData: map[string]any{"Alergias": "Amendoim"},
			},
			{
				ID: "a2", CompanyID: "c1", ServiceID: "s2", ProviderID: "u3",
				ClientID: "cli2", ClientName: "Roberto Oliveira", ClientPhone: "5511912345678",
				Start: at(14), End: at(15),
				Status: model.StatusPending,
			},
		},
		Financials: []model.FinancialRecord{
			{ID: "fin1", CompanyID: "c1", Amount: 200, Type: model.RecordIncome, Date: "2023-10-25", Description: "Taxa de Consulta"},
			{ID: "fin2", CompanyID: "c1", Amount: 350, Type: model.RecordIncome, Date: "2023-10-26", Description: "Procedimento Dental"},
			{ID: "fin3", CompanyID: "c1", Amount: -500, Type: model.RecordExpense, Date: "2023-10-20", Description: "Materiais Médicos"},
			{ID: "fin4", CompanyID: "c2", Amount: 80, Type: model.RecordIncome, Date: "2023-10-25", Description: "Corte de Cabelo"},
		},
		WeeklySchedules: []model.WeeklySchedule{
			{
				ProviderID: "u3",
				Schedule: map[int]model.DaySchedule{
					0: {IsOpen: false},
					1: open(morning, afternoon),
					2: open(morning, afternoon),
					3: open(morning, afternoon),
					4: open(morning, afternoon),
					5: open(model.TimeSlot{Start: "09:00", End: "13:00"}),
					6: {IsOpen: false},
				},
			},
		},
		DayExceptions: []model.DayException{
			{ID: "exc1", ProviderID: "u3", Date: "2023-12-25", IsOpen: false},
		},
	}
}
