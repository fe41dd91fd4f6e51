package model

type Plan string

const (
	PlanBasic      Plan = "BASIC"
	PlanPro        Plan = "PRO"
	PlanEnterprise Plan = "ENTERPRISE"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldFile     FieldType = "file"
)

// FormField is a tenant-defined question asked at booking time.
type FormField struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Options  []string  `json:"options,omitempty"`
	Required bool      `json:"required"`
}

// Company is a tenant. Slug is unique and is the only public lookup key.
type Company struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	LogoURL          string      `json:"logo_url,omitempty"`
	ThemeColor       string      `json:"theme_color"`
	IsActive         bool        `json:"is_active"`
	SubscriptionPlan Plan        `json:"subscription_plan"`
	CustomFormFields []FormField `json:"custom_form_fields"`
}

func (c Company) Clone() Company {
	out := c
	out.CustomFormFields = make([]FormField, len(c.CustomFormFields))
	for i, f := range c.CustomFormFields {
		f.Options = append([]string(nil), f.Options...)
		out.CustomFormFields[i] = f
	}
	return out
}

type Service struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Color           string  `json:"color"`
}
