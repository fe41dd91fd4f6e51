package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/store"
)

func (h *Handler) MasterCompanies(w http.ResponseWriter, r *http.Request, _ model.User) {
	httpx.WriteJSON(w, http.StatusOK, h.store.Companies())
}

type companyRequest struct {
	Name             string            `json:"name"`
	Slug             string            `json:"slug"`
	LogoURL          string            `json:"logo_url"`
	ThemeColor       string            `json:"theme_color"`
	SubscriptionPlan model.Plan        `json:"subscription_plan"`
	CustomFormFields []model.FormField `json:"custom_form_fields"`
}

func (h *Handler) MasterCreateCompany(w http.ResponseWriter, r *http.Request, u model.User) {
	var req companyRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" || req.Slug == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	if req.SubscriptionPlan == "" {
		req.SubscriptionPlan = model.PlanBasic
	}
	company := model.Company{
		ID:               "comp_" + uuid.NewString(),
		Name:             req.Name,
		Slug:             req.Slug,
		LogoURL:          req.LogoURL,
		ThemeColor:       req.ThemeColor,
		IsActive:         true,
		SubscriptionPlan: req.SubscriptionPlan,
		CustomFormFields: req.CustomFormFields,
	}
	if err := h.store.AddCompany(company); err != nil {
		if errors.Is(err, store.ErrSlugTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create company")
		return
	}
	h.logger.Info("company created", "company_id", company.ID, "slug", company.Slug, "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, company)
}

type tenantTotals struct {
	CompanyID string  `json:"company_id"`
	Income    float64 `json:"income"`
	Expenses  float64 `json:"expenses"`
	Net       float64 `json:"net"`
}

// MasterFinancials reports every tenant's ledger and per-tenant totals.
func (h *Handler) MasterFinancials(w http.ResponseWriter, r *http.Request, _ model.User) {
	records := h.store.Financials("")
	totals := map[string]*tenantTotals{}
	var order []string
	for _, f := range records {
		t, ok := totals[f.CompanyID]
		if !ok {
			t = &tenantTotals{CompanyID: f.CompanyID}
			totals[f.CompanyID] = t
			order = append(order, f.CompanyID)
		}
		if f.Type == model.RecordIncome {
			t.Income += f.Amount
		} else {
			t.Expenses += f.Amount
		}
		t.Net += f.SignedAmount()
	}
	byCompany := make([]tenantTotals, 0, len(order))
	for _, id := range order {
		byCompany = append(byCompany, *totals[id])
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"records":    financialViews(records),
		"by_company": byCompany,
	})
}
