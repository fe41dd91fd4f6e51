package model

import "math"

type RecordType string

const (
	RecordIncome  RecordType = "INCOME"
	RecordExpense RecordType = "EXPENSE"
)

// FinancialRecord stores Amount as a magnitude; the sign comes from Type.
type FinancialRecord struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Amount      float64    `json:"amount"`
	Type        RecordType `json:"type"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
}

// Normalize drops any sign the caller put on Amount.
func (r FinancialRecord) Normalize() FinancialRecord {
	r.Amount = math.Abs(r.Amount)
	return r
}

func (r FinancialRecord) SignedAmount() float64 {
	if r.Type == RecordExpense {
		return -math.Abs(r.Amount)
	}
	return math.Abs(r.Amount)
}
