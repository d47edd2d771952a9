// Package model defines the persisted entities and their closed enumerations.
package model

import "time"

// Industry categorizes a company. Descriptive only; the scoring engine
// never reads it.
type Industry string

const (
	IndustryTechnology    Industry = "technology"
	IndustryFinance       Industry = "finance"
	IndustryHealthcare    Industry = "healthcare"
	IndustryRetail        Industry = "retail"
	IndustryManufacturing Industry = "manufacturing"
	IndustryRealEstate    Industry = "real_estate"
	IndustryEducation     Industry = "education"
	IndustryConsulting    Industry = "consulting"
	IndustryOther         Industry = "other"
)

// ValidIndustry reports whether s is a member of the Industry enumeration.
func ValidIndustry(s string) bool {
	switch Industry(s) {
	case IndustryTechnology, IndustryFinance, IndustryHealthcare,
		IndustryRetail, IndustryManufacturing, IndustryRealEstate,
		IndustryEducation, IndustryConsulting, IndustryOther:
		return true
	}
	return false
}

// Company is a record assessed by financing requests. The financial fields
// are optional defaults: a request's explicit risk inputs win over them, and
// a nil field means "no signal" rather than zero.
type Company struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Industry    Industry `json:"industry"`
	Description string   `json:"description,omitempty"`
	Website     string   `json:"website,omitempty"`
	Country     string   `json:"country,omitempty"`
	City        string   `json:"city,omitempty"`

	AnnualRevenue     *float64 `json:"annual_revenue,omitempty"`
	EmployeeCount     *int     `json:"employee_count,omitempty"`
	YearsInBusiness   *int     `json:"years_in_business,omitempty"`
	DebtToEquityRatio *float64 `json:"debt_to_equity_ratio,omitempty"`
	CreditScore       *int     `json:"credit_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
