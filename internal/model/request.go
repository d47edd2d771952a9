package model

import "time"

// RequestStatus is the workflow state of a financing request. It starts at
// pending and is transitioned by an operator; it is tracked independently of
// the engine's approved flag.
type RequestStatus string

const (
	RequestStatusPending     RequestStatus = "pending"
	RequestStatusApproved    RequestStatus = "approved"
	RequestStatusRejected    RequestStatus = "rejected"
	RequestStatusUnderReview RequestStatus = "under_review"
	RequestStatusCancelled   RequestStatus = "cancelled"
)

// ValidRequestStatus reports whether s is a member of the status enumeration.
func ValidRequestStatus(s string) bool {
	switch RequestStatus(s) {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected,
		RequestStatusUnderReview, RequestStatusCancelled:
		return true
	}
	return false
}

// RequestPurpose is the stated purpose of a financing request.
type RequestPurpose string

const (
	PurposeLoan        RequestPurpose = "loan"
	PurposeInvestment  RequestPurpose = "investment"
	PurposePartnership RequestPurpose = "partnership"
	PurposeAcquisition RequestPurpose = "acquisition"
	PurposeExpansion   RequestPurpose = "expansion"
	PurposeOther       RequestPurpose = "other"
)

// ValidRequestPurpose reports whether s is a member of the purpose enumeration.
func ValidRequestPurpose(s string) bool {
	switch RequestPurpose(s) {
	case PurposeLoan, PurposeInvestment, PurposePartnership,
		PurposeAcquisition, PurposeExpansion, PurposeOther:
		return true
	}
	return false
}

// RiskInputs are the per-request overrides for the scoring factors. A nil
// field is "no signal": the orchestrator falls back to the company default,
// and if that is also absent the factor is skipped entirely. Zero is never
// substituted for a missing value (a debt ratio of 0 is a valid, excellent
// signal; a missing one is not).
type RiskInputs struct {
	AnnualRevenue     *float64 `json:"annual_revenue,omitempty"`
	EmployeeCount     *int     `json:"employee_count,omitempty"`
	YearsInBusiness   *int     `json:"years_in_business,omitempty"`
	DebtToEquityRatio *float64 `json:"debt_to_equity_ratio,omitempty"`
	CreditScore       *int     `json:"credit_score,omitempty"`
}

// Empty reports whether no override is set.
func (in RiskInputs) Empty() bool {
	return in.AnnualRevenue == nil && in.EmployeeCount == nil &&
		in.YearsInBusiness == nil && in.DebtToEquityRatio == nil &&
		in.CreditScore == nil
}

// Request is a financing request with its persisted assessment result.
// Score, level, approved and recommendations are written by the engine;
// status and notes belong to the operator workflow.
type Request struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	CompanyID   string         `json:"company_id"`
	Amount      float64        `json:"amount"`
	Purpose     RequestPurpose `json:"purpose"`
	Description string         `json:"description,omitempty"`

	RiskInputs      RiskInputs `json:"risk_inputs"`
	RiskScore       *float64   `json:"risk_score,omitempty"`
	RiskLevel       string     `json:"risk_level,omitempty"`
	Approved        bool       `json:"approved"`
	Recommendations []string   `json:"recommendations,omitempty"`

	Status    RequestStatus `json:"status"`
	Notes     string        `json:"notes,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
