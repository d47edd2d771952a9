// Package assessment orchestrates risk scoring over persisted companies and
// financing requests. It owns validation, the merge of request-level risk
// inputs with company defaults, and the rescoring rules on update.
package assessment

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-api/internal/model"
	"github.com/sells-group/risk-api/internal/risk"
	"github.com/sells-group/risk-api/internal/store"
)

// Error taxonomy for the HTTP layer. Handlers map these to status codes.
var (
	ErrValidation = eris.New("assessment: validation failed")
	ErrNotFound   = eris.New("assessment: not found")
	ErrConflict   = eris.New("assessment: conflict")
)

// Service implements the application operations behind the API handlers
// and the CLI.
type Service struct {
	store store.Store
}

// NewService creates a Service backed by the given store.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Store exposes the underlying store for subsystems that bypass the
// service, such as bulk imports.
func (s *Service) Store() store.Store {
	return s.store
}

// CompanyInput carries the writable company fields.
type CompanyInput struct {
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
	Website     string `json:"website"`
	Country     string `json:"country"`
	City        string `json:"city"`

	AnnualRevenue     *float64 `json:"annual_revenue"`
	EmployeeCount     *int     `json:"employee_count"`
	YearsInBusiness   *int     `json:"years_in_business"`
	DebtToEquityRatio *float64 `json:"debt_to_equity_ratio"`
	CreditScore       *int     `json:"credit_score"`
}

func (in CompanyInput) validate() error {
	if in.Name == "" {
		return eris.Wrap(ErrValidation, "name is required")
	}
	if !model.ValidIndustry(in.Industry) {
		return eris.Wrapf(ErrValidation, "unknown industry %q", in.Industry)
	}
	if in.AnnualRevenue != nil && *in.AnnualRevenue < 0 {
		return eris.Wrap(ErrValidation, "annual_revenue must not be negative")
	}
	if in.EmployeeCount != nil && *in.EmployeeCount < 0 {
		return eris.Wrap(ErrValidation, "employee_count must not be negative")
	}
	if in.YearsInBusiness != nil && *in.YearsInBusiness < 0 {
		return eris.Wrap(ErrValidation, "years_in_business must not be negative")
	}
	if in.DebtToEquityRatio != nil && *in.DebtToEquityRatio < 0 {
		return eris.Wrap(ErrValidation, "debt_to_equity_ratio must not be negative")
	}
	if in.CreditScore != nil && (*in.CreditScore < 300 || *in.CreditScore > 850) {
		return eris.Wrap(ErrValidation, "credit_score must be between 300 and 850")
	}
	return nil
}

func (in CompanyInput) apply(c *model.Company) {
	c.Name = in.Name
	c.Industry = model.Industry(in.Industry)
	c.Description = in.Description
	c.Website = in.Website
	c.Country = in.Country
	c.City = in.City
	c.AnnualRevenue = in.AnnualRevenue
	c.EmployeeCount = in.EmployeeCount
	c.YearsInBusiness = in.YearsInBusiness
	c.DebtToEquityRatio = in.DebtToEquityRatio
	c.CreditScore = in.CreditScore
}

// CreateCompany validates and persists a new company for the user.
func (s *Service) CreateCompany(ctx context.Context, userID string, in CompanyInput) (*model.Company, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &model.Company{UserID: userID}
	in.apply(c)
	if err := s.store.CreateCompany(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("company created", zap.String("company_id", c.ID), zap.String("user_id", userID))
	return c, nil
}

// UpdateCompany replaces the writable fields of an existing company.
// Persisted request assessments are not rescored; they keep the snapshot
// they were scored against.
func (s *Service) UpdateCompany(ctx context.Context, userID, companyID string, in CompanyInput) (*model.Company, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c, err := s.store.GetCompany(ctx, companyID, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	in.apply(c)
	if err := s.store.UpdateCompany(ctx, c); err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// GetCompany returns a single company owned by the user.
func (s *Service) GetCompany(ctx context.Context, userID, companyID string) (*model.Company, error) {
	c, err := s.store.GetCompany(ctx, companyID, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// ListCompanies returns a filtered page of the user's companies plus the
// total match count.
func (s *Service) ListCompanies(ctx context.Context, userID string, filter store.CompanyFilter) ([]model.Company, int, error) {
	return s.store.ListCompanies(ctx, userID, filter)
}

// DeleteCompany removes a company. Companies with live requests are
// protected and surface as a conflict.
func (s *Service) DeleteCompany(ctx context.Context, userID, companyID string) error {
	if err := s.store.DeleteCompany(ctx, companyID, userID); err != nil {
		return mapStoreErr(err)
	}
	zap.L().Info("company deleted", zap.String("company_id", companyID), zap.String("user_id", userID))
	return nil
}

// CreateRequestInput carries the writable fields for a new financing request.
type CreateRequestInput struct {
	CompanyID   string           `json:"company_id"`
	Amount      float64          `json:"amount"`
	Purpose     string           `json:"purpose"`
	Description string           `json:"description"`
	RiskInputs  model.RiskInputs `json:"risk_inputs"`
}

func (in CreateRequestInput) validate() error {
	if in.CompanyID == "" {
		return eris.Wrap(ErrValidation, "company_id is required")
	}
	if in.Amount <= 0 {
		return eris.Wrap(ErrValidation, "amount must be positive")
	}
	if !model.ValidRequestPurpose(in.Purpose) {
		return eris.Wrapf(ErrValidation, "unknown purpose %q", in.Purpose)
	}
	return nil
}

// CreateRequest scores and persists a new financing request. The company
// read and the request insert share one transaction, so the stored result
// always reflects the company defaults as of the assessment.
func (s *Service) CreateRequest(ctx context.Context, userID string, in CreateRequestInput) (*model.Request, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	r, err := s.store.CreateRequestTx(ctx, userID, in.CompanyID, func(c *model.Company) (*model.Request, error) {
		result := risk.Assess(mergeInputs(c, in.RiskInputs, in.Amount, model.RequestPurpose(in.Purpose)))
		return &model.Request{
			UserID:          userID,
			CompanyID:       c.ID,
			Amount:          in.Amount,
			Purpose:         model.RequestPurpose(in.Purpose),
			Description:     in.Description,
			RiskInputs:      in.RiskInputs,
			RiskScore:       &result.Score,
			RiskLevel:       string(result.Level),
			Approved:        result.Approved,
			Recommendations: result.Recommendations,
			Status:          model.RequestStatusPending,
		}, nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	zap.L().Info("request assessed",
		zap.String("request_id", r.ID),
		zap.String("company_id", r.CompanyID),
		zap.Float64p("score", r.RiskScore),
		zap.String("risk_level", r.RiskLevel),
		zap.Bool("approved", r.Approved),
	)
	return r, nil
}

// UpdateRequestInput carries a partial update. Nil fields keep their
// current value.
type UpdateRequestInput struct {
	CompanyID   *string           `json:"company_id"`
	Amount      *float64          `json:"amount"`
	Purpose     *string           `json:"purpose"`
	Description *string           `json:"description"`
	RiskInputs  *model.RiskInputs `json:"risk_inputs"`
	Status      *string           `json:"status"`
	Notes       *string           `json:"notes"`
}

func (in UpdateRequestInput) validate() error {
	if in.Amount != nil && *in.Amount <= 0 {
		return eris.Wrap(ErrValidation, "amount must be positive")
	}
	if in.Purpose != nil && !model.ValidRequestPurpose(*in.Purpose) {
		return eris.Wrapf(ErrValidation, "unknown purpose %q", *in.Purpose)
	}
	if in.Status != nil && !model.ValidRequestStatus(*in.Status) {
		return eris.Wrapf(ErrValidation, "unknown status %q", *in.Status)
	}
	return nil
}

// rescores reports whether the update touches a scoring input.
func (in UpdateRequestInput) rescores() bool {
	return in.CompanyID != nil || in.Amount != nil || in.Purpose != nil || in.RiskInputs != nil
}

// UpdateRequest applies a partial update. When any scoring input changes
// (company, amount, purpose or risk inputs), the request is reassessed
// against the current company defaults; a pure workflow update (status,
// notes, description) leaves the stored assessment untouched.
func (s *Service) UpdateRequest(ctx context.Context, userID, requestID string, in UpdateRequestInput) (*model.Request, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	targetCompany := ""
	if in.CompanyID != nil {
		targetCompany = *in.CompanyID
	}

	r, err := s.store.UpdateRequestTx(ctx, userID, requestID, targetCompany, func(r *model.Request, c *model.Company) error {
		if in.Amount != nil {
			r.Amount = *in.Amount
		}
		if in.Purpose != nil {
			r.Purpose = model.RequestPurpose(*in.Purpose)
		}
		if in.Description != nil {
			r.Description = *in.Description
		}
		if in.RiskInputs != nil {
			r.RiskInputs = *in.RiskInputs
		}
		if in.Status != nil {
			r.Status = model.RequestStatus(*in.Status)
		}
		if in.Notes != nil {
			r.Notes = *in.Notes
		}

		if in.rescores() {
			result := risk.Assess(mergeInputs(c, r.RiskInputs, r.Amount, r.Purpose))
			r.RiskScore = &result.Score
			r.RiskLevel = string(result.Level)
			r.Approved = result.Approved
			r.Recommendations = result.Recommendations
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return r, nil
}

// GetRequest returns a single request owned by the user.
func (s *Service) GetRequest(ctx context.Context, userID, requestID string) (*model.Request, error) {
	r, err := s.store.GetRequest(ctx, requestID, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return r, nil
}

// ListRequests returns a filtered page of the user's requests plus the
// total match count.
func (s *Service) ListRequests(ctx context.Context, userID string, filter store.RequestFilter) ([]model.Request, int, error) {
	return s.store.ListRequests(ctx, userID, filter)
}

// DeleteRequest removes a request owned by the user.
func (s *Service) DeleteRequest(ctx context.Context, userID, requestID string) error {
	if err := s.store.DeleteRequest(ctx, requestID, userID); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// Summary aggregates the user's requests for the stats endpoint.
func (s *Service) Summary(ctx context.Context, userID string) (*store.RequestSummary, error) {
	return s.store.SummarizeRequests(ctx, userID)
}

// mergeInputs resolves the effective factor values for an assessment:
// explicit request inputs win, company defaults fill the gaps, and a field
// absent in both stays nil so the factor is skipped.
func mergeInputs(c *model.Company, overrides model.RiskInputs, amount float64, purpose model.RequestPurpose) risk.Input {
	in := risk.Input{
		Amount:            amount,
		Purpose:           purpose,
		AnnualRevenue:     overrides.AnnualRevenue,
		EmployeeCount:     overrides.EmployeeCount,
		YearsInBusiness:   overrides.YearsInBusiness,
		DebtToEquityRatio: overrides.DebtToEquityRatio,
		CreditScore:       overrides.CreditScore,
	}
	if in.AnnualRevenue == nil {
		in.AnnualRevenue = c.AnnualRevenue
	}
	if in.EmployeeCount == nil {
		in.EmployeeCount = c.EmployeeCount
	}
	if in.YearsInBusiness == nil {
		in.YearsInBusiness = c.YearsInBusiness
	}
	if in.DebtToEquityRatio == nil {
		in.DebtToEquityRatio = c.DebtToEquityRatio
	}
	if in.CreditScore == nil {
		in.CreditScore = c.CreditScore
	}
	return in
}

// mapStoreErr lifts store sentinels into the service taxonomy. Unknown
// errors pass through for the 500 path.
func mapStoreErr(err error) error {
	switch {
	case eris.Is(err, store.ErrNotFound):
		return ErrNotFound
	case eris.Is(err, store.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
