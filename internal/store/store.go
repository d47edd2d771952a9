// Package store persists users, companies and financing requests behind a
// driver-agnostic interface with Postgres and SQLite backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-api/internal/model"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the requesting user. Ownership misses are indistinguishable from absence.
var ErrNotFound = eris.New("store: not found")

// ErrDuplicateEmail is returned when a user insert hits the unique email
// constraint.
var ErrDuplicateEmail = eris.New("store: email already registered")

// ErrConflict is returned when a delete is blocked by referencing rows,
// e.g. removing a company that still has requests.
var ErrConflict = eris.New("store: conflict")

// CompanyFilter specifies criteria for listing companies.
type CompanyFilter struct {
	Search   string `json:"search,omitempty"` // case-insensitive name match
	Industry string `json:"industry,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// RequestFilter specifies criteria for listing requests.
type RequestFilter struct {
	CompanyID string   `json:"company_id,omitempty"`
	Status    string   `json:"status,omitempty"`
	RiskLevel string   `json:"risk_level,omitempty"`
	Search    string   `json:"search,omitempty"` // matches purpose or company name
	MinAmount *float64 `json:"min_amount,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
}

// RequestSummary aggregates a user's requests for the stats endpoint.
type RequestSummary struct {
	TotalRequests        int     `json:"total_requests"`
	ApprovedRequests     int     `json:"approved_requests"`
	RejectedRequests     int     `json:"rejected_requests"`
	PendingRequests      int     `json:"pending_requests"`
	TotalAmountRequested float64 `json:"total_amount_requested"`
	ApprovalRate         float64 `json:"approval_rate"` // percent of total, by workflow status
}

// Store defines the persistence interface. Every company and request
// operation is scoped to the owning user.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id, userID string) (*model.Company, error)
	ListCompanies(ctx context.Context, userID string, filter CompanyFilter) ([]model.Company, int, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	DeleteCompany(ctx context.Context, id, userID string) error

	// Requests. CreateRequestTx reads the company snapshot and writes the
	// built request inside one transaction so an assessment never scores
	// against company data deleted or changed mid-flight. UpdateRequestTx
	// does the same for rescoring updates; companyID "" keeps the
	// request's current company.
	CreateRequestTx(ctx context.Context, userID, companyID string, build func(c *model.Company) (*model.Request, error)) (*model.Request, error)
	UpdateRequestTx(ctx context.Context, userID, requestID, companyID string, build func(r *model.Request, c *model.Company) error) (*model.Request, error)
	GetRequest(ctx context.Context, id, userID string) (*model.Request, error)
	ListRequests(ctx context.Context, userID string, filter RequestFilter) ([]model.Request, int, error)
	DeleteRequest(ctx context.Context, id, userID string) error
	SummarizeRequests(ctx context.Context, userID string) (*RequestSummary, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
