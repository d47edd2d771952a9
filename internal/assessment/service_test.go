package assessment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-api/internal/model"
	"github.com/sells-group/risk-api/internal/store"
)

func ptrFloat64(f float64) *float64 { return &f }
func ptrInt(i int) *int             { return &i }
func ptrString(s string) *string    { return &s }

func newTestService(t *testing.T) (*Service, *model.User) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	u := &model.User{Email: "owner@example.com", HashedPassword: "x", IsActive: true}
	require.NoError(t, st.CreateUser(ctx, u))

	return NewService(st), u
}

func seedCompany(t *testing.T, s *Service, userID string) *model.Company {
	t.Helper()
	c, err := s.CreateCompany(context.Background(), userID, CompanyInput{
		Name:              "Acme Industrial",
		Industry:          "manufacturing",
		AnnualRevenue:     ptrFloat64(1_000_000),
		EmployeeCount:     ptrInt(60),
		YearsInBusiness:   ptrInt(12),
		DebtToEquityRatio: ptrFloat64(0.4),
		CreditScore:       ptrInt(760),
	})
	require.NoError(t, err)
	return c
}

// --- Companies ---

func TestCreateCompany_Validation(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CompanyInput
		want string
	}{
		{"missing name", CompanyInput{Industry: "technology"}, "name is required"},
		{"unknown industry", CompanyInput{Name: "Acme", Industry: "blockchain"}, "unknown industry"},
		{"negative revenue", CompanyInput{Name: "Acme", Industry: "technology", AnnualRevenue: ptrFloat64(-1)}, "annual_revenue"},
		{"credit score out of range", CompanyInput{Name: "Acme", Industry: "technology", CreditScore: ptrInt(900)}, "credit_score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateCompany(ctx, u.ID, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUpdateCompany_NotFound(t *testing.T) {
	s, u := newTestService(t)

	_, err := s.UpdateCompany(context.Background(), u.ID, "nonexistent", CompanyInput{
		Name: "Acme", Industry: "technology",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCompany_WithRequestsConflicts(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	c := seedCompany(t, s, u.ID)

	_, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID: c.ID, Amount: 100_000, Purpose: "loan",
	})
	require.NoError(t, err)

	err = s.DeleteCompany(ctx, u.ID, c.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

// --- Requests ---

func TestCreateRequest_ScoresAgainstCompanyDefaults(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	c := seedCompany(t, s, u.ID)

	// All five factors at their best tier: 30+20+20+15+15.
	r, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID: c.ID,
		Amount:    100_000,
		Purpose:   "loan",
	})
	require.NoError(t, err)
	require.NotNil(t, r.RiskScore)
	assert.Equal(t, 100.0, *r.RiskScore)
	assert.Equal(t, "LOW", r.RiskLevel)
	assert.True(t, r.Approved)
	assert.Len(t, r.Recommendations, 5)
	assert.Equal(t, model.RequestStatusPending, r.Status)
}

func TestCreateRequest_ExplicitInputsWinOverDefaults(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	c := seedCompany(t, s, u.ID)

	// Company default credit is 760 (15 pts); the override drops it to the
	// worst tier (5 pts).
	r, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID:  c.ID,
		Amount:     100_000,
		Purpose:    "loan",
		RiskInputs: model.RiskInputs{CreditScore: ptrInt(600)},
	})
	require.NoError(t, err)
	require.NotNil(t, r.RiskScore)
	assert.Equal(t, 90.0, *r.RiskScore)
}

func TestCreateRequest_NoSignalsAnywhere(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()

	c, err := s.CreateCompany(ctx, u.ID, CompanyInput{Name: "Shell Co", Industry: "other"})
	require.NoError(t, err)

	r, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID: c.ID, Amount: 50_000, Purpose: "other",
	})
	require.NoError(t, err)
	require.NotNil(t, r.RiskScore)
	assert.Zero(t, *r.RiskScore)
	assert.Equal(t, "HIGH", r.RiskLevel)
	assert.False(t, r.Approved)
}

func TestCreateRequest_Validation(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateRequestInput
	}{
		{"missing company", CreateRequestInput{Amount: 1, Purpose: "loan"}},
		{"zero amount", CreateRequestInput{CompanyID: "co", Amount: 0, Purpose: "loan"}},
		{"negative amount", CreateRequestInput{CompanyID: "co", Amount: -5, Purpose: "loan"}},
		{"bad purpose", CreateRequestInput{CompanyID: "co", Amount: 1, Purpose: "gambling"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateRequest(ctx, u.ID, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateRequest_CompanyNotFound(t *testing.T) {
	s, u := newTestService(t)

	_, err := s.CreateRequest(context.Background(), u.ID, CreateRequestInput{
		CompanyID: "nonexistent", Amount: 1, Purpose: "loan",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRequest_WorkflowOnlyKeepsScore(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	c := seedCompany(t, s, u.ID)

	r, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID: c.ID, Amount: 100_000, Purpose: "loan",
	})
	require.NoError(t, err)

	updated, err := s.UpdateRequest(ctx, u.ID, r.ID, UpdateRequestInput{
		Status: ptrString("under_review"),
		Notes:  ptrString("escalated for manual check"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusUnderReview, updated.Status)
	assert.Equal(t, "escalated for manual check", updated.Notes)
	require.NotNil(t, updated.RiskScore)
	assert.Equal(t, *r.RiskScore, *updated.RiskScore)
	assert.Equal(t, r.Recommendations, updated.Recommendations)
}

func TestUpdateRequest_AmountChangeRescores(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	c := seedCompany(t, s, u.ID)

	r, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID: c.ID, Amount: 100_000, Purpose: "loan",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, *r.RiskScore)

	// 900k against 1M revenue pushes coverage to the worst tier (5 pts).
	updated, err := s.UpdateRequest(ctx, u.ID, r.ID, UpdateRequestInput{
		Amount: ptrFloat64(900_000),
	})
	require.NoError(t, err)
	require.NotNil(t, updated.RiskScore)
	assert.Equal(t, 75.0, *updated.RiskScore)
	assert.Equal(t, "LOW", updated.RiskLevel)
}

func TestUpdateRequest_SwitchCompanyRescores(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	rich := seedCompany(t, s, u.ID)

	lean, err := s.CreateCompany(ctx, u.ID, CompanyInput{Name: "Lean Startup", Industry: "technology"})
	require.NoError(t, err)

	r, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
		CompanyID: rich.ID, Amount: 100_000, Purpose: "loan",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, *r.RiskScore)

	updated, err := s.UpdateRequest(ctx, u.ID, r.ID, UpdateRequestInput{
		CompanyID: ptrString(lean.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, lean.ID, updated.CompanyID)
	assert.Zero(t, *updated.RiskScore)
	assert.Equal(t, "HIGH", updated.RiskLevel)
	assert.False(t, updated.Approved)
}

func TestUpdateRequest_Validation(t *testing.T) {
	s, u := newTestService(t)

	_, err := s.UpdateRequest(context.Background(), u.ID, "req", UpdateRequestInput{
		Status: ptrString("archived"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.UpdateRequest(context.Background(), u.ID, "req", UpdateRequestInput{
		Amount: ptrFloat64(0),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteRequest_NotFound(t *testing.T) {
	s, u := newTestService(t)

	err := s.DeleteRequest(context.Background(), u.ID, "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummary(t *testing.T) {
	s, u := newTestService(t)
	ctx := context.Background()
	c := seedCompany(t, s, u.ID)

	for range 3 {
		_, err := s.CreateRequest(ctx, u.ID, CreateRequestInput{
			CompanyID: c.ID, Amount: 100_000, Purpose: "loan",
		})
		require.NoError(t, err)
	}

	sum, err := s.Summary(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalRequests)
	assert.Equal(t, 3, sum.PendingRequests)
	assert.Equal(t, 300_000.0, sum.TotalAmountRequested)
}
