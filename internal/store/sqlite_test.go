package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/risk-api/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedUser(t *testing.T, st *SQLiteStore, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, HashedPassword: "x", FullName: "Test User", IsActive: true}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func seedCompany(t *testing.T, st *SQLiteStore, userID, name string) *model.Company {
	t.Helper()
	c := &model.Company{
		UserID:   userID,
		Name:     name,
		Industry: model.IndustryTechnology,
	}
	require.NoError(t, st.CreateCompany(context.Background(), c))
	return c
}

func ptrFloat64(f float64) *float64 { return &f }
func ptrInt(i int) *int             { return &i }

// --- Users ---

func TestSQLite_CreateUser_And_Get(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "alice@example.com")
	assert.NotEmpty(t, u.ID)

	fetched, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", fetched.Email)
	assert.True(t, fetched.IsActive)
	assert.False(t, fetched.IsAdmin)

	byEmail, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestSQLite_CreateUser_DuplicateEmail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seedUser(t, st, "dup@example.com")

	err := st.CreateUser(ctx, &model.User{Email: "dup@example.com", HashedPassword: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestSQLite_GetUser_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetUser(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- Companies ---

func TestSQLite_CreateCompany_And_Get(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := &model.Company{
		UserID:            u.ID,
		Name:              "Acme Industrial",
		Industry:          model.IndustryManufacturing,
		Country:           "US",
		City:              "Detroit",
		AnnualRevenue:     ptrFloat64(5_000_000),
		EmployeeCount:     ptrInt(120),
		DebtToEquityRatio: ptrFloat64(0.4),
	}
	require.NoError(t, st.CreateCompany(ctx, c))

	fetched, err := st.GetCompany(ctx, c.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", fetched.Name)
	assert.Equal(t, model.IndustryManufacturing, fetched.Industry)
	require.NotNil(t, fetched.AnnualRevenue)
	assert.Equal(t, 5_000_000.0, *fetched.AnnualRevenue)
	require.NotNil(t, fetched.EmployeeCount)
	assert.Equal(t, 120, *fetched.EmployeeCount)
	assert.Nil(t, fetched.YearsInBusiness)
	assert.Nil(t, fetched.CreditScore)
}

func TestSQLite_GetCompany_ScopedToOwner(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com")
	other := seedUser(t, st, "other@example.com")
	c := seedCompany(t, st, owner.ID, "Private Co")

	_, err := st.GetCompany(ctx, c.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListCompanies_FilterAndPaginate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	seedCompany(t, st, u.ID, "Acme Industrial")
	seedCompany(t, st, u.ID, "Acme Retail")
	c3 := seedCompany(t, st, u.ID, "Globex Holdings")
	c3.Industry = model.IndustryFinance
	require.NoError(t, st.UpdateCompany(ctx, c3))

	companies, total, err := st.ListCompanies(ctx, u.ID, CompanyFilter{Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, companies, 2)

	companies, total, err = st.ListCompanies(ctx, u.ID, CompanyFilter{Industry: "finance"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, companies, 1)
	assert.Equal(t, "Globex Holdings", companies[0].Name)

	// Page of one: total still reflects the full match count.
	companies, total, err = st.ListCompanies(ctx, u.ID, CompanyFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, companies, 1)
}

func TestSQLite_UpdateCompany_ClearsOptionalFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")
	c.AnnualRevenue = ptrFloat64(1_000_000)
	require.NoError(t, st.UpdateCompany(ctx, c))

	c.AnnualRevenue = nil
	require.NoError(t, st.UpdateCompany(ctx, c))

	fetched, err := st.GetCompany(ctx, c.ID, u.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.AnnualRevenue)
}

func TestSQLite_DeleteCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")

	require.NoError(t, st.DeleteCompany(ctx, c.ID, u.ID))

	_, err := st.GetCompany(ctx, c.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.DeleteCompany(ctx, c.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_DeleteCompany_WithRequestsConflicts(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")

	_, err := st.CreateRequestTx(ctx, u.ID, c.ID, func(company *model.Company) (*model.Request, error) {
		return &model.Request{
			UserID: u.ID, CompanyID: company.ID,
			Amount: 1, Purpose: model.PurposeLoan,
			Status: model.RequestStatusPending,
		}, nil
	})
	require.NoError(t, err)

	err = st.DeleteCompany(ctx, c.ID, u.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

// --- Requests ---

func TestSQLite_CreateRequestTx_And_Get(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")

	r, err := st.CreateRequestTx(ctx, u.ID, c.ID, func(company *model.Company) (*model.Request, error) {
		assert.Equal(t, c.ID, company.ID)
		return &model.Request{
			UserID:    u.ID,
			CompanyID: company.ID,
			Amount:    250_000,
			Purpose:   model.PurposeLoan,
			RiskInputs: model.RiskInputs{
				AnnualRevenue: ptrFloat64(2_000_000),
				CreditScore:   ptrInt(720),
			},
			RiskScore:       ptrFloat64(75),
			RiskLevel:       "LOW",
			Approved:        true,
			Recommendations: []string{"Proceed with standard terms."},
			Status:          model.RequestStatusPending,
		}, nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	fetched, err := st.GetRequest(ctx, r.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 250_000.0, fetched.Amount)
	assert.Equal(t, model.PurposeLoan, fetched.Purpose)
	require.NotNil(t, fetched.RiskScore)
	assert.Equal(t, 75.0, *fetched.RiskScore)
	assert.True(t, fetched.Approved)
	assert.Equal(t, []string{"Proceed with standard terms."}, fetched.Recommendations)
	require.NotNil(t, fetched.RiskInputs.CreditScore)
	assert.Equal(t, 720, *fetched.RiskInputs.CreditScore)
	assert.Nil(t, fetched.RiskInputs.EmployeeCount)
	assert.Equal(t, model.RequestStatusPending, fetched.Status)
}

func TestSQLite_CreateRequestTx_CompanyMissing(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")

	_, err := st.CreateRequestTx(ctx, u.ID, "nonexistent", func(*model.Company) (*model.Request, error) {
		t.Fatal("build should not run when the company is missing")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_CreateRequestTx_BuildErrorRollsBack(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")

	buildErr := assert.AnError
	_, err := st.CreateRequestTx(ctx, u.ID, c.ID, func(*model.Company) (*model.Request, error) {
		return nil, buildErr
	})
	assert.ErrorIs(t, err, buildErr)

	_, total, err := st.ListRequests(ctx, u.ID, RequestFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSQLite_UpdateRequestTx(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")

	r, err := st.CreateRequestTx(ctx, u.ID, c.ID, func(company *model.Company) (*model.Request, error) {
		return &model.Request{
			UserID: u.ID, CompanyID: company.ID,
			Amount: 100_000, Purpose: model.PurposeLoan,
			Status: model.RequestStatusPending,
		}, nil
	})
	require.NoError(t, err)

	updated, err := st.UpdateRequestTx(ctx, u.ID, r.ID, "", func(req *model.Request, company *model.Company) error {
		assert.Equal(t, c.ID, company.ID)
		req.Amount = 200_000
		req.Status = model.RequestStatusUnderReview
		req.Notes = "escalated"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 200_000.0, updated.Amount)

	fetched, err := st.GetRequest(ctx, r.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 200_000.0, fetched.Amount)
	assert.Equal(t, model.RequestStatusUnderReview, fetched.Status)
	assert.Equal(t, "escalated", fetched.Notes)
}

func TestSQLite_UpdateRequestTx_SwitchCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c1 := seedCompany(t, st, u.ID, "Acme")
	c2 := seedCompany(t, st, u.ID, "Globex")

	r, err := st.CreateRequestTx(ctx, u.ID, c1.ID, func(company *model.Company) (*model.Request, error) {
		return &model.Request{
			UserID: u.ID, CompanyID: company.ID,
			Amount: 50_000, Purpose: model.PurposeExpansion,
			Status: model.RequestStatusPending,
		}, nil
	})
	require.NoError(t, err)

	updated, err := st.UpdateRequestTx(ctx, u.ID, r.ID, c2.ID, func(req *model.Request, company *model.Company) error {
		assert.Equal(t, "Globex", company.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, c2.ID, updated.CompanyID)
}

func TestSQLite_ListRequests_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme Industrial")

	mk := func(amount float64, level string, status model.RequestStatus) {
		_, err := st.CreateRequestTx(ctx, u.ID, c.ID, func(company *model.Company) (*model.Request, error) {
			return &model.Request{
				UserID: u.ID, CompanyID: company.ID,
				Amount: amount, Purpose: model.PurposeLoan,
				RiskLevel: level, Status: status,
			}, nil
		})
		require.NoError(t, err)
	}
	mk(10_000, "LOW", model.RequestStatusApproved)
	mk(50_000, "MEDIUM", model.RequestStatusPending)
	mk(900_000, "HIGH", model.RequestStatusRejected)

	_, total, err := st.ListRequests(ctx, u.ID, RequestFilter{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = st.ListRequests(ctx, u.ID, RequestFilter{RiskLevel: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = st.ListRequests(ctx, u.ID, RequestFilter{
		MinAmount: ptrFloat64(20_000), MaxAmount: ptrFloat64(100_000),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	// Search matches the joined company name.
	_, total, err = st.ListRequests(ctx, u.ID, RequestFilter{Search: "industrial"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = st.ListRequests(ctx, u.ID, RequestFilter{Search: "no-such-thing"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSQLite_DeleteRequest_ScopedToOwner(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com")
	other := seedUser(t, st, "other@example.com")
	c := seedCompany(t, st, owner.ID, "Acme")

	r, err := st.CreateRequestTx(ctx, owner.ID, c.ID, func(company *model.Company) (*model.Request, error) {
		return &model.Request{
			UserID: owner.ID, CompanyID: company.ID,
			Amount: 1, Purpose: model.PurposeOther,
			Status: model.RequestStatusPending,
		}, nil
	})
	require.NoError(t, err)

	err = st.DeleteRequest(ctx, r.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.DeleteRequest(ctx, r.ID, owner.ID))
}

func TestSQLite_SummarizeRequests(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "owner@example.com")
	c := seedCompany(t, st, u.ID, "Acme")

	mk := func(amount float64, status model.RequestStatus) {
		_, err := st.CreateRequestTx(ctx, u.ID, c.ID, func(company *model.Company) (*model.Request, error) {
			return &model.Request{
				UserID: u.ID, CompanyID: company.ID,
				Amount: amount, Purpose: model.PurposeLoan, Status: status,
			}, nil
		})
		require.NoError(t, err)
	}
	mk(100, model.RequestStatusApproved)
	mk(200, model.RequestStatusApproved)
	mk(300, model.RequestStatusRejected)
	mk(400, model.RequestStatusPending)

	sum, err := st.SummarizeRequests(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.TotalRequests)
	assert.Equal(t, 2, sum.ApprovedRequests)
	assert.Equal(t, 1, sum.RejectedRequests)
	assert.Equal(t, 1, sum.PendingRequests)
	assert.Equal(t, 1000.0, sum.TotalAmountRequested)
	assert.Equal(t, 50.0, sum.ApprovalRate)
}

func TestSQLite_SummarizeRequests_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	u := seedUser(t, st, "owner@example.com")
	sum, err := st.SummarizeRequests(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Zero(t, sum.TotalRequests)
	assert.Zero(t, sum.ApprovalRate)
}

// --- Migrate ---

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.Migrate(context.Background())
	require.NoError(t, err)
}
