package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/risk-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per-connection; a single connection keeps them in force
	// and avoids writer lock contention.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	full_name       TEXT NOT NULL DEFAULT '',
	is_active       INTEGER NOT NULL DEFAULT 1,
	is_admin        INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS companies (
	id                   TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL REFERENCES users(id),
	name                 TEXT NOT NULL,
	industry             TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	website              TEXT NOT NULL DEFAULT '',
	country              TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	annual_revenue       REAL,
	employee_count       INTEGER,
	years_in_business    INTEGER,
	debt_to_equity_ratio REAL,
	credit_score         INTEGER,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS requests (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL REFERENCES users(id),
	company_id      TEXT NOT NULL REFERENCES companies(id),
	amount          REAL NOT NULL,
	purpose         TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	risk_inputs     TEXT NOT NULL DEFAULT '{}',
	risk_score      REAL,
	risk_level      TEXT NOT NULL DEFAULT '',
	approved        INTEGER NOT NULL DEFAULT 0,
	recommendations TEXT,
	status          TEXT NOT NULL DEFAULT 'pending',
	notes           TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_companies_user_id ON companies(user_id);
CREATE INDEX IF NOT EXISTS idx_requests_user_id ON requests(user_id);
CREATE INDEX IF NOT EXISTS idx_requests_company_id ON requests(company_id);
CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.HashedPassword, u.FullName, u.IsActive, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return eris.Wrap(err, "sqlite: insert user")
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	)
	u, err := scanUserLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get user %s", id)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	)
	u, err := scanUserLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: get user by email")
	}
	return u, nil
}

// Companies

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Industry), c.Description, c.Website, c.Country, c.City,
		nullFloat(c.AnnualRevenue), nullInt(c.EmployeeCount), nullInt(c.YearsInBusiness),
		nullFloat(c.DebtToEquityRatio), nullInt(c.CreditScore),
		c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert company")
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id, userID string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at
		 FROM companies WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	c, err := scanCompanyLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, userID string, filter CompanyFilter) ([]model.Company, int, error) {
	where := ` WHERE user_id = ?`
	args := []any{userID}

	if filter.Search != "" {
		where += ` AND name LIKE ?`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Industry != "" {
		where += ` AND industry = ?`
		args = append(args, filter.Industry)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: count companies")
	}

	query := `SELECT id, user_id, name, industry, description, website, country, city,
	   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
	   created_at, updated_at
	 FROM companies` + where + ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompanyLite(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "sqlite: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, total, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, industry = ?, description = ?, website = ?,
		   country = ?, city = ?, annual_revenue = ?, employee_count = ?,
		   years_in_business = ?, debt_to_equity_ratio = ?, credit_score = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		c.Name, string(c.Industry), c.Description, c.Website, c.Country, c.City,
		nullFloat(c.AnnualRevenue), nullInt(c.EmployeeCount), nullInt(c.YearsInBusiness),
		nullFloat(c.DebtToEquityRatio), nullInt(c.CreditScore),
		c.UpdatedAt, c.ID, c.UserID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.ID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM companies WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ErrConflict
		}
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res)
}

// Requests

func (s *SQLiteStore) CreateRequestTx(ctx context.Context, userID, companyID string, build func(c *model.Company) (*model.Request, error)) (*model.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at
		 FROM companies WHERE id = ? AND user_id = ?`,
		companyID, userID,
	)
	c, err := scanCompanyLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", companyID)
	}

	r, err := build(c)
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	inputsJSON, recsJSON, err := marshalRequestJSON(r)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO requests (id, user_id, company_id, amount, purpose, description,
		   risk_inputs, risk_score, risk_level, approved, recommendations, status, notes,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.CompanyID, r.Amount, string(r.Purpose), r.Description,
		string(inputsJSON), nullFloat(r.RiskScore), r.RiskLevel, r.Approved,
		nullString(recsJSON), string(r.Status), r.Notes,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert request")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit tx")
	}
	return r, nil
}

func (s *SQLiteStore) UpdateRequestTx(ctx context.Context, userID, requestID, companyID string, build func(r *model.Request, c *model.Company) error) (*model.Request, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, user_id, company_id, amount, purpose, description,
		   risk_inputs, risk_score, risk_level, approved, recommendations, status, notes,
		   created_at, updated_at
		 FROM requests WHERE id = ? AND user_id = ?`,
		requestID, userID,
	)
	r, err := scanRequestLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get request %s", requestID)
	}

	if companyID == "" {
		companyID = r.CompanyID
	}
	crow := tx.QueryRowContext(ctx,
		`SELECT id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at
		 FROM companies WHERE id = ? AND user_id = ?`,
		companyID, userID,
	)
	c, err := scanCompanyLite(crow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get company %s", companyID)
	}

	if err := build(r, c); err != nil {
		return nil, err
	}
	r.CompanyID = c.ID
	r.UpdatedAt = time.Now().UTC()

	inputsJSON, recsJSON, err := marshalRequestJSON(r)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET company_id = ?, amount = ?, purpose = ?, description = ?,
		   risk_inputs = ?, risk_score = ?, risk_level = ?, approved = ?,
		   recommendations = ?, status = ?, notes = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		r.CompanyID, r.Amount, string(r.Purpose), r.Description,
		string(inputsJSON), nullFloat(r.RiskScore), r.RiskLevel, r.Approved,
		nullString(recsJSON), string(r.Status), r.Notes, r.UpdatedAt,
		r.ID, r.UserID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update request %s", requestID)
	}
	if err := checkRowsAffected(res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit tx")
	}
	return r, nil
}

func (s *SQLiteStore) GetRequest(ctx context.Context, id, userID string) (*model.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, company_id, amount, purpose, description,
		   risk_inputs, risk_score, risk_level, approved, recommendations, status, notes,
		   created_at, updated_at
		 FROM requests WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	r, err := scanRequestLite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get request %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRequests(ctx context.Context, userID string, filter RequestFilter) ([]model.Request, int, error) {
	where := ` WHERE r.user_id = ?`
	args := []any{userID}

	if filter.CompanyID != "" {
		where += ` AND r.company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if filter.Status != "" {
		where += ` AND r.status = ?`
		args = append(args, filter.Status)
	}
	if filter.RiskLevel != "" {
		where += ` AND r.risk_level = ?`
		args = append(args, filter.RiskLevel)
	}
	if filter.MinAmount != nil {
		where += ` AND r.amount >= ?`
		args = append(args, *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		where += ` AND r.amount <= ?`
		args = append(args, *filter.MaxAmount)
	}
	if filter.Search != "" {
		where += ` AND (r.purpose LIKE ? OR r.description LIKE ? OR c.name LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	from := ` FROM requests r JOIN companies c ON c.id = r.company_id`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: count requests")
	}

	query := `SELECT r.id, r.user_id, r.company_id, r.amount, r.purpose, r.description,
	   r.risk_inputs, r.risk_score, r.risk_level, r.approved, r.recommendations, r.status, r.notes,
	   r.created_at, r.updated_at` + from + where + ` ORDER BY r.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "sqlite: list requests")
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequestLite(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "sqlite: scan request")
		}
		requests = append(requests, *r)
	}
	return requests, total, eris.Wrap(rows.Err(), "sqlite: list requests iterate")
}

func (s *SQLiteStore) DeleteRequest(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM requests WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete request %s", id)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) SummarizeRequests(ctx context.Context, userID string) (*RequestSummary, error) {
	var sum RequestSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		   COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(amount), 0)
		 FROM requests WHERE user_id = ?`,
		userID,
	).Scan(&sum.TotalRequests, &sum.ApprovedRequests, &sum.RejectedRequests,
		&sum.PendingRequests, &sum.TotalAmountRequested)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summarize requests")
	}
	if sum.TotalRequests > 0 {
		sum.ApprovalRate = float64(sum.ApprovedRequests) / float64(sum.TotalRequests) * 100
	}
	return &sum, nil
}

// helpers

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUserLite(row scannable) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanCompanyLite(row scannable) (*model.Company, error) {
	var c model.Company
	var (
		revenue sql.NullFloat64
		employees, years, credit sql.NullInt64
		debtRatio sql.NullFloat64
	)
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Industry, &c.Description, &c.Website,
		&c.Country, &c.City, &revenue, &employees, &years, &debtRatio, &credit,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if revenue.Valid {
		c.AnnualRevenue = &revenue.Float64
	}
	if employees.Valid {
		n := int(employees.Int64)
		c.EmployeeCount = &n
	}
	if years.Valid {
		n := int(years.Int64)
		c.YearsInBusiness = &n
	}
	if debtRatio.Valid {
		c.DebtToEquityRatio = &debtRatio.Float64
	}
	if credit.Valid {
		n := int(credit.Int64)
		c.CreditScore = &n
	}
	return &c, nil
}

func scanRequestLite(row scannable) (*model.Request, error) {
	var r model.Request
	var inputsJSON string
	var riskScore sql.NullFloat64
	var recsJSON sql.NullString

	err := row.Scan(&r.ID, &r.UserID, &r.CompanyID, &r.Amount, &r.Purpose, &r.Description,
		&inputsJSON, &riskScore, &r.RiskLevel, &r.Approved, &recsJSON, &r.Status, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if inputsJSON != "" {
		if err := json.Unmarshal([]byte(inputsJSON), &r.RiskInputs); err != nil {
			return nil, eris.Wrap(err, "unmarshal risk inputs")
		}
	}
	if riskScore.Valid {
		r.RiskScore = &riskScore.Float64
	}
	if recsJSON.Valid {
		if err := json.Unmarshal([]byte(recsJSON.String), &r.Recommendations); err != nil {
			return nil, eris.Wrap(err, "unmarshal recommendations")
		}
	}
	return &r, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}

func nullString(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
