package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/risk-api/internal/db"
	"github.com/sells-group/risk-api/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_user":          `SELECT id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at FROM users WHERE id = $1`,
	"get_user_by_email": `SELECT id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at FROM users WHERE email = $1`,
	"get_company":       `SELECT id, user_id, name, industry, description, website, country, city, annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score, created_at, updated_at FROM companies WHERE id = $1 AND user_id = $2`,
	"get_request":       `SELECT id, user_id, company_id, amount, purpose, description, risk_inputs, risk_score, risk_level, approved, recommendations, status, notes, created_at, updated_at FROM requests WHERE id = $1 AND user_id = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests and by subsystems
// that manage their own pool lifecycle.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for use by subsystems
// that need direct query access (e.g., bulk imports).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	email           TEXT NOT NULL UNIQUE,
	hashed_password TEXT NOT NULL,
	full_name       TEXT NOT NULL DEFAULT '',
	is_active       BOOLEAN NOT NULL DEFAULT true,
	is_admin        BOOLEAN NOT NULL DEFAULT false,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS companies (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id              TEXT NOT NULL REFERENCES users(id),
	name                 TEXT NOT NULL,
	industry             TEXT NOT NULL,
	description          TEXT NOT NULL DEFAULT '',
	website              TEXT NOT NULL DEFAULT '',
	country              TEXT NOT NULL DEFAULT '',
	city                 TEXT NOT NULL DEFAULT '',
	annual_revenue       DOUBLE PRECISION,
	employee_count       INTEGER,
	years_in_business    INTEGER,
	debt_to_equity_ratio DOUBLE PRECISION,
	credit_score         INTEGER,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS requests (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id         TEXT NOT NULL REFERENCES users(id),
	company_id      TEXT NOT NULL REFERENCES companies(id),
	amount          DOUBLE PRECISION NOT NULL,
	purpose         TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	risk_inputs     JSONB NOT NULL DEFAULT '{}',
	risk_score      DOUBLE PRECISION,
	risk_level      TEXT NOT NULL DEFAULT '',
	approved        BOOLEAN NOT NULL DEFAULT false,
	recommendations JSONB,
	status          TEXT NOT NULL DEFAULT 'pending',
	notes           TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
CREATE INDEX IF NOT EXISTS idx_companies_user_id ON companies(user_id);
CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_requests_user_id ON requests(user_id);
CREATE INDEX IF NOT EXISTS idx_requests_company_id ON requests(company_id);
CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_user_status ON requests(user_id, status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Users

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.HashedPassword, u.FullName, u.IsActive, u.IsAdmin, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return eris.Wrap(err, "postgres: insert user")
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get user %s", id)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, hashed_password, full_name, is_active, is_admin, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get user by email")
	}
	return u, nil
}

// Companies

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.UserID, c.Name, string(c.Industry), c.Description, c.Website, c.Country, c.City,
		c.AnnualRevenue, c.EmployeeCount, c.YearsInBusiness, c.DebtToEquityRatio, c.CreditScore,
		c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert company")
}

func (s *PostgresStore) GetCompany(ctx context.Context, id, userID string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at
		 FROM companies WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, userID string, filter CompanyFilter) ([]model.Company, int, error) {
	where := ` WHERE user_id = $1`
	args := []any{userID}
	argIdx := 2

	if filter.Search != "" {
		where += fmt.Sprintf(` AND name ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.Industry != "" {
		where += fmt.Sprintf(` AND industry = $%d`, argIdx)
		args = append(args, filter.Industry)
		argIdx++
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count companies")
	}

	query := `SELECT id, user_id, name, industry, description, website, country, city,
	   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
	   created_at, updated_at
	 FROM companies` + where + ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, total, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, industry = $2, description = $3, website = $4,
		   country = $5, city = $6, annual_revenue = $7, employee_count = $8,
		   years_in_business = $9, debt_to_equity_ratio = $10, credit_score = $11, updated_at = $12
		 WHERE id = $13 AND user_id = $14`,
		c.Name, string(c.Industry), c.Description, c.Website, c.Country, c.City,
		c.AnnualRevenue, c.EmployeeCount, c.YearsInBusiness, c.DebtToEquityRatio, c.CreditScore,
		c.UpdatedAt, c.ID, c.UserID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM companies WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrConflict
		}
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Requests

func (s *PostgresStore) CreateRequestTx(ctx context.Context, userID, companyID string, build func(c *model.Company) (*model.Request, error)) (*model.Request, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	// FOR SHARE holds the company snapshot stable while the assessment
	// is scored and written.
	row := tx.QueryRow(ctx,
		`SELECT id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at
		 FROM companies WHERE id = $1 AND user_id = $2 FOR SHARE`,
		companyID, userID,
	)
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", companyID)
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

	_, err = tx.Exec(ctx,
		`INSERT INTO requests (id, user_id, company_id, amount, purpose, description,
		   risk_inputs, risk_score, risk_level, approved, recommendations, status, notes,
		   created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		r.ID, r.UserID, r.CompanyID, r.Amount, string(r.Purpose), r.Description,
		inputsJSON, r.RiskScore, r.RiskLevel, r.Approved, recsJSON, string(r.Status), r.Notes,
		r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert request")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit tx")
	}
	return r, nil
}

func (s *PostgresStore) UpdateRequestTx(ctx context.Context, userID, requestID, companyID string, build func(r *model.Request, c *model.Company) error) (*model.Request, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, user_id, company_id, amount, purpose, description,
		   risk_inputs, risk_score, risk_level, approved, recommendations, status, notes,
		   created_at, updated_at
		 FROM requests WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		requestID, userID,
	)
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get request %s", requestID)
	}

	if companyID == "" {
		companyID = r.CompanyID
	}
	crow := tx.QueryRow(ctx,
		`SELECT id, user_id, name, industry, description, website, country, city,
		   annual_revenue, employee_count, years_in_business, debt_to_equity_ratio, credit_score,
		   created_at, updated_at
		 FROM companies WHERE id = $1 AND user_id = $2 FOR SHARE`,
		companyID, userID,
	)
	c, err := scanCompany(crow)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", companyID)
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

	tag, err := tx.Exec(ctx,
		`UPDATE requests SET company_id = $1, amount = $2, purpose = $3, description = $4,
		   risk_inputs = $5, risk_score = $6, risk_level = $7, approved = $8,
		   recommendations = $9, status = $10, notes = $11, updated_at = $12
		 WHERE id = $13 AND user_id = $14`,
		r.CompanyID, r.Amount, string(r.Purpose), r.Description,
		inputsJSON, r.RiskScore, r.RiskLevel, r.Approved,
		recsJSON, string(r.Status), r.Notes, r.UpdatedAt,
		r.ID, r.UserID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update request %s", requestID)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit tx")
	}
	return r, nil
}

func (s *PostgresStore) GetRequest(ctx context.Context, id, userID string) (*model.Request, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, company_id, amount, purpose, description,
		   risk_inputs, risk_score, risk_level, approved, recommendations, status, notes,
		   created_at, updated_at
		 FROM requests WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	r, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get request %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, userID string, filter RequestFilter) ([]model.Request, int, error) {
	where := ` WHERE r.user_id = $1`
	args := []any{userID}
	argIdx := 2

	if filter.CompanyID != "" {
		where += fmt.Sprintf(` AND r.company_id = $%d`, argIdx)
		args = append(args, filter.CompanyID)
		argIdx++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(` AND r.status = $%d`, argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.RiskLevel != "" {
		where += fmt.Sprintf(` AND r.risk_level = $%d`, argIdx)
		args = append(args, filter.RiskLevel)
		argIdx++
	}
	if filter.MinAmount != nil {
		where += fmt.Sprintf(` AND r.amount >= $%d`, argIdx)
		args = append(args, *filter.MinAmount)
		argIdx++
	}
	if filter.MaxAmount != nil {
		where += fmt.Sprintf(` AND r.amount <= $%d`, argIdx)
		args = append(args, *filter.MaxAmount)
		argIdx++
	}
	if filter.Search != "" {
		where += fmt.Sprintf(` AND (r.purpose ILIKE $%d OR r.description ILIKE $%d OR c.name ILIKE $%d)`, argIdx, argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	from := ` FROM requests r JOIN companies c ON c.id = r.company_id`

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "postgres: count requests")
	}

	query := `SELECT r.id, r.user_id, r.company_id, r.amount, r.purpose, r.description,
	   r.risk_inputs, r.risk_score, r.risk_level, r.approved, r.recommendations, r.status, r.notes,
	   r.created_at, r.updated_at` + from + where + ` ORDER BY r.created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "postgres: list requests")
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "postgres: scan request")
		}
		requests = append(requests, *r)
	}
	return requests, total, eris.Wrap(rows.Err(), "postgres: list requests iterate")
}

func (s *PostgresStore) DeleteRequest(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM requests WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete request %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SummarizeRequests(ctx context.Context, userID string) (*RequestSummary, error) {
	var sum RequestSummary
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		   COUNT(*) FILTER (WHERE status = 'approved'),
		   COUNT(*) FILTER (WHERE status = 'rejected'),
		   COUNT(*) FILTER (WHERE status = 'pending'),
		   COALESCE(SUM(amount), 0)
		 FROM requests WHERE user_id = $1`,
		userID,
	).Scan(&sum.TotalRequests, &sum.ApprovedRequests, &sum.RejectedRequests,
		&sum.PendingRequests, &sum.TotalAmountRequested)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summarize requests")
	}
	if sum.TotalRequests > 0 {
		sum.ApprovalRate = float64(sum.ApprovedRequests) / float64(sum.TotalRequests) * 100
	}
	return &sum, nil
}

// scan helpers shared across single-row and multi-row reads

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanCompany(row pgx.Row) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Industry, &c.Description, &c.Website,
		&c.Country, &c.City, &c.AnnualRevenue, &c.EmployeeCount, &c.YearsInBusiness,
		&c.DebtToEquityRatio, &c.CreditScore, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanRequest(row pgx.Row) (*model.Request, error) {
	var r model.Request
	var inputsJSON []byte
	var recsNull *[]byte

	err := row.Scan(&r.ID, &r.UserID, &r.CompanyID, &r.Amount, &r.Purpose, &r.Description,
		&inputsJSON, &r.RiskScore, &r.RiskLevel, &r.Approved, &recsNull, &r.Status, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(inputsJSON) > 0 {
		if err := json.Unmarshal(inputsJSON, &r.RiskInputs); err != nil {
			return nil, eris.Wrap(err, "unmarshal risk inputs")
		}
	}
	if recsNull != nil {
		if err := json.Unmarshal(*recsNull, &r.Recommendations); err != nil {
			return nil, eris.Wrap(err, "unmarshal recommendations")
		}
	}
	return &r, nil
}

func marshalRequestJSON(r *model.Request) (inputs []byte, recs []byte, err error) {
	inputs, err = json.Marshal(r.RiskInputs)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal risk inputs")
	}
	if r.Recommendations != nil {
		recs, err = json.Marshal(r.Recommendations)
		if err != nil {
			return nil, nil, eris.Wrap(err, "marshal recommendations")
		}
	}
	return inputs, recs, nil
}
