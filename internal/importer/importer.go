// Package importer loads company records from CSV and XLSX files.
package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/risk-api/internal/db"
	"github.com/sells-group/risk-api/internal/model"
	"github.com/sells-group/risk-api/internal/store"
)

// companyColumns are the recognized header names. Matching is
// case-insensitive and ignores surrounding whitespace.
var companyColumns = map[string]bool{
	"name":                 true,
	"industry":             true,
	"description":          true,
	"website":              true,
	"country":              true,
	"city":                 true,
	"annual_revenue":       true,
	"employee_count":       true,
	"years_in_business":    true,
	"debt_to_equity_ratio": true,
	"credit_score":         true,
}

// ParseCSV reads company rows from a CSV stream. The first row must be a
// header containing at least a "name" column.
func ParseCSV(r io.Reader) ([]model.Company, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("importer: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "importer: read header")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read row")
		}
		rows = append(rows, record)
	}

	return parseRows(header, rows)
}

// ParseXLSX reads company rows from the first sheet of an XLSX file. The
// first row must be a header containing at least a "name" column.
func ParseXLSX(path string) ([]model.Company, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("importer: empty file")
	}

	header := rowToStrings(sheet.Rows[0])
	rows := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		rows = append(rows, rowToStrings(row))
	}

	return parseRows(header, rows)
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

// parseRows maps header-indexed string rows onto companies. Rows with an
// empty name are skipped; malformed numeric cells fail the import with the
// offending row number (1-based, counting the header).
func parseRows(header []string, rows [][]string) ([]model.Company, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if companyColumns[key] {
			idx[key] = i
		}
	}
	if _, ok := idx["name"]; !ok {
		return nil, eris.New("importer: header has no name column")
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var companies []model.Company
	for n, row := range rows {
		rowNum := n + 2

		name := cell(row, "name")
		if name == "" {
			continue
		}

		industry := strings.ToLower(cell(row, "industry"))
		if industry == "" {
			industry = string(model.IndustryOther)
		}
		if !model.ValidIndustry(industry) {
			return nil, eris.Errorf("importer: row %d: unknown industry %q", rowNum, industry)
		}

		c := model.Company{
			Name:        name,
			Industry:    model.Industry(industry),
			Description: cell(row, "description"),
			Website:     cell(row, "website"),
			Country:     cell(row, "country"),
			City:        cell(row, "city"),
		}

		var err error
		if c.AnnualRevenue, err = parseFloatCell(cell(row, "annual_revenue")); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: annual_revenue", rowNum)
		}
		if c.EmployeeCount, err = parseIntCell(cell(row, "employee_count")); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: employee_count", rowNum)
		}
		if c.YearsInBusiness, err = parseIntCell(cell(row, "years_in_business")); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: years_in_business", rowNum)
		}
		if c.DebtToEquityRatio, err = parseFloatCell(cell(row, "debt_to_equity_ratio")); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: debt_to_equity_ratio", rowNum)
		}
		if c.CreditScore, err = parseIntCell(cell(row, "credit_score")); err != nil {
			return nil, eris.Wrapf(err, "importer: row %d: credit_score", rowNum)
		}

		companies = append(companies, c)
	}
	return companies, nil
}

func parseFloatCell(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", s)
	}
	return &f, nil
}

func parseIntCell(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", s)
	}
	return &i, nil
}

// Import inserts companies one by one through the store, assigning ownership
// to the given user. Works against any store backend.
func Import(ctx context.Context, st store.Store, userID string, companies []model.Company) (int, error) {
	for i := range companies {
		companies[i].UserID = userID
		if err := st.CreateCompany(ctx, &companies[i]); err != nil {
			return i, eris.Wrapf(err, "importer: insert company %q", companies[i].Name)
		}
	}
	zap.L().Info("companies imported", zap.Int("count", len(companies)), zap.String("user_id", userID))
	return len(companies), nil
}

// bulkColumns is the column order used by BulkImport.
var bulkColumns = []string{
	"id", "user_id", "name", "industry", "description", "website", "country", "city",
	"annual_revenue", "employee_count", "years_in_business", "debt_to_equity_ratio", "credit_score",
	"created_at", "updated_at",
}

// BulkImport loads companies into Postgres through a temp-table upsert,
// which is much faster than per-row inserts for large files.
func BulkImport(ctx context.Context, pool db.Pool, userID string, companies []model.Company) (int64, error) {
	if len(companies) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(companies))
	for i := range companies {
		c := &companies[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.UserID = userID
		c.CreatedAt = now
		c.UpdatedAt = now
		rows = append(rows, []any{
			c.ID, c.UserID, c.Name, string(c.Industry), c.Description, c.Website, c.Country, c.City,
			c.AnnualRevenue, c.EmployeeCount, c.YearsInBusiness, c.DebtToEquityRatio, c.CreditScore,
			c.CreatedAt, c.UpdatedAt,
		})
	}

	n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
		Table:        "companies",
		Columns:      bulkColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "importer: bulk upsert companies")
	}
	zap.L().Info("companies bulk imported", zap.Int64("count", n), zap.String("user_id", userID))
	return n, nil
}
