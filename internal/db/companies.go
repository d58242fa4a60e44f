package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const companyColumns = "id, name, industry, location, description, logo, website, employee_count, created_at"

// CreateCompany inserts a company
func (db *DB) CreateCompany(ctx context.Context, c *Company) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO companies ("+companyColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Industry, c.Location, c.Description, c.Logo, c.Website, c.EmployeeCount, c.CreatedAt.Unix(),
	)
	return err
}

// ListCompanies returns one window of companies ordered by name, plus the total match count
func (db *DB) ListCompanies(ctx context.Context, filter CompanyFilter) ([]*Company, int, error) {
	where := ""
	args := []any{}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = " WHERE name LIKE ? OR industry LIKE ? OR location LIKE ?"
		args = append(args, pattern, pattern, pattern)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	query := "SELECT " + companyColumns + " FROM companies" + where + " ORDER BY name, id LIMIT ? OFFSET ?"
	rows, err := db.QueryContext(ctx, query, append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	companies := make([]*Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return companies, total, nil
}

// GetCompany retrieves a company by ID
func (db *DB) GetCompany(ctx context.Context, id string) (*Company, error) {
	row := db.QueryRowContext(ctx, "SELECT "+companyColumns+" FROM companies WHERE id = ?", id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// CountCompanies returns the number of companies
func (db *DB) CountCompanies(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*Company, error) {
	c := &Company{}
	var createdAt int64
	if err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.Location, &c.Description, &c.Logo, &c.Website, &c.EmployeeCount, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return c, nil
}
