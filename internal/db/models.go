package db

import (
	"time"

	"github.com/google/uuid"
)

// Company is an entry of the public company directory
type Company struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	Location      string    `json:"location"`
	Description   string    `json:"description"`
	Logo          string    `json:"logo"`
	Website       string    `json:"website"`
	EmployeeCount int       `json:"employee_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewCompany creates a company with a fresh ID
func NewCompany(name, industry, location string) *Company {
	return &Company{
		ID:        uuid.New().String(),
		Name:      name,
		Industry:  industry,
		Location:  location,
		CreatedAt: time.Now().UTC(),
	}
}

// CompanyFilter narrows a company listing
type CompanyFilter struct {
	Search string
	Limit  int
	Offset int
}

// Draft is a stored multi-step form bag; Data is a JSON object
type Draft struct {
	SessionID string
	Data      []byte
	UpdatedAt time.Time
	ExpiresAt time.Time
}
