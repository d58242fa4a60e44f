package db

import (
	"context"
	"log/slog"
)

var demoCompanies = []struct {
	name, industry, location, description, website string
	employees                                      int
}{
	{"Acme Logistics", "Transportation", "Nairobi", "Regional freight and last-mile delivery.", "https://acme-logistics.example", 420},
	{"Brightpath Learning", "Education", "Lagos", "Vocational training partner for technical trades.", "https://brightpath.example", 85},
	{"Cobalt Health", "Healthcare", "Accra", "Clinic network hiring nurses and lab technicians.", "https://cobalt-health.example", 1200},
	{"Delta Fintech", "Financial Services", "Kigali", "Payments infrastructure for small merchants.", "https://delta-fintech.example", 230},
	{"Evergreen Agro", "Agriculture", "Kampala", "Farm inputs and cooperative management.", "https://evergreen-agro.example", 150},
}

// SeedDemoCompanies inserts the demo directory when the table is empty
func (db *DB) SeedDemoCompanies(ctx context.Context) error {
	n, err := db.CountCompanies(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Debug("companies already present - skipping seed", "count", n)
		return nil
	}

	for _, d := range demoCompanies {
		c := NewCompany(d.name, d.industry, d.location)
		c.Description = d.description
		c.Website = d.website
		c.EmployeeCount = d.employees
		if err := db.CreateCompany(ctx, c); err != nil {
			return err
		}
	}
	slog.Info("seeded demo companies", "count", len(demoCompanies))
	return nil
}
