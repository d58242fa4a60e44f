package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/hireportal/internal/db"
	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/validation"
)

const maxSearchLength = 100

// companyService implements the CompanyService interface
type companyService struct {
	repo   domain.CompanyRepository
	logger *slog.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(repo domain.CompanyRepository, logger *slog.Logger) domain.CompanyService {
	return &companyService{
		repo:   repo,
		logger: logger,
	}
}

// ListCompanies returns one page of companies matching search
func (s *companyService) ListCompanies(ctx context.Context, search string, page domain.PageRequest) (domain.Page[*db.Company], error) {
	search = strings.TrimSpace(search)
	if len(search) > maxSearchLength {
		return domain.Page[*db.Company]{}, domain.NewValidationError("search must be 100 characters or less", nil)
	}

	companies, total, err := s.repo.ListCompanies(ctx, db.CompanyFilter{
		Search: search,
		Limit:  page.PageSize,
		Offset: page.Offset(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list companies", "error", err)
		return domain.Page[*db.Company]{}, domain.NewInternalError("failed to list companies", err)
	}

	return domain.NewPage(companies, total, page), nil
}

// GetCompany retrieves a company by id
func (s *companyService) GetCompany(ctx context.Context, id string) (*db.Company, error) {
	if err := validation.ValidateCompanyID(id); err != nil {
		return nil, domain.NewValidationError(err.Error(), err)
	}

	company, err := s.repo.GetCompany(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, domain.ErrCompanyNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get company", "company_id", id, "error", err)
		return nil, domain.NewInternalError("failed to get company", err)
	}
	return company, nil
}
