package tenant

import (
	"context"
	defError "errors"

	"team-workspace-server/internal/domain"
	"team-workspace-server/internal/errors"

	"gorm.io/gorm"
)

// CompanyRepository defines the interface for company data access
type CompanyRepository interface {
	Create(ctx context.Context, company *domain.Company) error
	FindByCode(ctx context.Context, code string) (*domain.Company, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type CompanyRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new company repository
func NewRepository(db *gorm.DB) CompanyRepository {
	return &CompanyRepositoryImpl{db: db}
}

func (r *CompanyRepositoryImpl) Create(ctx context.Context, company *domain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *CompanyRepositoryImpl) FindByCode(ctx context.Context, code string) (*domain.Company, error) {
	var company domain.Company
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&company).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Company not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepositoryImpl) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Company{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}
