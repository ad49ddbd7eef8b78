package history

import (
	"context"

	"gorm.io/gorm"
)

// OperationRepository defines the interface for audit record access
type OperationRepository interface {
	Create(ctx context.Context, op *Operation) error
	ListByCompany(ctx context.Context, companyCode string, page, pageSize int) ([]Operation, int64, error)
}

type OperationRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new operation repository
func NewRepository(db *gorm.DB) OperationRepository {
	return &OperationRepositoryImpl{db: db}
}

func (r *OperationRepositoryImpl) Create(ctx context.Context, op *Operation) error {
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *OperationRepositoryImpl) ListByCompany(ctx context.Context, companyCode string, page, pageSize int) ([]Operation, int64, error) {
	var ops []Operation
	var total int64

	if err := r.db.WithContext(ctx).Model(&Operation{}).
		Where("company_code = ?", companyCode).
		Count(&total).Error; err != nil {
		return ops, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Where("company_code = ?", companyCode).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&ops).Error

	return ops, total, err
}
