package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// CommissionFilter represents filter options for commissions
type CommissionFilter struct {
	UserID     *uint
	Status     *domain.CommissionStatus
	SourceType *domain.CommissionSourceType
	Year       *int
	Month      *int
}

// CommissionRepository handles commission data access
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository creates a new commission repository
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.Commission{}), OwnerCommissions)
}

// Create inserts a commission
func (r *CommissionRepository) Create(ctx context.Context, commission *domain.Commission) error {
	return r.db.WithContext(ctx).Omit("User").Create(commission).Error
}

// UpdateStatus changes the payout status of a commission
func (r *CommissionRepository) UpdateStatus(ctx context.Context, id uint, status domain.CommissionStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Commission{}).Where("id = ?", id).Update("status", status).Error
}

// GetByID loads a commission visible to the actor in ctx
func (r *CommissionRepository) GetByID(ctx context.Context, id uint) (*domain.Commission, error) {
	var commission domain.Commission
	err := r.scoped(ctx).Preload("User").Where("commissions.id = ?", id).First(&commission).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// List returns every visible commission matching filter, latest period first
func (r *CommissionRepository) List(ctx context.Context, filter *CommissionFilter) ([]domain.Commission, error) {
	query := r.scoped(ctx)
	if filter != nil {
		if filter.UserID != nil {
			query = query.Where("commissions.user_id = ?", *filter.UserID)
		}
		if filter.Status != nil {
			query = query.Where("commissions.status = ?", *filter.Status)
		}
		if filter.SourceType != nil {
			query = query.Where("commissions.source_type = ?", *filter.SourceType)
		}
		if filter.Year != nil {
			query = query.Where("commissions.period_year = ?", *filter.Year)
		}
		if filter.Month != nil {
			query = query.Where("commissions.period_month = ?", *filter.Month)
		}
	}

	var commissions []domain.Commission
	err := query.Preload("User").
		Order("commissions.period_year DESC, commissions.period_month DESC, commissions.id DESC").
		Find(&commissions).Error
	return commissions, err
}
