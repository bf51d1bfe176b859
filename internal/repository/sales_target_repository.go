package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// SalesTargetFilter represents filter options for targets
type SalesTargetFilter struct {
	UserID     *uint
	PeriodType *domain.PeriodType
	Year       *int
	Month      *int
}

// SalesTargetRepository handles sales target data access
type SalesTargetRepository struct {
	db *gorm.DB
}

// NewSalesTargetRepository creates a new sales target repository
func NewSalesTargetRepository(db *gorm.DB) *SalesTargetRepository {
	return &SalesTargetRepository{db: db}
}

func (r *SalesTargetRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.SalesTarget{}), OwnerSalesTargets)
}

// Create inserts a target
func (r *SalesTargetRepository) Create(ctx context.Context, target *domain.SalesTarget) error {
	return r.db.WithContext(ctx).Omit("User").Create(target).Error
}

// Update saves a target
func (r *SalesTargetRepository) Update(ctx context.Context, target *domain.SalesTarget) error {
	return r.db.WithContext(ctx).Omit("User").Save(target).Error
}

// Delete removes a target
func (r *SalesTargetRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.SalesTarget{}, id).Error
}

// GetByID loads a target visible to the actor in ctx
func (r *SalesTargetRepository) GetByID(ctx context.Context, id uint) (*domain.SalesTarget, error) {
	var target domain.SalesTarget
	err := r.scoped(ctx).Preload("User").Where("sales_targets.id = ?", id).First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// List returns visible targets, latest period first
func (r *SalesTargetRepository) List(ctx context.Context, filter *SalesTargetFilter) ([]domain.SalesTarget, error) {
	query := r.scoped(ctx)
	if filter != nil {
		if filter.UserID != nil {
			query = query.Where("sales_targets.user_id = ?", *filter.UserID)
		}
		if filter.PeriodType != nil {
			query = query.Where("sales_targets.period_type = ?", *filter.PeriodType)
		}
		if filter.Year != nil {
			query = query.Where("sales_targets.period_year = ?", *filter.Year)
		}
		if filter.Month != nil {
			query = query.Where("sales_targets.period_month = ?", *filter.Month)
		}
	}

	var targets []domain.SalesTarget
	err := query.Preload("User").
		Order("sales_targets.period_year DESC, sales_targets.period_month DESC, sales_targets.id DESC").
		Find(&targets).Error
	return targets, err
}

// FindForPeriod returns the target of userID for a month (month != nil) or a
// year. Duplicate rows are not prevented; the most recently created one wins.
func (r *SalesTargetRepository) FindForPeriod(ctx context.Context, userID uint, year int, month *int) (*domain.SalesTarget, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND period_year = ?", userID, year)
	if month != nil {
		query = query.Where("period_type = ? AND period_month = ?", domain.PeriodMonth, *month)
	} else {
		query = query.Where("period_type = ?", domain.PeriodYear)
	}

	var target domain.SalesTarget
	err := query.Order("created_at DESC, id DESC").First(&target).Error
	if err != nil {
		return nil, err
	}
	return &target, nil
}
