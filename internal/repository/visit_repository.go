package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// VisitFilter represents filter options for visits
type VisitFilter struct {
	SchoolID *uint
	UserID   *uint
	Dates    DateRange
}

// VisitRepository handles visit data access
type VisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.Visit{}), OwnerVisits)
}

// Create inserts a visit
func (r *VisitRepository) Create(ctx context.Context, visit *domain.Visit) error {
	return r.db.WithContext(ctx).Omit("User", "School").Create(visit).Error
}

// Update saves a visit
func (r *VisitRepository) Update(ctx context.Context, visit *domain.Visit) error {
	return r.db.WithContext(ctx).Omit("User", "School").Save(visit).Error
}

// Delete removes a visit
func (r *VisitRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Visit{}, id).Error
}

// GetByID loads a visit visible to the actor in ctx
func (r *VisitRepository) GetByID(ctx context.Context, id uint) (*domain.Visit, error) {
	var visit domain.Visit
	err := r.scoped(ctx).Preload("User").Preload("School").Where("visits.id = ?", id).First(&visit).Error
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// List returns a page of visible visits, newest first
func (r *VisitRepository) List(ctx context.Context, filter *VisitFilter, page Page) ([]domain.Visit, int64, error) {
	query := r.applyFilters(r.scoped(ctx), filter).Preload("User").Preload("School")
	return paginate[domain.Visit](query, page, "visits.visit_date DESC, visits.id DESC")
}

// Count counts visible visits matching filter
func (r *VisitRepository) Count(ctx context.Context, filter *VisitFilter) (int64, error) {
	var n int64
	err := r.applyFilters(r.scoped(ctx), filter).Count(&n).Error
	return n, err
}

func (r *VisitRepository) applyFilters(query *gorm.DB, filter *VisitFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.SchoolID != nil {
		query = query.Where("visits.school_id = ?", *filter.SchoolID)
	}
	if filter.UserID != nil {
		query = query.Where("visits.user_id = ?", *filter.UserID)
	}
	return filter.Dates.Apply(query, "visits.visit_date")
}
