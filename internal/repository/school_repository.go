package repository

import (
	"context"
	"strings"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// SchoolFilter represents filter options for listing schools
type SchoolFilter struct {
	Search   string
	City     string
	District string
	Region   string
}

// SchoolStats holds per-school pipeline counts
type SchoolStats struct {
	Visits int64
	Offers int64
	Sales  int64
}

// SchoolRepository handles school data access. Schools are shared and are
// not filtered by owner.
type SchoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository creates a new school repository
func NewSchoolRepository(db *gorm.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// Create inserts a school
func (r *SchoolRepository) Create(ctx context.Context, school *domain.School) error {
	return r.db.WithContext(ctx).Create(school).Error
}

// Update saves a school
func (r *SchoolRepository) Update(ctx context.Context, school *domain.School) error {
	return r.db.WithContext(ctx).Save(school).Error
}

// Delete removes a school
func (r *SchoolRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.School{}, id).Error
}

// GetByID loads a school
func (r *SchoolRepository) GetByID(ctx context.Context, id uint) (*domain.School, error) {
	var school domain.School
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&school).Error
	if err != nil {
		return nil, err
	}
	return &school, nil
}

// List returns a page of schools ordered by name
func (r *SchoolRepository) List(ctx context.Context, filter *SchoolFilter, page Page) ([]domain.School, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.School{})

	if filter != nil {
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			query = query.Where("(LOWER(name) LIKE ? OR LOWER(contact_name) LIKE ?)", like, like)
		}
		if filter.City != "" {
			query = query.Where("city = ?", filter.City)
		}
		if filter.District != "" {
			query = query.Where("district = ?", filter.District)
		}
		if filter.Region != "" {
			query = query.Where("region = ?", filter.Region)
		}
	}

	return paginate[domain.School](query, page, "name ASC")
}

// Stats counts the visits, offers and sales against a school that the actor
// in ctx can see. Two actors looking at one school may get different numbers.
func (r *SchoolRepository) Stats(ctx context.Context, schoolID uint) (*SchoolStats, error) {
	var stats SchoolStats

	count := func(model interface{}, owner OwnerColumn, table string, dest *int64) error {
		query := ApplyVisibility(ctx, r.db.WithContext(ctx).Model(model), owner)
		return query.Where(table+".school_id = ?", schoolID).Count(dest).Error
	}

	if err := count(&domain.Visit{}, OwnerVisits, "visits", &stats.Visits); err != nil {
		return nil, err
	}
	if err := count(&domain.Offer{}, OwnerOffers, "offers", &stats.Offers); err != nil {
		return nil, err
	}
	if err := count(&domain.Sale{}, OwnerSales, "sales", &stats.Sales); err != nil {
		return nil, err
	}
	return &stats, nil
}
