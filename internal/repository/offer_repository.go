package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// OfferFilter represents filter options for offers
type OfferFilter struct {
	SchoolID *uint
	UserID   *uint
	Status   *domain.OfferStatus
	// Dates filters on created_at
	Dates DateRange
	Sort  SortConfig
}

var offerSortableFields = map[string]string{
	"createdAt":  "offers.created_at",
	"updatedAt":  "offers.updated_at",
	"title":      "offers.title",
	"status":     "offers.status",
	"totalPrice": "offers.total_price",
	"validUntil": "offers.valid_until",
}

// OfferRepository handles offer data access
type OfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *gorm.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *OfferRepository) WithTx(tx *gorm.DB) *OfferRepository {
	return &OfferRepository{db: tx}
}

func (r *OfferRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.Offer{}), OwnerOffers)
}

// Create inserts an offer
func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	return r.db.WithContext(ctx).Omit("User", "School").Create(offer).Error
}

// Update saves an offer
func (r *OfferRepository) Update(ctx context.Context, offer *domain.Offer) error {
	return r.db.WithContext(ctx).Omit("User", "School").Save(offer).Error
}

// UpdateFields updates selected columns of an offer
func (r *OfferRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Offer{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateFieldsFrom applies fields only while the offer is still in status
// from. It reports whether a row was changed.
func (r *OfferRepository) UpdateFieldsFrom(ctx context.Context, id uint, from domain.OfferStatus, fields map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Offer{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected > 0, result.Error
}

// Delete removes an offer
func (r *OfferRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Offer{}, id).Error
}

// GetByID loads an offer visible to the actor in ctx
func (r *OfferRepository) GetByID(ctx context.Context, id uint) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.scoped(ctx).Preload("User").Preload("School").Where("offers.id = ?", id).First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// List returns a page of visible offers, most recently updated first unless
// filter.Sort names another sortable field
func (r *OfferRepository) List(ctx context.Context, filter *OfferFilter, page Page) ([]domain.Offer, int64, error) {
	var sort SortConfig
	if filter != nil {
		sort = filter.Sort
	}
	order := BuildOrderClause(sort, offerSortableFields, "offers.updated_at") + ", offers.id DESC"
	query := r.applyFilters(r.scoped(ctx), filter).Preload("User").Preload("School")
	return paginate[domain.Offer](query, page, order)
}

// Count counts visible offers matching filter
func (r *OfferRepository) Count(ctx context.Context, filter *OfferFilter) (int64, error) {
	var n int64
	err := r.applyFilters(r.scoped(ctx), filter).Count(&n).Error
	return n, err
}

func (r *OfferRepository) applyFilters(query *gorm.DB, filter *OfferFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.SchoolID != nil {
		query = query.Where("offers.school_id = ?", *filter.SchoolID)
	}
	if filter.UserID != nil {
		query = query.Where("offers.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("offers.status = ?", *filter.Status)
	}
	return filter.Dates.Apply(query, "offers.created_at")
}
