package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// SaleFilter represents filter options for sales
type SaleFilter struct {
	SchoolID *uint
	UserID   *uint
	Status   *domain.SaleStatus
	// Dates filters on sale_date
	Dates DateRange
}

// SaleRepository handles sale data access. Sales are owned by closed_by_user_id.
type SaleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *SaleRepository) WithTx(tx *gorm.DB) *SaleRepository {
	return &SaleRepository{db: tx}
}

func (r *SaleRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.Sale{}), OwnerSales)
}

// Create inserts a sale
func (r *SaleRepository) Create(ctx context.Context, sale *domain.Sale) error {
	return r.db.WithContext(ctx).Omit("Offer", "School", "ClosedBy").Create(sale).Error
}

// Update saves a sale
func (r *SaleRepository) Update(ctx context.Context, sale *domain.Sale) error {
	return r.db.WithContext(ctx).Omit("Offer", "School", "ClosedBy").Save(sale).Error
}

// GetByID loads a sale visible to the actor in ctx
func (r *SaleRepository) GetByID(ctx context.Context, id uint) (*domain.Sale, error) {
	var sale domain.Sale
	err := r.scoped(ctx).Preload("School").Preload("ClosedBy").Where("sales.id = ?", id).First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetByOfferID loads the visible sale created from an offer
func (r *SaleRepository) GetByOfferID(ctx context.Context, offerID uint) (*domain.Sale, error) {
	var sale domain.Sale
	err := r.scoped(ctx).Where("sales.offer_id = ?", offerID).First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns a page of visible sales, newest first
func (r *SaleRepository) List(ctx context.Context, filter *SaleFilter, page Page) ([]domain.Sale, int64, error) {
	query := r.applyFilters(r.scoped(ctx), filter).Preload("School").Preload("ClosedBy")
	return paginate[domain.Sale](query, page, "sales.sale_date DESC, sales.id DESC")
}

// Count counts visible sales matching filter
func (r *SaleRepository) Count(ctx context.Context, filter *SaleFilter) (int64, error) {
	var n int64
	err := r.applyFilters(r.scoped(ctx), filter).Count(&n).Error
	return n, err
}

// RevenueAmounts returns final_revenue_amount of every visible sale matching
// filter. Summation is left to the caller so it can use exact decimal math.
func (r *SaleRepository) RevenueAmounts(ctx context.Context, filter *SaleFilter) ([]float64, error) {
	var amounts []float64
	err := r.applyFilters(r.scoped(ctx), filter).Pluck("sales.final_revenue_amount", &amounts).Error
	return amounts, err
}

func (r *SaleRepository) applyFilters(query *gorm.DB, filter *SaleFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.SchoolID != nil {
		query = query.Where("sales.school_id = ?", *filter.SchoolID)
	}
	if filter.UserID != nil {
		query = query.Where("sales.closed_by_user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("sales.status = ?", *filter.Status)
	}
	return filter.Dates.Apply(query, "sales.sale_date")
}

// ExpenseRepository handles expense data access. Expenses carry no owner;
// access follows the parent sale.
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts an expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Omit("Sale", "CreatedBy").Create(expense).Error
}

// Update saves an expense
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Omit("Sale", "CreatedBy").Save(expense).Error
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Expense{}, id).Error
}

// GetByID loads an expense
func (r *ExpenseRepository) GetByID(ctx context.Context, id uint) (*domain.Expense, error) {
	var expense domain.Expense
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// ListBySale returns every expense of a sale ordered by date
func (r *ExpenseRepository) ListBySale(ctx context.Context, saleID uint) ([]domain.Expense, error) {
	var expenses []domain.Expense
	err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("expense_date ASC, id ASC").
		Find(&expenses).Error
	return expenses, err
}
