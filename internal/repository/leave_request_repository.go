package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// LeaveRequestFilter represents filter options for leave requests
type LeaveRequestFilter struct {
	UserID *uint
	Status *domain.LeaveStatus
	Dates  DateRange
}

// LeaveRequestRepository handles leave request data access
type LeaveRequestRepository struct {
	db *gorm.DB
}

// NewLeaveRequestRepository creates a new leave request repository
func NewLeaveRequestRepository(db *gorm.DB) *LeaveRequestRepository {
	return &LeaveRequestRepository{db: db}
}

func (r *LeaveRequestRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.LeaveRequest{}), OwnerLeaveRequests)
}

// Create inserts a leave request
func (r *LeaveRequestRepository) Create(ctx context.Context, request *domain.LeaveRequest) error {
	return r.db.WithContext(ctx).Omit("User").Create(request).Error
}

// Update saves a leave request
func (r *LeaveRequestRepository) Update(ctx context.Context, request *domain.LeaveRequest) error {
	return r.db.WithContext(ctx).Omit("User").Save(request).Error
}

// GetByID loads a leave request visible to the actor in ctx
func (r *LeaveRequestRepository) GetByID(ctx context.Context, id uint) (*domain.LeaveRequest, error) {
	var request domain.LeaveRequest
	err := r.scoped(ctx).Preload("User").Where("leave_requests.id = ?", id).First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns visible leave requests, latest start first
func (r *LeaveRequestRepository) List(ctx context.Context, filter *LeaveRequestFilter) ([]domain.LeaveRequest, error) {
	query := r.scoped(ctx)
	if filter != nil {
		if filter.UserID != nil {
			query = query.Where("leave_requests.user_id = ?", *filter.UserID)
		}
		if filter.Status != nil {
			query = query.Where("leave_requests.status = ?", *filter.Status)
		}
		query = filter.Dates.Apply(query, "leave_requests.start_date")
	}

	var requests []domain.LeaveRequest
	err := query.Preload("User").Order("leave_requests.start_date DESC, leave_requests.id DESC").Find(&requests).Error
	return requests, err
}
