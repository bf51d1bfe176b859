package repository

import (
	"context"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// AppointmentFilter represents filter options for appointments
type AppointmentFilter struct {
	UserID *uint
	Status *domain.AppointmentStatus
	Type   *domain.AppointmentType
	// Dates filters on start_datetime
	Dates DateRange
	// StartsFrom keeps appointments starting at or after the instant
	StartsFrom *time.Time
}

// AppointmentRepository handles appointment data access
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AppointmentRepository) WithTx(tx *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: tx}
}

func (r *AppointmentRepository) scoped(ctx context.Context) *gorm.DB {
	return ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.Appointment{}), OwnerAppointments)
}

// Create inserts an appointment
func (r *AppointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) error {
	return r.db.WithContext(ctx).Omit("User", "School").Create(appointment).Error
}

// Update saves an appointment
func (r *AppointmentRepository) Update(ctx context.Context, appointment *domain.Appointment) error {
	return r.db.WithContext(ctx).Omit("User", "School").Save(appointment).Error
}

// Delete removes an appointment
func (r *AppointmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Appointment{}, id).Error
}

// GetByID loads an appointment visible to the actor in ctx
func (r *AppointmentRepository) GetByID(ctx context.Context, id uint) (*domain.Appointment, error) {
	var appointment domain.Appointment
	err := r.scoped(ctx).Preload("User").Preload("School").Where("appointments.id = ?", id).First(&appointment).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// List returns a page of visible appointments in start order
func (r *AppointmentRepository) List(ctx context.Context, filter *AppointmentFilter, page Page) ([]domain.Appointment, int64, error) {
	query := r.applyFilters(r.scoped(ctx), filter).Preload("User").Preload("School")
	return paginate[domain.Appointment](query, page, "appointments.start_datetime ASC, appointments.id ASC")
}

// Count counts visible appointments matching filter
func (r *AppointmentRepository) Count(ctx context.Context, filter *AppointmentFilter) (int64, error) {
	var n int64
	err := r.applyFilters(r.scoped(ctx), filter).Count(&n).Error
	return n, err
}

func (r *AppointmentRepository) applyFilters(query *gorm.DB, filter *AppointmentFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.UserID != nil {
		query = query.Where("appointments.user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("appointments.status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("appointments.type = ?", *filter.Type)
	}
	if filter.StartsFrom != nil {
		query = query.Where("appointments.start_datetime >= ?", filter.StartsFrom.UTC())
	}
	return filter.Dates.Apply(query, "appointments.start_datetime")
}
