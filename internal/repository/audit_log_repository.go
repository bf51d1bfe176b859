package repository

import (
	"context"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	UserID     *uint
	Action     *domain.AuditAction
	EntityType string
	EntityID   *uint
	StartTime  *time.Time
	EndTime    *time.Time
}

// AuditLogRepository handles audit log data access
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *AuditLogRepository) WithTx(tx *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: tx}
}

// Create inserts a new audit log entry (append-only - no updates allowed)
func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.db.WithContext(ctx).Omit("User").Create(log).Error
}

// List retrieves audit logs with pagination and optional filters
func (r *AuditLogRepository) List(ctx context.Context, filter *AuditLogFilter, page Page) ([]domain.AuditLog, int64, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&domain.AuditLog{}), filter).Preload("User")
	return paginate[domain.AuditLog](query, page, "created_at DESC, id DESC")
}

// applyFilters applies optional filters to the query
func (r *AuditLogRepository) applyFilters(query *gorm.DB, filter *AuditLogFilter) *gorm.DB {
	if filter == nil {
		return query
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}

	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}

	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", filter.StartTime.UTC())
	}

	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", filter.EndTime.UTC())
	}

	return query
}

// EmailTemplateRepository handles email template data access
type EmailTemplateRepository struct {
	db *gorm.DB
}

// NewEmailTemplateRepository creates a new email template repository
func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepository {
	return &EmailTemplateRepository{db: db}
}

// Create inserts a template
func (r *EmailTemplateRepository) Create(ctx context.Context, template *domain.EmailTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// GetByID loads a template
func (r *EmailTemplateRepository) GetByID(ctx context.Context, id uint) (*domain.EmailTemplate, error) {
	var template domain.EmailTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetDefault loads the template flagged is_default
func (r *EmailTemplateRepository) GetDefault(ctx context.Context) (*domain.EmailTemplate, error) {
	var template domain.EmailTemplate
	err := r.db.WithContext(ctx).Where("is_default = ?", true).Order("id ASC").First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// List returns every template ordered by name
func (r *EmailTemplateRepository) List(ctx context.Context) ([]domain.EmailTemplate, error) {
	var templates []domain.EmailTemplate
	err := r.db.WithContext(ctx).Order("name ASC").Find(&templates).Error
	return templates, err
}
