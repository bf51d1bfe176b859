package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// AttachmentRepository handles attachment reference rows. Access follows the
// related record and is checked by the caller.
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create inserts an attachment
func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	return r.db.WithContext(ctx).Omit("UploadedBy").Create(attachment).Error
}

// Delete removes an attachment
func (r *AttachmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Attachment{}, id).Error
}

// GetByID loads an attachment
func (r *AttachmentRepository) GetByID(ctx context.Context, id uint) (*domain.Attachment, error) {
	var attachment domain.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

// ListByRelated returns the attachments of one record, newest first
func (r *AttachmentRepository) ListByRelated(ctx context.Context, relatedType domain.AttachmentRelatedType, relatedID uint) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := r.db.WithContext(ctx).
		Where("related_type = ? AND related_id = ?", relatedType, relatedID).
		Order("created_at DESC, id DESC").
		Find(&attachments).Error
	return attachments, err
}
