package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// AttachmentService stores file references against schools, visits, offers
// and sales. The file itself lives elsewhere; only its URL is kept.
type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	schoolRepo     *repository.SchoolRepository
	visitRepo      *repository.VisitRepository
	offerRepo      *repository.OfferRepository
	saleRepo       *repository.SaleRepository
	auditService   *AuditLogService
	logger         *zap.Logger
}

func NewAttachmentService(
	attachmentRepo *repository.AttachmentRepository,
	schoolRepo *repository.SchoolRepository,
	visitRepo *repository.VisitRepository,
	offerRepo *repository.OfferRepository,
	saleRepo *repository.SaleRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		schoolRepo:     schoolRepo,
		visitRepo:      visitRepo,
		offerRepo:      offerRepo,
		saleRepo:       saleRepo,
		auditService:   auditService,
		logger:         logger,
	}
}

// List returns the attachments of a record visible to the actor
func (s *AttachmentService) List(ctx context.Context, relatedType domain.AttachmentRelatedType, relatedID uint) ([]domain.AttachmentDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if err := s.checkRelated(ctx, relatedType, relatedID); err != nil {
		return nil, err
	}
	attachments, err := s.attachmentRepo.ListByRelated(ctx, relatedType, relatedID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	dtos := make([]domain.AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = mapper.ToAttachmentDTO(&attachments[i])
	}
	return dtos, nil
}

// Create stores a file reference against a visible record
func (s *AttachmentService) Create(ctx context.Context, req *domain.CreateAttachmentRequest) (*domain.AttachmentDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkRelated(ctx, req.RelatedType, req.RelatedID); err != nil {
		return nil, err
	}
	attachment := &domain.Attachment{
		RelatedType:      req.RelatedType,
		RelatedID:        req.RelatedID,
		FileURL:          req.FileURL,
		FileName:         req.FileName,
		ContentType:      req.ContentType,
		SizeBytes:        req.SizeBytes,
		UploadedByUserID: actor.ID,
	}
	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	dto := mapper.ToAttachmentDTO(attachment)
	s.auditService.LogCreate(ctx, entityAttachment, attachment.ID, dto)
	return &dto, nil
}

// Delete removes a file reference. The uploader or an admin may delete it,
// and the record it hangs off must still be visible.
func (s *AttachmentService) Delete(ctx context.Context, id uint) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrAttachmentNotFound)
	}
	if err := s.checkRelated(ctx, attachment.RelatedType, attachment.RelatedID); err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return ErrAttachmentNotFound
		}
		return err
	}
	if !actor.IsAdmin() && attachment.UploadedByUserID != actor.ID {
		return ErrAttachmentPermission
	}
	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	s.auditService.LogDelete(ctx, entityAttachment, id, mapper.ToAttachmentDTO(attachment))
	return nil
}

func (s *AttachmentService) checkRelated(ctx context.Context, relatedType domain.AttachmentRelatedType, relatedID uint) error {
	var err error
	var notFound error
	switch relatedType {
	case domain.AttachmentRelatedSchool:
		_, err = s.schoolRepo.GetByID(ctx, relatedID)
		notFound = ErrSchoolNotFound
	case domain.AttachmentRelatedVisit:
		_, err = s.visitRepo.GetByID(ctx, relatedID)
		notFound = ErrVisitNotFound
	case domain.AttachmentRelatedOffer:
		_, err = s.offerRepo.GetByID(ctx, relatedID)
		notFound = ErrOfferNotFound
	case domain.AttachmentRelatedSale:
		_, err = s.saleRepo.GetByID(ctx, relatedID)
		notFound = ErrSaleNotFound
	default:
		return domain.NewValidation(fmt.Sprintf("unknown related type %q", relatedType))
	}
	if err != nil {
		return notFoundOr(err, notFound)
	}
	return nil
}
