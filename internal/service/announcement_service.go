package service

import (
	"context"
	"fmt"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// AnnouncementService handles announcements. Reads are filtered by expiry for
// everyone and by audience for non-admins; writes are admin only.
type AnnouncementService struct {
	announcementRepo *repository.AnnouncementRepository
	auditService     *AuditLogService
	logger           *zap.Logger
	now              func() time.Time
}

func NewAnnouncementService(announcementRepo *repository.AnnouncementRepository, auditService *AuditLogService, logger *zap.Logger) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		auditService:     auditService,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// List returns every unexpired announcement addressed to the actor, newest first
func (s *AnnouncementService) List(ctx context.Context) ([]domain.AnnouncementDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	announcements, err := s.announcementRepo.ListVisible(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	dtos := make([]domain.AnnouncementDTO, len(announcements))
	for i := range announcements {
		dtos[i] = mapper.ToAnnouncementDTO(&announcements[i])
	}
	return dtos, nil
}

// GetByID returns an announcement under the same rules as List
func (s *AnnouncementService) GetByID(ctx context.Context, id uint) (*domain.AnnouncementDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrAnnouncementNotFound)
	}
	if !s.visibleTo(actor, announcement) {
		return nil, ErrAnnouncementNotFound
	}
	dto := mapper.ToAnnouncementDTO(announcement)
	return &dto, nil
}

// Create publishes an announcement
func (s *AnnouncementService) Create(ctx context.Context, req *domain.CreateAnnouncementRequest) (*domain.AnnouncementDTO, error) {
	actor, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	announcement := &domain.Announcement{CreatedByUserID: actor.ID}
	if err := applyAnnouncementFields(announcement, req); err != nil {
		return nil, err
	}
	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	dto := mapper.ToAnnouncementDTO(announcement)
	s.auditService.LogCreate(ctx, entityAnnouncement, announcement.ID, dto)
	return &dto, nil
}

// Update changes an announcement
func (s *AnnouncementService) Update(ctx context.Context, id uint, req *domain.UpdateAnnouncementRequest) (*domain.AnnouncementDTO, error) {
	if _, err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrAnnouncementNotFound)
	}
	before := mapper.ToAnnouncementDTO(announcement)

	createReq := domain.CreateAnnouncementRequest(*req)
	if err := applyAnnouncementFields(announcement, &createReq); err != nil {
		return nil, err
	}
	if err := s.announcementRepo.Update(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to update announcement: %w", err)
	}
	dto := mapper.ToAnnouncementDTO(announcement)
	s.auditService.LogUpdate(ctx, entityAnnouncement, id, before, dto)
	return &dto, nil
}

// Delete removes an announcement
func (s *AnnouncementService) Delete(ctx context.Context, id uint) error {
	if _, err := s.requireAdmin(ctx); err != nil {
		return err
	}
	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrAnnouncementNotFound)
	}
	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	s.auditService.LogDelete(ctx, entityAnnouncement, id, mapper.ToAnnouncementDTO(announcement))
	return nil
}

func (s *AnnouncementService) visibleTo(actor *auth.Actor, announcement *domain.Announcement) bool {
	if announcement.ExpiresAt != nil && announcement.ExpiresAt.Before(s.now()) {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	audience, err := announcement.Audience()
	if err != nil {
		s.logger.Warn("announcement with malformed audience",
			zap.Uint("announcement_id", announcement.ID),
			zap.Error(err))
		return false
	}
	return audience.Matches(actor.ID, actor.Role, actor.TeamID)
}

func (s *AnnouncementService) requireAdmin(ctx context.Context) (*auth.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrAnnouncementPermission
	}
	return actor, nil
}

func applyAnnouncementFields(announcement *domain.Announcement, req *domain.CreateAnnouncementRequest) error {
	audience, err := domain.ParseAudience(req.AudienceType, req.AudienceID)
	if err != nil {
		return err
	}
	announcement.Title = req.Title
	announcement.Content = req.Content
	announcement.Priority = req.Priority
	if announcement.Priority == "" {
		announcement.Priority = "normal"
	}
	announcement.AudienceType, announcement.AudienceID = audience.Columns()
	announcement.ExpiresAt = utcPtr(req.ExpiresAt)
	return nil
}
