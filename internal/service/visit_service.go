package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// VisitService handles visits. Anyone who can see a visit can change it, so
// sales users edit their own, managers their team's and admins all.
type VisitService struct {
	visitRepo    *repository.VisitRepository
	schoolRepo   *repository.SchoolRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

func NewVisitService(
	visitRepo *repository.VisitRepository,
	schoolRepo *repository.SchoolRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *VisitService {
	return &VisitService{
		visitRepo:    visitRepo,
		schoolRepo:   schoolRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns a page of visits visible to the actor
func (s *VisitService) List(ctx context.Context, filter *repository.VisitFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	visits, total, err := s.visitRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	dtos := make([]domain.VisitDTO, len(visits))
	for i := range visits {
		dtos[i] = mapper.ToVisitDTO(&visits[i])
	}
	return paginated(dtos, total, page), nil
}

// GetByID returns a visible visit
func (s *VisitService) GetByID(ctx context.Context, id uint) (*domain.VisitDTO, error) {
	visit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToVisitDTO(visit)
	return &dto, nil
}

// Create records a visit owned by the actor
func (s *VisitService) Create(ctx context.Context, req *domain.CreateVisitRequest) (*domain.VisitDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.schoolRepo.GetByID(ctx, req.SchoolID); err != nil {
		return nil, notFoundOr(err, ErrSchoolNotFound)
	}

	visit := &domain.Visit{UserID: actor.ID}
	applyVisitFields(visit, req)
	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}

	visit, err = s.load(ctx, visit.ID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToVisitDTO(visit)
	s.auditService.LogCreate(ctx, entityVisit, visit.ID, dto)
	return &dto, nil
}

// Update changes a visible visit
func (s *VisitService) Update(ctx context.Context, id uint, req *domain.UpdateVisitRequest) (*domain.VisitDTO, error) {
	visit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SchoolID != visit.SchoolID {
		if _, err := s.schoolRepo.GetByID(ctx, req.SchoolID); err != nil {
			return nil, notFoundOr(err, ErrSchoolNotFound)
		}
	}
	before := mapper.ToVisitDTO(visit)

	createReq := domain.CreateVisitRequest(*req)
	applyVisitFields(visit, &createReq)
	if err := s.visitRepo.Update(ctx, visit); err != nil {
		return nil, fmt.Errorf("failed to update visit: %w", err)
	}

	visit, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToVisitDTO(visit)
	s.auditService.LogUpdate(ctx, entityVisit, id, before, dto)
	return &dto, nil
}

// Delete removes a visible visit
func (s *VisitService) Delete(ctx context.Context, id uint) error {
	visit, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.visitRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}
	s.auditService.LogDelete(ctx, entityVisit, id, mapper.ToVisitDTO(visit))
	return nil
}

func (s *VisitService) load(ctx context.Context, id uint) (*domain.Visit, error) {
	visit, err := s.visitRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrVisitNotFound)
	}
	return visit, nil
}

func applyVisitFields(visit *domain.Visit, req *domain.CreateVisitRequest) {
	visit.SchoolID = req.SchoolID
	visit.VisitDate = req.VisitDate.UTC()
	visit.Purpose = req.Purpose
	visit.ContactPerson = req.ContactPerson
	visit.Outcome = req.Outcome
	visit.NextStep = req.NextStep
	visit.Notes = req.Notes
	visit.User = nil
	visit.School = nil
}
