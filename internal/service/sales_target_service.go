package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SalesTargetService handles per-user goals
type SalesTargetService struct {
	targetRepo   *repository.SalesTargetRepository
	userRepo     *repository.UserRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

func NewSalesTargetService(
	targetRepo *repository.SalesTargetRepository,
	userRepo *repository.UserRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *SalesTargetService {
	return &SalesTargetService{
		targetRepo:   targetRepo,
		userRepo:     userRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns the targets visible to the actor
func (s *SalesTargetService) List(ctx context.Context, filter *repository.SalesTargetFilter) ([]domain.SalesTargetDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	targets, err := s.targetRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales targets: %w", err)
	}
	dtos := make([]domain.SalesTargetDTO, len(targets))
	for i := range targets {
		dtos[i] = mapper.ToSalesTargetDTO(&targets[i])
	}
	return dtos, nil
}

// GetByID returns a visible target
func (s *SalesTargetService) GetByID(ctx context.Context, id uint) (*domain.SalesTargetDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	target, err := s.targetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSalesTargetNotFound)
	}
	dto := mapper.ToSalesTargetDTO(target)
	return &dto, nil
}

// Upsert sets the target of a user for a period, updating the most recent
// existing row for that period or creating one. Admins may set any user's
// target; managers only those of users visible to them.
func (s *SalesTargetService) Upsert(ctx context.Context, req *domain.UpsertSalesTargetRequest) (*domain.SalesTargetDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.Role != domain.RoleManager {
		return nil, ErrTargetPermission
	}
	if err := validatePeriod(req.PeriodType, req.PeriodMonth); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetVisibleByID(ctx, req.UserID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}

	target, err := s.targetRepo.FindForPeriod(ctx, user.ID, req.PeriodYear, req.PeriodMonth)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up sales target: %w", err)
	}

	var before *domain.SalesTargetDTO
	if target == nil {
		target = &domain.SalesTarget{
			UserID:          user.ID,
			PeriodType:      req.PeriodType,
			PeriodYear:      req.PeriodYear,
			PeriodMonth:     req.PeriodMonth,
			CreatedByUserID: actor.ID,
		}
	} else {
		dto := mapper.ToSalesTargetDTO(target)
		before = &dto
	}
	target.VisitTarget = req.VisitTarget
	target.OfferTarget = req.OfferTarget
	target.DealTarget = req.DealTarget
	target.RevenueTarget = req.RevenueTarget

	if before == nil {
		err = s.targetRepo.Create(ctx, target)
	} else {
		err = s.targetRepo.Update(ctx, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save sales target: %w", err)
	}

	target.User = user
	dto := mapper.ToSalesTargetDTO(target)
	if before == nil {
		s.auditService.LogCreate(ctx, entitySalesTarget, target.ID, dto)
	} else {
		s.auditService.LogUpdate(ctx, entitySalesTarget, target.ID, *before, dto)
	}
	return &dto, nil
}

// Delete removes a target. Admin roles only.
func (s *SalesTargetService) Delete(ctx context.Context, id uint) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrTargetPermission
	}
	target, err := s.targetRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrSalesTargetNotFound)
	}
	if err := s.targetRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sales target: %w", err)
	}
	s.auditService.LogDelete(ctx, entitySalesTarget, id, mapper.ToSalesTargetDTO(target))
	return nil
}

// validatePeriod requires a month for monthly targets and forbids one for yearly targets
func validatePeriod(periodType domain.PeriodType, month *int) error {
	switch periodType {
	case domain.PeriodMonth:
		if month == nil {
			return ErrInvalidPeriod
		}
	case domain.PeriodYear:
		if month != nil {
			return ErrInvalidPeriod
		}
	default:
		return ErrInvalidPeriod
	}
	return nil
}
