package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/calculator"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// CommissionService handles commissions. Everyone reads the commissions
// visible to them; only admins create or settle them.
type CommissionService struct {
	commissionRepo *repository.CommissionRepository
	userRepo       *repository.UserRepository
	auditService   *AuditLogService
	logger         *zap.Logger
}

func NewCommissionService(
	commissionRepo *repository.CommissionRepository,
	userRepo *repository.UserRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		userRepo:       userRepo,
		auditService:   auditService,
		logger:         logger,
	}
}

// List returns the visible commissions with totals per currency and source type
func (s *CommissionService) List(ctx context.Context, filter *repository.CommissionFilter) (*domain.CommissionListDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	commissions, err := s.commissionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}
	totals := calculator.CommissionTotals(commissions, DefaultCurrency)
	result := &domain.CommissionListDTO{
		Data:   make([]domain.CommissionDTO, len(commissions)),
		Totals: make(map[string]domain.CommissionTotalsDTO, len(totals)),
	}
	for currency, t := range totals {
		result.Totals[currency] = domain.CommissionTotalsDTO{BySource: t.BySource, Total: t.Total}
	}
	for i := range commissions {
		result.Data[i] = mapper.ToCommissionDTO(&commissions[i])
	}
	return result, nil
}

// Create books a commission for a user
func (s *CommissionService) Create(ctx context.Context, req *domain.CreateCommissionRequest) (*domain.CommissionDTO, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}

	commission := &domain.Commission{
		UserID:      user.ID,
		SourceType:  req.SourceType,
		SourceID:    req.SourceID,
		Amount:      req.Amount,
		Currency:    currencyOrDefault(req.Currency),
		Status:      domain.CommissionStatusPending,
		PeriodYear:  req.PeriodYear,
		PeriodMonth: req.PeriodMonth,
		Notes:       req.Notes,
	}
	if err := s.commissionRepo.Create(ctx, commission); err != nil {
		return nil, fmt.Errorf("failed to create commission: %w", err)
	}
	commission.User = user
	dto := mapper.ToCommissionDTO(commission)
	s.auditService.LogCreate(ctx, entityCommission, commission.ID, dto)
	return &dto, nil
}

// UpdateStatus moves a commission between pending, approved and paid
func (s *CommissionService) UpdateStatus(ctx context.Context, id uint, req *domain.UpdateCommissionStatusRequest) (*domain.CommissionDTO, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	commission, err := s.commissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCommissionNotFound)
	}
	from := commission.Status
	if from != req.Status {
		if err := s.commissionRepo.UpdateStatus(ctx, id, req.Status); err != nil {
			return nil, fmt.Errorf("failed to update commission status: %w", err)
		}
		commission.Status = req.Status
		s.auditService.LogStatusChange(ctx, entityCommission, id, string(from), string(req.Status))
	}
	dto := mapper.ToCommissionDTO(commission)
	return &dto, nil
}

func (s *CommissionService) requireAdmin(ctx context.Context) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrCommissionPermission
	}
	return nil
}
