package service

import (
	"context"
	"fmt"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// LeaveRequestService handles time-off requests
type LeaveRequestService struct {
	leaveRepo    *repository.LeaveRequestRepository
	auditService *AuditLogService
	logger       *zap.Logger
	now          func() time.Time
}

func NewLeaveRequestService(leaveRepo *repository.LeaveRequestRepository, auditService *AuditLogService, logger *zap.Logger) *LeaveRequestService {
	return &LeaveRequestService{
		leaveRepo:    leaveRepo,
		auditService: auditService,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List returns the leave requests visible to the actor
func (s *LeaveRequestService) List(ctx context.Context, filter *repository.LeaveRequestFilter) ([]domain.LeaveRequestDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	requests, err := s.leaveRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	dtos := make([]domain.LeaveRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = mapper.ToLeaveRequestDTO(&requests[i])
	}
	return dtos, nil
}

// GetByID returns a visible leave request
func (s *LeaveRequestService) GetByID(ctx context.Context, id uint) (*domain.LeaveRequestDTO, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToLeaveRequestDTO(request)
	return &dto, nil
}

// Create files a pending leave request for the actor
func (s *LeaveRequestService) Create(ctx context.Context, req *domain.CreateLeaveRequestRequest) (*domain.LeaveRequestDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, ErrInvalidDates
	}
	request := &domain.LeaveRequest{
		UserID:    actor.ID,
		LeaveType: req.LeaveType,
		StartDate: req.StartDate.UTC(),
		EndDate:   req.EndDate.UTC(),
		Reason:    req.Reason,
		Status:    domain.LeaveStatusPending,
	}
	if err := s.leaveRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create leave request: %w", err)
	}
	dto := mapper.ToLeaveRequestDTO(request)
	s.auditService.LogCreate(ctx, entityLeaveRequest, request.ID, dto)
	return &dto, nil
}

// Approve approves a pending request
func (s *LeaveRequestService) Approve(ctx context.Context, id uint, req *domain.ReviewLeaveRequest) (*domain.LeaveRequestDTO, error) {
	return s.review(ctx, id, domain.LeaveStatusApproved, req.Note)
}

// Reject rejects a pending request
func (s *LeaveRequestService) Reject(ctx context.Context, id uint, req *domain.ReviewLeaveRequest) (*domain.LeaveRequestDTO, error) {
	return s.review(ctx, id, domain.LeaveStatusRejected, req.Note)
}

// Cancel withdraws a pending request. Only its owner may do so.
func (s *LeaveRequestService) Cancel(ctx context.Context, id uint) (*domain.LeaveRequestDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.UserID != actor.ID {
		return nil, ErrLeaveCancelPermission
	}
	return s.transition(ctx, request, domain.LeaveStatusCancelled)
}

// review applies a decision. Admins may review any visible request; managers
// may review visible requests of others (their team), never their own.
func (s *LeaveRequestService) review(ctx context.Context, id uint, status domain.LeaveStatus, note string) (*domain.LeaveRequestDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
	case actor.Role == domain.RoleManager && request.UserID != actor.ID:
	default:
		return nil, ErrLeaveReviewPermission
	}

	reviewer := actor.ID
	reviewedAt := s.now()
	request.ReviewedByUserID = &reviewer
	request.ReviewedAt = &reviewedAt
	request.ReviewNote = note
	return s.transition(ctx, request, status)
}

func (s *LeaveRequestService) transition(ctx context.Context, request *domain.LeaveRequest, status domain.LeaveStatus) (*domain.LeaveRequestDTO, error) {
	if request.Status != domain.LeaveStatusPending {
		return nil, ruleViolation(ErrLeaveNotPending, fmt.Sprintf("leave request is already %s", request.Status))
	}
	from := request.Status
	request.Status = status
	if err := s.leaveRepo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update leave request: %w", err)
	}
	s.auditService.LogStatusChange(ctx, entityLeaveRequest, request.ID, string(from), string(status))
	dto := mapper.ToLeaveRequestDTO(request)
	return &dto, nil
}

func (s *LeaveRequestService) load(ctx context.Context, id uint) (*domain.LeaveRequest, error) {
	request, err := s.leaveRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrLeaveRequestNotFound)
	}
	return request, nil
}
