package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// AppointmentService handles calendar entries
type AppointmentService struct {
	appointmentRepo *repository.AppointmentRepository
	schoolRepo      *repository.SchoolRepository
	saleRepo        *repository.SaleRepository
	auditService    *AuditLogService
	logger          *zap.Logger
}

func NewAppointmentService(
	appointmentRepo *repository.AppointmentRepository,
	schoolRepo *repository.SchoolRepository,
	saleRepo *repository.SaleRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointmentRepo: appointmentRepo,
		schoolRepo:      schoolRepo,
		saleRepo:        saleRepo,
		auditService:    auditService,
		logger:          logger,
	}
}

// List returns a page of appointments visible to the actor, soonest first
func (s *AppointmentService) List(ctx context.Context, filter *repository.AppointmentFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	appointments, total, err := s.appointmentRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	dtos := make([]domain.AppointmentDTO, len(appointments))
	for i := range appointments {
		dtos[i] = mapper.ToAppointmentDTO(&appointments[i])
	}
	return paginated(dtos, total, page), nil
}

// GetByID returns a visible appointment
func (s *AppointmentService) GetByID(ctx context.Context, id uint) (*domain.AppointmentDTO, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToAppointmentDTO(appointment)
	return &dto, nil
}

// Create schedules an appointment for the actor
func (s *AppointmentService) Create(ctx context.Context, req *domain.CreateAppointmentRequest) (*domain.AppointmentDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.SchoolID, req.SaleID); err != nil {
		return nil, err
	}
	if req.EndDatetime != nil && req.EndDatetime.Before(req.StartDatetime) {
		return nil, ErrInvalidDates
	}

	appointment := &domain.Appointment{
		UserID:        actor.ID,
		SchoolID:      req.SchoolID,
		SaleID:        req.SaleID,
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		StartDatetime: req.StartDatetime.UTC(),
		EndDatetime:   utcPtr(req.EndDatetime),
		Status:        domain.AppointmentStatusPlanned,
	}
	if err := s.appointmentRepo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	appointment, err = s.load(ctx, appointment.ID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToAppointmentDTO(appointment)
	s.auditService.LogCreate(ctx, entityAppointment, appointment.ID, dto)
	return &dto, nil
}

// Update changes a visible appointment
func (s *AppointmentService) Update(ctx context.Context, id uint, req *domain.UpdateAppointmentRequest) (*domain.AppointmentDTO, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req.SchoolID, nil); err != nil {
		return nil, err
	}
	if req.EndDatetime != nil && req.EndDatetime.Before(req.StartDatetime) {
		return nil, ErrInvalidDates
	}
	before := mapper.ToAppointmentDTO(appointment)

	appointment.SchoolID = req.SchoolID
	appointment.Title = req.Title
	appointment.Description = req.Description
	appointment.Type = req.Type
	appointment.StartDatetime = req.StartDatetime.UTC()
	appointment.EndDatetime = utcPtr(req.EndDatetime)
	appointment.School = nil
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	appointment, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToAppointmentDTO(appointment)
	s.auditService.LogUpdate(ctx, entityAppointment, id, before, dto)
	return &dto, nil
}

// Complete marks a visible appointment completed
func (s *AppointmentService) Complete(ctx context.Context, id uint) (*domain.AppointmentDTO, error) {
	return s.setStatus(ctx, id, domain.AppointmentStatusCompleted)
}

// Cancel marks a visible appointment cancelled
func (s *AppointmentService) Cancel(ctx context.Context, id uint) (*domain.AppointmentDTO, error) {
	return s.setStatus(ctx, id, domain.AppointmentStatusCancelled)
}

// Delete removes a visible appointment
func (s *AppointmentService) Delete(ctx context.Context, id uint) error {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.appointmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	s.auditService.LogDelete(ctx, entityAppointment, id, mapper.ToAppointmentDTO(appointment))
	return nil
}

func (s *AppointmentService) setStatus(ctx context.Context, id uint, status domain.AppointmentStatus) (*domain.AppointmentDTO, error) {
	appointment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := appointment.Status
	if from == status {
		dto := mapper.ToAppointmentDTO(appointment)
		return &dto, nil
	}
	if from != domain.AppointmentStatusPlanned {
		return nil, domain.NewBusinessRuleViolation(fmt.Sprintf("appointment is already %s", from))
	}

	appointment.Status = status
	if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	s.auditService.LogStatusChange(ctx, entityAppointment, id, string(from), string(status))

	dto := mapper.ToAppointmentDTO(appointment)
	return &dto, nil
}

func (s *AppointmentService) checkReferences(ctx context.Context, schoolID, saleID *uint) error {
	if schoolID != nil {
		if _, err := s.schoolRepo.GetByID(ctx, *schoolID); err != nil {
			return notFoundOr(err, ErrSchoolNotFound)
		}
	}
	if saleID != nil {
		if _, err := s.saleRepo.GetByID(ctx, *saleID); err != nil {
			return notFoundOr(err, ErrSaleNotFound)
		}
	}
	return nil
}

func (s *AppointmentService) load(ctx context.Context, id uint) (*domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrAppointmentNotFound)
	}
	return appointment, nil
}
