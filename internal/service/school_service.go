package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// SchoolService handles schools. Schools are shared by everyone; only the
// pipeline counts attached to a school depend on the actor.
type SchoolService struct {
	schoolRepo   *repository.SchoolRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

func NewSchoolService(schoolRepo *repository.SchoolRepository, auditService *AuditLogService, logger *zap.Logger) *SchoolService {
	return &SchoolService{
		schoolRepo:   schoolRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns a page of schools
func (s *SchoolService) List(ctx context.Context, filter *repository.SchoolFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	schools, total, err := s.schoolRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	dtos := make([]domain.SchoolDTO, len(schools))
	for i := range schools {
		dtos[i] = mapper.ToSchoolDTO(&schools[i])
	}
	return paginated(dtos, total, page), nil
}

// GetWithStats returns a school with the visit, offer and sale counts the
// actor can see
func (s *SchoolService) GetWithStats(ctx context.Context, id uint) (*domain.SchoolWithStatsDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	school, err := s.schoolRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSchoolNotFound)
	}
	stats, err := s.schoolRepo.Stats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count school pipeline: %w", err)
	}
	return &domain.SchoolWithStatsDTO{
		SchoolDTO: mapper.ToSchoolDTO(school),
		Stats: domain.SchoolStatsDTO{
			VisitCount: stats.Visits,
			OfferCount: stats.Offers,
			SaleCount:  stats.Sales,
		},
	}, nil
}

// Create adds a school
func (s *SchoolService) Create(ctx context.Context, req *domain.CreateSchoolRequest) (*domain.SchoolDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	createdBy := actor.ID
	school := &domain.School{CreatedByUserID: &createdBy}
	applySchoolFields(school, req)
	if err := s.schoolRepo.Create(ctx, school); err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}
	dto := mapper.ToSchoolDTO(school)
	s.auditService.LogCreate(ctx, entitySchool, school.ID, dto)
	return &dto, nil
}

// Update changes a school
func (s *SchoolService) Update(ctx context.Context, id uint, req *domain.UpdateSchoolRequest) (*domain.SchoolDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	school, err := s.schoolRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSchoolNotFound)
	}
	before := mapper.ToSchoolDTO(school)

	createReq := domain.CreateSchoolRequest(*req)
	applySchoolFields(school, &createReq)
	if err := s.schoolRepo.Update(ctx, school); err != nil {
		return nil, fmt.Errorf("failed to update school: %w", err)
	}
	dto := mapper.ToSchoolDTO(school)
	s.auditService.LogUpdate(ctx, entitySchool, id, before, dto)
	return &dto, nil
}

// Delete removes a school. Admin roles only.
func (s *SchoolService) Delete(ctx context.Context, id uint) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrSchoolDeletePermission
	}
	school, err := s.schoolRepo.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, ErrSchoolNotFound)
	}
	if err := s.schoolRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete school: %w", err)
	}
	s.auditService.LogDelete(ctx, entitySchool, id, mapper.ToSchoolDTO(school))
	return nil
}

func applySchoolFields(school *domain.School, req *domain.CreateSchoolRequest) {
	school.Name = req.Name
	school.City = req.City
	school.District = req.District
	school.Region = req.Region
	school.Address = req.Address
	school.Phone = req.Phone
	school.Email = req.Email
	school.ContactName = req.ContactName
	school.ContactTitle = req.ContactTitle
	school.ContactPhone = req.ContactPhone
	school.ContactEmail = req.ContactEmail
	school.StudentCount = req.StudentCount
	school.Latitude = req.Latitude
	school.Longitude = req.Longitude
	school.Notes = req.Notes
}
