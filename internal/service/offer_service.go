package service

import (
	"context"
	"fmt"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/calculator"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mailer"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const entityOffer = "offer"

// EditLock is the result of evaluating the offer edit lock for one actor
type EditLock struct {
	Locked bool
	Reason string
}

// OfferEditLock decides whether actor may mutate offer at time now.
//
//   - sales (and unknown roles): locked unless owner, not expired and not terminal
//   - manager: locked when expired or terminal
//   - admin roles: never locked
func OfferEditLock(actor *auth.Actor, offer *domain.Offer, now time.Time) EditLock {
	if actor == nil {
		return EditLock{Locked: true, Reason: "no authenticated user"}
	}
	if actor.IsAdmin() {
		return EditLock{}
	}
	if actor.Role != domain.RoleManager && offer.UserID != actor.ID {
		return EditLock{Locked: true, Reason: "only the owner can edit this offer"}
	}
	if offer.IsExpired(now) {
		return EditLock{Locked: true, Reason: "offer validity has expired"}
	}
	if offer.Status.IsTerminal() {
		return EditLock{Locked: true, Reason: fmt.Sprintf("offer is %s", offer.Status)}
	}
	return EditLock{}
}

// OfferService handles offers and their lifecycle
type OfferService struct {
	offerRepo       *repository.OfferRepository
	saleRepo        *repository.SaleRepository
	appointmentRepo *repository.AppointmentRepository
	schoolRepo      *repository.SchoolRepository
	visitRepo       *repository.VisitRepository
	templateRepo    *repository.EmailTemplateRepository
	mailer          mailer.Mailer
	auditService    *AuditLogService
	logger          *zap.Logger
	db              *gorm.DB
	now             func() time.Time
}

func NewOfferService(
	offerRepo *repository.OfferRepository,
	saleRepo *repository.SaleRepository,
	appointmentRepo *repository.AppointmentRepository,
	schoolRepo *repository.SchoolRepository,
	visitRepo *repository.VisitRepository,
	templateRepo *repository.EmailTemplateRepository,
	mail mailer.Mailer,
	auditService *AuditLogService,
	logger *zap.Logger,
	db *gorm.DB,
) *OfferService {
	return &OfferService{
		offerRepo:       offerRepo,
		saleRepo:        saleRepo,
		appointmentRepo: appointmentRepo,
		schoolRepo:      schoolRepo,
		visitRepo:       visitRepo,
		templateRepo:    templateRepo,
		mailer:          mail,
		auditService:    auditService,
		logger:          logger,
		db:              db,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// List returns a page of offers visible to the actor
func (s *OfferService) List(ctx context.Context, filter *repository.OfferFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	offers, total, err := s.offerRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	dtos := make([]domain.OfferDTO, len(offers))
	for i := range offers {
		dtos[i] = mapper.ToOfferDTO(&offers[i])
	}
	return paginated(dtos, total, page), nil
}

// GetByID returns a visible offer
func (s *OfferService) GetByID(ctx context.Context, id uint) (*domain.OfferDTO, error) {
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOfferDTO(offer)
	return &dto, nil
}

// GetEditLock tells the caller whether they may currently edit the offer
func (s *OfferService) GetEditLock(ctx context.Context, id uint) (*domain.OfferEditLockDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	lock := OfferEditLock(actor, offer, s.now())
	return &domain.OfferEditLockDTO{Locked: lock.Locked, Reason: lock.Reason}, nil
}

// Create creates a draft offer owned by the actor
func (s *OfferService) Create(ctx context.Context, req *domain.CreateOfferRequest) (*domain.OfferDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		UserID: actor.ID,
		Status: domain.OfferStatusDraft,
	}
	applyOfferFields(offer, req)

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	offer, err = s.load(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOfferDTO(offer)
	s.auditService.LogCreate(ctx, entityOffer, offer.ID, dto)
	return &dto, nil
}

// Update replaces the editable fields of an offer, subject to the edit lock
func (s *OfferService) Update(ctx context.Context, id uint, req *domain.UpdateOfferRequest) (*domain.OfferDTO, error) {
	offer, err := s.loadUnlocked(ctx, id)
	if err != nil {
		return nil, err
	}
	createReq := domain.CreateOfferRequest(*req)
	if err := s.checkReferences(ctx, &createReq); err != nil {
		return nil, err
	}

	before := mapper.ToOfferDTO(offer)
	applyOfferFields(offer, &createReq)
	if err := s.offerRepo.Update(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	offer, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOfferDTO(offer)
	s.auditService.LogUpdate(ctx, entityOffer, id, before, dto)
	return &dto, nil
}

// Delete removes an offer, subject to the edit lock
func (s *OfferService) Delete(ctx context.Context, id uint) error {
	offer, err := s.loadUnlocked(ctx, id)
	if err != nil {
		return err
	}
	if err := s.offerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	s.auditService.LogDelete(ctx, entityOffer, id, mapper.ToOfferDTO(offer))
	return nil
}

func (s *OfferService) load(ctx context.Context, id uint) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrOfferNotFound)
	}
	return offer, nil
}

// loadUnlocked loads a visible offer and fails with ErrOfferLocked when the
// actor may not mutate it
func (s *OfferService) loadUnlocked(ctx context.Context, id uint) (*domain.Offer, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	offer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if lock := OfferEditLock(actor, offer, s.now()); lock.Locked {
		return nil, ruleViolation(ErrOfferLocked, "offer is locked for editing: "+lock.Reason)
	}
	return offer, nil
}

func (s *OfferService) checkReferences(ctx context.Context, req *domain.CreateOfferRequest) error {
	if _, err := s.schoolRepo.GetByID(ctx, req.SchoolID); err != nil {
		return notFoundOr(err, ErrSchoolNotFound)
	}
	if req.VisitID != nil {
		if _, err := s.visitRepo.GetByID(ctx, *req.VisitID); err != nil {
			return notFoundOr(err, ErrVisitNotFound)
		}
	}
	if req.TourStartDate != nil && req.TourEndDate != nil && req.TourEndDate.Before(*req.TourStartDate) {
		return ErrInvalidDates
	}
	return nil
}

func applyOfferFields(offer *domain.Offer, req *domain.CreateOfferRequest) {
	offer.SchoolID = req.SchoolID
	offer.VisitID = req.VisitID
	offer.Title = req.Title
	offer.Destination = req.Destination
	offer.TourStartDate = utcPtr(req.TourStartDate)
	offer.TourEndDate = utcPtr(req.TourEndDate)
	offer.StudentCount = req.StudentCount
	offer.PricePerStudent = req.PricePerStudent
	offer.TotalPrice = calculator.OfferTotal(req.StudentCount, req.PricePerStudent, req.TotalPrice)
	offer.Currency = currencyOrDefault(req.Currency)
	offer.ValidUntil = utcPtr(req.ValidUntil)
	offer.Notes = req.Notes
	// relations are reloaded after the write
	offer.School = nil
	offer.User = nil
}
