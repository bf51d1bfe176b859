package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edutour/sales-crm/internal/calculator"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DashboardService aggregates counts and sums over the rows visible to the actor
type DashboardService struct {
	visitRepo       *repository.VisitRepository
	offerRepo       *repository.OfferRepository
	saleRepo        *repository.SaleRepository
	appointmentRepo *repository.AppointmentRepository
	targetRepo      *repository.SalesTargetRepository
	userRepo        *repository.UserRepository
	logger          *zap.Logger
	now             func() time.Time
}

func NewDashboardService(
	visitRepo *repository.VisitRepository,
	offerRepo *repository.OfferRepository,
	saleRepo *repository.SaleRepository,
	appointmentRepo *repository.AppointmentRepository,
	targetRepo *repository.SalesTargetRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		visitRepo:       visitRepo,
		offerRepo:       offerRepo,
		saleRepo:        saleRepo,
		appointmentRepo: appointmentRepo,
		targetRepo:      targetRepo,
		userRepo:        userRepo,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the headline numbers for dates. Visits, offers, sales and
// revenue respect the range; pending offers and scheduled appointments are
// current-state gauges and ignore it.
func (s *DashboardService) Summary(ctx context.Context, dates repository.DateRange) (*domain.DashboardSummaryDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}

	var summary domain.DashboardSummaryDTO
	var err error

	if summary.Visits, err = s.visitRepo.Count(ctx, &repository.VisitFilter{Dates: dates}); err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}
	if summary.Offers, err = s.offerRepo.Count(ctx, &repository.OfferFilter{Dates: dates}); err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}
	saleFilter := &repository.SaleFilter{Dates: dates}
	if summary.Sales, err = s.saleRepo.Count(ctx, saleFilter); err != nil {
		return nil, fmt.Errorf("failed to count sales: %w", err)
	}
	amounts, err := s.saleRepo.RevenueAmounts(ctx, saleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	summary.Revenue = calculator.Sum(amounts)

	sent := domain.OfferStatusSent
	if summary.PendingOffers, err = s.offerRepo.Count(ctx, &repository.OfferFilter{Status: &sent}); err != nil {
		return nil, fmt.Errorf("failed to count pending offers: %w", err)
	}
	planned := domain.AppointmentStatusPlanned
	now := s.now()
	summary.ScheduledAppointments, err = s.appointmentRepo.Count(ctx, &repository.AppointmentFilter{
		Status:     &planned,
		StartsFrom: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count scheduled appointments: %w", err)
	}

	return &summary, nil
}

// PerformanceSummary compares a user's visits, offers, deals and revenue in a
// month (or a whole year) against their target. userID defaults to the actor
// and must otherwise name a user visible to the actor.
func (s *DashboardService) PerformanceSummary(ctx context.Context, year int, month *int, userID *uint) (*domain.PerformanceSummaryDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if month != nil && (*month < 1 || *month > 12) {
		return nil, domain.NewValidation("month must be between 1 and 12")
	}

	subject := actor.ID
	if userID != nil && *userID != actor.ID {
		user, err := s.userRepo.GetVisibleByID(ctx, *userID)
		if err != nil {
			return nil, notFoundOr(err, ErrUserNotFound)
		}
		subject = user.ID
	}

	target, err := s.targetRepo.FindForPeriod(ctx, subject, year, month)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load sales target: %w", err)
		}
		target = nil
	}

	from, to := calculator.PeriodWindow(year, month)
	dates := repository.DateRange{From: &from, To: &to}

	var actual calculator.Actuals
	if actual.Visits, err = s.visitRepo.Count(ctx, &repository.VisitFilter{UserID: &subject, Dates: dates}); err != nil {
		return nil, fmt.Errorf("failed to count visits: %w", err)
	}
	if actual.Offers, err = s.offerRepo.Count(ctx, &repository.OfferFilter{UserID: &subject, Dates: dates}); err != nil {
		return nil, fmt.Errorf("failed to count offers: %w", err)
	}
	saleFilter := &repository.SaleFilter{UserID: &subject, Dates: dates}
	if actual.Deals, err = s.saleRepo.Count(ctx, saleFilter); err != nil {
		return nil, fmt.Errorf("failed to count deals: %w", err)
	}
	amounts, err := s.saleRepo.RevenueAmounts(ctx, saleFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	actual.Revenue = calculator.Sum(amounts)

	rates := calculator.PerformanceRates(target, actual)
	summary := &domain.PerformanceSummaryDTO{
		UserID: subject,
		Year:   year,
		Month:  month,
		Actual: domain.PerformanceActualDTO{
			Visits:  actual.Visits,
			Offers:  actual.Offers,
			Deals:   actual.Deals,
			Revenue: actual.Revenue,
		},
		Performance: domain.PerformanceRatesDTO{
			VisitRate:   rates.VisitRate,
			OfferRate:   rates.OfferRate,
			DealRate:    rates.DealRate,
			RevenueRate: rates.RevenueRate,
		},
	}
	if target != nil {
		summary.Targets = &domain.PerformanceTargetsDTO{
			VisitTarget:   target.VisitTarget,
			OfferTarget:   target.OfferTarget,
			DealTarget:    target.DealTarget,
			RevenueTarget: target.RevenueTarget,
		}
	}
	return summary, nil
}
