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

// SaleService handles closed sales and their profitability
type SaleService struct {
	saleRepo     *repository.SaleRepository
	expenseRepo  *repository.ExpenseRepository
	schoolRepo   *repository.SchoolRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

func NewSaleService(
	saleRepo *repository.SaleRepository,
	expenseRepo *repository.ExpenseRepository,
	schoolRepo *repository.SchoolRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		saleRepo:     saleRepo,
		expenseRepo:  expenseRepo,
		schoolRepo:   schoolRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// List returns a page of sales visible to the actor
func (s *SaleService) List(ctx context.Context, filter *repository.SaleFilter, page repository.Page) (*domain.PaginatedResponse, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	sales, total, err := s.saleRepo.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	dtos := make([]domain.SaleDTO, len(sales))
	for i := range sales {
		dtos[i] = mapper.ToSaleDTO(&sales[i])
	}
	return paginated(dtos, total, page), nil
}

// GetByID returns a visible sale
func (s *SaleService) GetByID(ctx context.Context, id uint) (*domain.SaleDTO, error) {
	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToSaleDTO(sale)
	return &dto, nil
}

// Create records a sale closed without an offer. The actor is the closer.
func (s *SaleService) Create(ctx context.Context, req *domain.CreateSaleRequest) (*domain.SaleDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.schoolRepo.GetByID(ctx, req.SchoolID); err != nil {
		return nil, notFoundOr(err, ErrSchoolNotFound)
	}

	sale := &domain.Sale{
		SchoolID:           req.SchoolID,
		ClosedByUserID:     actor.ID,
		SaleDate:           req.SaleDate.UTC(),
		FinalRevenueAmount: req.FinalRevenueAmount,
		Currency:           currencyOrDefault(req.Currency),
		CreatedFromOffer:   false,
		TourDate:           utcPtr(req.TourDate),
		StudentCount:       req.StudentCount,
		Status:             domain.SaleStatusActive,
		Notes:              req.Notes,
	}
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	sale, err = s.load(ctx, sale.ID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToSaleDTO(sale)
	s.auditService.LogCreate(ctx, entitySale, sale.ID, dto)
	return &dto, nil
}

// Update changes a visible sale
func (s *SaleService) Update(ctx context.Context, id uint, req *domain.UpdateSaleRequest) (*domain.SaleDTO, error) {
	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := mapper.ToSaleDTO(sale)

	sale.SaleDate = req.SaleDate.UTC()
	sale.FinalRevenueAmount = req.FinalRevenueAmount
	sale.Currency = currencyOrDefault(req.Currency)
	sale.TourDate = utcPtr(req.TourDate)
	sale.StudentCount = req.StudentCount
	sale.Status = req.Status
	sale.Notes = req.Notes

	if err := s.saleRepo.Update(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}

	dto := mapper.ToSaleDTO(sale)
	s.auditService.LogUpdate(ctx, entitySale, id, before, dto)
	return &dto, nil
}

// GetProfitability returns a visible sale with all of its expenses and the
// derived totals. Cancelled expenses are listed but not counted.
func (s *SaleService) GetProfitability(ctx context.Context, id uint) (*domain.SaleProfitabilityDTO, error) {
	sale, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.ListBySale(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	p := calculator.SaleProfitability(sale.FinalRevenueAmount, expenses)
	dto := &domain.SaleProfitabilityDTO{
		SaleDTO:       mapper.ToSaleDTO(sale),
		Expenses:      make([]domain.ExpenseDTO, len(expenses)),
		TotalExpenses: p.TotalExpenses,
		Profit:        p.Profit,
		ProfitMargin:  p.ProfitMargin,
	}
	for i := range expenses {
		dto.Expenses[i] = mapper.ToExpenseDTO(&expenses[i])
	}
	return dto, nil
}

func (s *SaleService) load(ctx context.Context, id uint) (*domain.Sale, error) {
	sale, err := s.saleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrSaleNotFound)
	}
	return sale, nil
}
