package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// ExpenseService handles expenses booked against sales. Reads follow the
// visibility of the parent sale; writes also need the expense capability.
type ExpenseService struct {
	expenseRepo  *repository.ExpenseRepository
	saleRepo     *repository.SaleRepository
	auditService *AuditLogService
	logger       *zap.Logger
}

func NewExpenseService(
	expenseRepo *repository.ExpenseRepository,
	saleRepo *repository.SaleRepository,
	auditService *AuditLogService,
	logger *zap.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		saleRepo:     saleRepo,
		auditService: auditService,
		logger:       logger,
	}
}

// ListBySale returns the expenses of a visible sale
func (s *ExpenseService) ListBySale(ctx context.Context, saleID uint) ([]domain.ExpenseDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	if err := s.checkSale(ctx, saleID); err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	dtos := make([]domain.ExpenseDTO, len(expenses))
	for i := range expenses {
		dtos[i] = mapper.ToExpenseDTO(&expenses[i])
	}
	return dtos, nil
}

// Create books an expense against a visible sale
func (s *ExpenseService) Create(ctx context.Context, saleID uint, req *domain.CreateExpenseRequest) (*domain.ExpenseDTO, error) {
	actor, err := s.requireCapability(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.checkSale(ctx, saleID); err != nil {
		return nil, err
	}

	expense := &domain.Expense{
		SaleID:          saleID,
		CreatedByUserID: actor.ID,
	}
	applyExpenseFields(expense, req)
	if err := s.expenseRepo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	dto := mapper.ToExpenseDTO(expense)
	s.auditService.LogCreate(ctx, entityExpense, expense.ID, dto)
	return &dto, nil
}

// Update changes an expense of a visible sale
func (s *ExpenseService) Update(ctx context.Context, saleID, id uint, req *domain.UpdateExpenseRequest) (*domain.ExpenseDTO, error) {
	if _, err := s.requireCapability(ctx); err != nil {
		return nil, err
	}
	expense, err := s.load(ctx, saleID, id)
	if err != nil {
		return nil, err
	}
	before := mapper.ToExpenseDTO(expense)

	createReq := domain.CreateExpenseRequest(*req)
	applyExpenseFields(expense, &createReq)
	if err := s.expenseRepo.Update(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	dto := mapper.ToExpenseDTO(expense)
	s.auditService.LogUpdate(ctx, entityExpense, id, before, dto)
	return &dto, nil
}

// Delete removes an expense of a visible sale
func (s *ExpenseService) Delete(ctx context.Context, saleID, id uint) error {
	if _, err := s.requireCapability(ctx); err != nil {
		return err
	}
	expense, err := s.load(ctx, saleID, id)
	if err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	s.auditService.LogDelete(ctx, entityExpense, id, mapper.ToExpenseDTO(expense))
	return nil
}

// requireCapability checks the expense capability before any lookup, so an
// actor without it gets a permission error whatever the ids
func (s *ExpenseService) requireCapability(ctx context.Context) (*auth.Actor, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.MayManageExpenses() {
		return nil, ErrExpensePermission
	}
	return actor, nil
}

func (s *ExpenseService) checkSale(ctx context.Context, saleID uint) error {
	if _, err := s.saleRepo.GetByID(ctx, saleID); err != nil {
		return notFoundOr(err, ErrSaleNotFound)
	}
	return nil
}

func (s *ExpenseService) load(ctx context.Context, saleID, id uint) (*domain.Expense, error) {
	if err := s.checkSale(ctx, saleID); err != nil {
		return nil, err
	}
	expense, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrExpenseNotFound)
	}
	if expense.SaleID != saleID {
		return nil, ErrExpenseNotFound
	}
	return expense, nil
}

func applyExpenseFields(expense *domain.Expense, req *domain.CreateExpenseRequest) {
	expense.Category = req.Category
	expense.Description = req.Description
	expense.Amount = req.Amount
	expense.Currency = currencyOrDefault(req.Currency)
	expense.PaymentStatus = req.PaymentStatus
	if expense.PaymentStatus == "" {
		expense.PaymentStatus = domain.PaymentStatusPending
	}
	expense.ExpenseDate = utcPtr(req.ExpenseDate)
}
