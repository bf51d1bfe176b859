package handler

import (
	"fmt"
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

// SaleHandler serves sales and their expenses
type SaleHandler struct {
	saleService    *service.SaleService
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewSaleHandler(saleService *service.SaleService, expenseService *service.ExpenseService, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{
		saleService:    saleService,
		expenseService: expenseService,
		logger:         logger,
	}
}

// @Summary List sales
// @Tags Sales
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param schoolId query int false "Filter by school"
// @Param userId query int false "Filter by closing user"
// @Param status query string false "Filter by status" Enums(active, completed, cancelled)
// @Param from query string false "Sale date at or after"
// @Param to query string false "Sale date before"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /sales [get]
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.SaleFilter{
		SchoolID: q.optUint("schoolId"),
		UserID:   q.optUint("userId"),
		Dates:    q.dates(),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	if s := q.optString("status"); s != nil {
		status := domain.SaleStatus(*s)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}

	result, err := h.saleService.List(r.Context(), filter, parsePage(r))
	if err != nil {
		respondError(w, h.logger, "failed to list sales", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Get sale
// @Tags Sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {object} domain.SaleDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id} [get]
func (h *SaleHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get sale", err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

// @Summary Record manual sale
// @Description Records a sale that did not come from an accepted offer. The caller is the closer.
// @Tags Sales
// @Accept json
// @Produce json
// @Param request body domain.CreateSaleRequest true "Sale data"
// @Success 201 {object} domain.SaleDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /sales [post]
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sale, err := h.saleService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create sale", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/sales/%d", sale.ID))
	respondJSON(w, http.StatusCreated, sale)
}

// @Summary Update sale
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param request body domain.UpdateSaleRequest true "Sale data"
// @Success 200 {object} domain.SaleDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id} [put]
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateSaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	sale, err := h.saleService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update sale", err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

// @Summary Sale profitability
// @Description Revenue minus non-cancelled expenses, with the margin as a percentage of revenue.
// @Tags Sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {object} domain.SaleProfitabilityDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id}/profitability [get]
func (h *SaleHandler) GetProfitability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.saleService.GetProfitability(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to compute sale profitability", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary List sale expenses
// @Tags Sales
// @Produce json
// @Param id path int true "Sale ID"
// @Success 200 {array} domain.ExpenseDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id}/expenses [get]
func (h *SaleHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	expenses, err := h.expenseService.ListBySale(r.Context(), saleID)
	if err != nil {
		respondError(w, h.logger, "failed to list expenses", err)
		return
	}
	respondJSON(w, http.StatusOK, expenses)
}

// @Summary Add sale expense
// @Description Requires an admin role or the expense capability.
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param request body domain.CreateExpenseRequest true "Expense data"
// @Success 201 {object} domain.ExpenseDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id}/expenses [post]
func (h *SaleHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.CreateExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expense, err := h.expenseService.Create(r.Context(), saleID, &req)
	if err != nil {
		respondError(w, h.logger, "failed to create expense", err)
		return
	}
	respondJSON(w, http.StatusCreated, expense)
}

// @Summary Update sale expense
// @Tags Sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param expenseId path int true "Expense ID"
// @Param request body domain.UpdateExpenseRequest true "Expense data"
// @Success 200 {object} domain.ExpenseDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id}/expenses/{expenseId} [put]
func (h *SaleHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	expenseID, ok := pathID(w, r, "expenseId")
	if !ok {
		return
	}
	var req domain.UpdateExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expense, err := h.expenseService.Update(r.Context(), saleID, expenseID, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update expense", err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

// @Summary Delete sale expense
// @Tags Sales
// @Param id path int true "Sale ID"
// @Param expenseId path int true "Expense ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /sales/{id}/expenses/{expenseId} [delete]
func (h *SaleHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	expenseID, ok := pathID(w, r, "expenseId")
	if !ok {
		return
	}

	if err := h.expenseService.Delete(r.Context(), saleID, expenseID); err != nil {
		respondError(w, h.logger, "failed to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
