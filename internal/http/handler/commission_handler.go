package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type CommissionHandler struct {
	commissionService *service.CommissionService
	logger            *zap.Logger
}

func NewCommissionHandler(commissionService *service.CommissionService, logger *zap.Logger) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
		logger:            logger,
	}
}

// @Summary List commissions
// @Description Returns visible commissions with pending, approved and paid totals.
// @Tags Commissions
// @Produce json
// @Param userId query int false "Filter by user"
// @Param status query string false "Filter by status" Enums(pending, approved, paid)
// @Param sourceType query string false "Filter by source" Enums(sale, target_bonus, manual)
// @Param year query int false "Filter by year"
// @Param month query int false "Filter by month"
// @Success 200 {object} domain.CommissionListDTO
// @Security BearerAuth
// @Router /commissions [get]
func (h *CommissionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.CommissionFilter{
		UserID: q.optUint("userId"),
		Year:   q.optInt("year"),
		Month:  q.optInt("month"),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	if s := q.optString("status"); s != nil {
		status := domain.CommissionStatus(*s)
		filter.Status = &status
	}
	if s := q.optString("sourceType"); s != nil {
		source := domain.CommissionSourceType(*s)
		filter.SourceType = &source
	}

	result, err := h.commissionService.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, "failed to list commissions", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create commission
// @Description Admin only.
// @Tags Commissions
// @Accept json
// @Produce json
// @Param request body domain.CreateCommissionRequest true "Commission data"
// @Success 201 {object} domain.CommissionDTO
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /commissions [post]
func (h *CommissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCommissionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	commission, err := h.commissionService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create commission", err)
		return
	}
	respondJSON(w, http.StatusCreated, commission)
}

// @Summary Change commission status
// @Description Admin only.
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path int true "Commission ID"
// @Param request body domain.UpdateCommissionStatusRequest true "New status"
// @Success 200 {object} domain.CommissionDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /commissions/{id}/status [put]
func (h *CommissionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateCommissionStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	commission, err := h.commissionService.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update commission status", err)
		return
	}
	respondJSON(w, http.StatusOK, commission)
}
