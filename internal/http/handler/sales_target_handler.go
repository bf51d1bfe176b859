package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type SalesTargetHandler struct {
	targetService *service.SalesTargetService
	logger        *zap.Logger
}

func NewSalesTargetHandler(targetService *service.SalesTargetService, logger *zap.Logger) *SalesTargetHandler {
	return &SalesTargetHandler{
		targetService: targetService,
		logger:        logger,
	}
}

// @Summary List sales targets
// @Tags Targets
// @Produce json
// @Param userId query int false "Filter by user"
// @Param periodType query string false "Filter by period type" Enums(month, year)
// @Param year query int false "Filter by year"
// @Param month query int false "Filter by month"
// @Success 200 {array} domain.SalesTargetDTO
// @Security BearerAuth
// @Router /targets [get]
func (h *SalesTargetHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.SalesTargetFilter{
		UserID: q.optUint("userId"),
		Year:   q.optInt("year"),
		Month:  q.optInt("month"),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	if p := q.optString("periodType"); p != nil {
		period := domain.PeriodType(*p)
		filter.PeriodType = &period
	}

	targets, err := h.targetService.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, "failed to list sales targets", err)
		return
	}
	respondJSON(w, http.StatusOK, targets)
}

// @Summary Get sales target
// @Tags Targets
// @Produce json
// @Param id path int true "Target ID"
// @Success 200 {object} domain.SalesTargetDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id} [get]
func (h *SalesTargetHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	target, err := h.targetService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get sales target", err)
		return
	}
	respondJSON(w, http.StatusOK, target)
}

// @Summary Set sales target
// @Description Creates or replaces the target for a user and period. Admins may set any target, managers only for users they can see.
// @Tags Targets
// @Accept json
// @Produce json
// @Param request body domain.UpsertSalesTargetRequest true "Target data"
// @Success 200 {object} domain.SalesTargetDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError "User not found"
// @Security BearerAuth
// @Router /targets [put]
func (h *SalesTargetHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertSalesTargetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	target, err := h.targetService.Upsert(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to set sales target", err)
		return
	}
	respondJSON(w, http.StatusOK, target)
}

// @Summary Delete sales target
// @Description Admin only.
// @Tags Targets
// @Param id path int true "Target ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /targets/{id} [delete]
func (h *SalesTargetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.targetService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete sales target", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
