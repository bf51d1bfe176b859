package handler

import (
	"fmt"
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type VisitHandler struct {
	visitService *service.VisitService
	logger       *zap.Logger
}

func NewVisitHandler(visitService *service.VisitService, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		visitService: visitService,
		logger:       logger,
	}
}

// @Summary List visits
// @Tags Visits
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param schoolId query int false "Filter by school"
// @Param userId query int false "Filter by visiting user"
// @Param from query string false "Visit date at or after"
// @Param to query string false "Visit date before"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /visits [get]
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.VisitFilter{
		SchoolID: q.optUint("schoolId"),
		UserID:   q.optUint("userId"),
		Dates:    q.dates(),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}

	result, err := h.visitService.List(r.Context(), filter, parsePage(r))
	if err != nil {
		respondError(w, h.logger, "failed to list visits", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Get visit
// @Tags Visits
// @Produce json
// @Param id path int true "Visit ID"
// @Success 200 {object} domain.VisitDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /visits/{id} [get]
func (h *VisitHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	visit, err := h.visitService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get visit", err)
		return
	}
	respondJSON(w, http.StatusOK, visit)
}

// @Summary Log visit
// @Tags Visits
// @Accept json
// @Produce json
// @Param request body domain.CreateVisitRequest true "Visit data"
// @Success 201 {object} domain.VisitDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "School not found"
// @Security BearerAuth
// @Router /visits [post]
func (h *VisitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVisitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	visit, err := h.visitService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create visit", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/visits/%d", visit.ID))
	respondJSON(w, http.StatusCreated, visit)
}

// @Summary Update visit
// @Tags Visits
// @Accept json
// @Produce json
// @Param id path int true "Visit ID"
// @Param request body domain.UpdateVisitRequest true "Visit data"
// @Success 200 {object} domain.VisitDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /visits/{id} [put]
func (h *VisitHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateVisitRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	visit, err := h.visitService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update visit", err)
		return
	}
	respondJSON(w, http.StatusOK, visit)
}

// @Summary Delete visit
// @Tags Visits
// @Param id path int true "Visit ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /visits/{id} [delete]
func (h *VisitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.visitService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete visit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
