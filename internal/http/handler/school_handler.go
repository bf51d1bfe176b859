package handler

import (
	"fmt"
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

// SchoolHandler serves the shared school directory
type SchoolHandler struct {
	schoolService *service.SchoolService
	logger        *zap.Logger
}

func NewSchoolHandler(schoolService *service.SchoolService, logger *zap.Logger) *SchoolHandler {
	return &SchoolHandler{
		schoolService: schoolService,
		logger:        logger,
	}
}

// @Summary List schools
// @Tags Schools
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param search query string false "Search name, city or contact"
// @Param city query string false "Filter by city"
// @Param district query string false "Filter by district"
// @Param region query string false "Filter by region"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /schools [get]
func (h *SchoolHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &repository.SchoolFilter{
		Search:   q.Get("search"),
		City:     q.Get("city"),
		District: q.Get("district"),
		Region:   q.Get("region"),
	}

	result, err := h.schoolService.List(r.Context(), filter, parsePage(r))
	if err != nil {
		respondError(w, h.logger, "failed to list schools", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Get school
// @Description Returns the school with visit, offer and sale counts limited to what the caller can see.
// @Tags Schools
// @Produce json
// @Param id path int true "School ID"
// @Success 200 {object} domain.SchoolWithStatsDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /schools/{id} [get]
func (h *SchoolHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	school, err := h.schoolService.GetWithStats(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get school", err)
		return
	}
	respondJSON(w, http.StatusOK, school)
}

// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Param request body domain.CreateSchoolRequest true "School data"
// @Success 201 {object} domain.SchoolDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /schools [post]
func (h *SchoolHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateSchoolRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	school, err := h.schoolService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create school", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/schools/%d", school.ID))
	respondJSON(w, http.StatusCreated, school)
}

// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path int true "School ID"
// @Param request body domain.UpdateSchoolRequest true "School data"
// @Success 200 {object} domain.SchoolDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /schools/{id} [put]
func (h *SchoolHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateSchoolRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	school, err := h.schoolService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update school", err)
		return
	}
	respondJSON(w, http.StatusOK, school)
}

// @Summary Delete school
// @Description Admin only.
// @Tags Schools
// @Param id path int true "School ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /schools/{id} [delete]
func (h *SchoolHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.schoolService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete school", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
