package handler

import (
	"fmt"
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type AppointmentHandler struct {
	appointmentService *service.AppointmentService
	logger             *zap.Logger
}

func NewAppointmentHandler(appointmentService *service.AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentService: appointmentService,
		logger:             logger,
	}
}

// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param userId query int false "Filter by owner"
// @Param status query string false "Filter by status" Enums(planned, completed, cancelled)
// @Param type query string false "Filter by type" Enums(visit, meeting, call, sale_followup, other)
// @Param from query string false "Start at or after"
// @Param to query string false "Start before"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Router /appointments [get]
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.AppointmentFilter{
		UserID: q.optUint("userId"),
		Dates:  q.dates(),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	if s := q.optString("status"); s != nil {
		status := domain.AppointmentStatus(*s)
		filter.Status = &status
	}
	if t := q.optString("type"); t != nil {
		typ := domain.AppointmentType(*t)
		filter.Type = &typ
	}

	result, err := h.appointmentService.List(r.Context(), filter, parsePage(r))
	if err != nil {
		respondError(w, h.logger, "failed to list appointments", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Get appointment
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} domain.AppointmentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	appointment, err := h.appointmentService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get appointment", err)
		return
	}
	respondJSON(w, http.StatusOK, appointment)
}

// @Summary Create appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param request body domain.CreateAppointmentRequest true "Appointment data"
// @Success 201 {object} domain.AppointmentDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /appointments [post]
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAppointmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	appointment, err := h.appointmentService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create appointment", err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/appointments/%d", appointment.ID))
	respondJSON(w, http.StatusCreated, appointment)
}

// @Summary Update appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param request body domain.UpdateAppointmentRequest true "Appointment data"
// @Success 200 {object} domain.AppointmentDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateAppointmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	appointment, err := h.appointmentService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update appointment", err)
		return
	}
	respondJSON(w, http.StatusOK, appointment)
}

// @Summary Complete appointment
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} domain.AppointmentDTO
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Appointment is not planned"
// @Security BearerAuth
// @Router /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	appointment, err := h.appointmentService.Complete(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to complete appointment", err)
		return
	}
	respondJSON(w, http.StatusOK, appointment)
}

// @Summary Cancel appointment
// @Tags Appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} domain.AppointmentDTO
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Appointment is not planned"
// @Security BearerAuth
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	appointment, err := h.appointmentService.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to cancel appointment", err)
		return
	}
	respondJSON(w, http.StatusOK, appointment)
}

// @Summary Delete appointment
// @Tags Appointments
// @Param id path int true "Appointment ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.appointmentService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete appointment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
