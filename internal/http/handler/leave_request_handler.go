package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type LeaveRequestHandler struct {
	leaveService *service.LeaveRequestService
	logger       *zap.Logger
}

func NewLeaveRequestHandler(leaveService *service.LeaveRequestService, logger *zap.Logger) *LeaveRequestHandler {
	return &LeaveRequestHandler{
		leaveService: leaveService,
		logger:       logger,
	}
}

// @Summary List leave requests
// @Tags Leave
// @Produce json
// @Param userId query int false "Filter by requester"
// @Param status query string false "Filter by status" Enums(pending, approved, rejected, cancelled)
// @Param from query string false "Starting at or after"
// @Param to query string false "Starting before"
// @Success 200 {array} domain.LeaveRequestDTO
// @Security BearerAuth
// @Router /leave-requests [get]
func (h *LeaveRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.LeaveRequestFilter{
		UserID: q.optUint("userId"),
		Dates:  q.dates(),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	if s := q.optString("status"); s != nil {
		status := domain.LeaveStatus(*s)
		filter.Status = &status
	}

	requests, err := h.leaveService.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, "failed to list leave requests", err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// @Summary Get leave request
// @Tags Leave
// @Produce json
// @Param id path int true "Leave request ID"
// @Success 200 {object} domain.LeaveRequestDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leave-requests/{id} [get]
func (h *LeaveRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	request, err := h.leaveService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get leave request", err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// @Summary Request leave
// @Tags Leave
// @Accept json
// @Produce json
// @Param request body domain.CreateLeaveRequestRequest true "Leave data"
// @Success 201 {object} domain.LeaveRequestDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /leave-requests [post]
func (h *LeaveRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeaveRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.leaveService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create leave request", err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

// review decodes the optional review note and runs fn
func (h *LeaveRequestHandler) review(w http.ResponseWriter, r *http.Request, action string,
	fn func(id uint, req *domain.ReviewLeaveRequest) (*domain.LeaveRequestDTO, error)) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ReviewLeaveRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &req) {
		return
	}

	request, err := fn(id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to "+action+" leave request", err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}

// @Summary Approve leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path int true "Leave request ID"
// @Param request body domain.ReviewLeaveRequest false "Review note"
// @Success 200 {object} domain.LeaveRequestDTO
// @Failure 403 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Not pending"
// @Security BearerAuth
// @Router /leave-requests/{id}/approve [post]
func (h *LeaveRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approve", func(id uint, req *domain.ReviewLeaveRequest) (*domain.LeaveRequestDTO, error) {
		return h.leaveService.Approve(r.Context(), id, req)
	})
}

// @Summary Reject leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path int true "Leave request ID"
// @Param request body domain.ReviewLeaveRequest false "Review note"
// @Success 200 {object} domain.LeaveRequestDTO
// @Failure 403 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Not pending"
// @Security BearerAuth
// @Router /leave-requests/{id}/reject [post]
func (h *LeaveRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject", func(id uint, req *domain.ReviewLeaveRequest) (*domain.LeaveRequestDTO, error) {
		return h.leaveService.Reject(r.Context(), id, req)
	})
}

// @Summary Cancel leave request
// @Description Only the requester may cancel, and only while pending.
// @Tags Leave
// @Produce json
// @Param id path int true "Leave request ID"
// @Success 200 {object} domain.LeaveRequestDTO
// @Failure 403 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Not pending"
// @Security BearerAuth
// @Router /leave-requests/{id}/cancel [post]
func (h *LeaveRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	request, err := h.leaveService.Cancel(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to cancel leave request", err)
		return
	}
	respondJSON(w, http.StatusOK, request)
}
