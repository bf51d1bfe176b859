package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type AnnouncementHandler struct {
	announcementService *service.AnnouncementService
	logger              *zap.Logger
}

func NewAnnouncementHandler(announcementService *service.AnnouncementService, logger *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcementService: announcementService,
		logger:              logger,
	}
}

// @Summary List announcements
// @Description Returns unexpired announcements addressed to the caller by audience (everyone, role, team or user). Admins see all of them.
// @Tags Announcements
// @Produce json
// @Success 200 {array} domain.AnnouncementDTO
// @Security BearerAuth
// @Router /announcements [get]
func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.announcementService.List(r.Context())
	if err != nil {
		respondError(w, h.logger, "failed to list announcements", err)
		return
	}
	respondJSON(w, http.StatusOK, announcements)
}

// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {object} domain.AnnouncementDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	announcement, err := h.announcementService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get announcement", err)
		return
	}
	respondJSON(w, http.StatusOK, announcement)
}

// @Summary Create announcement
// @Description Admin only. audienceId is a role name, team id or user id depending on audienceType.
// @Tags Announcements
// @Accept json
// @Produce json
// @Param request body domain.CreateAnnouncementRequest true "Announcement data"
// @Success 201 {object} domain.AnnouncementDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAnnouncementRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	announcement, err := h.announcementService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create announcement", err)
		return
	}
	respondJSON(w, http.StatusCreated, announcement)
}

// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path int true "Announcement ID"
// @Param request body domain.UpdateAnnouncementRequest true "Announcement data"
// @Success 200 {object} domain.AnnouncementDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateAnnouncementRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	announcement, err := h.announcementService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update announcement", err)
		return
	}
	respondJSON(w, http.StatusOK, announcement)
}

// @Summary Delete announcement
// @Tags Announcements
// @Param id path int true "Announcement ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.announcementService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete announcement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
