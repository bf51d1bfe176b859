package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

// AttachmentHandler serves file references attached to schools, visits, offers and sales
type AttachmentHandler struct {
	attachmentService *service.AttachmentService
	logger            *zap.Logger
}

func NewAttachmentHandler(attachmentService *service.AttachmentService, logger *zap.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		logger:            logger,
	}
}

// @Summary List attachments
// @Tags Attachments
// @Produce json
// @Param relatedType query string true "Related entity type" Enums(school, visit, offer, sale)
// @Param relatedId query int true "Related entity ID"
// @Success 200 {array} domain.AttachmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /attachments [get]
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	relatedType := domain.AttachmentRelatedType(r.URL.Query().Get("relatedType"))
	if !relatedType.IsValid() {
		respondWithError(w, http.StatusBadRequest, "relatedType must be one of: school, visit, offer, sale")
		return
	}
	relatedID, err := queryUint(r, "relatedId")
	if err != nil || relatedID == nil {
		respondWithError(w, http.StatusBadRequest, "relatedId is required")
		return
	}

	attachments, err := h.attachmentService.List(r.Context(), relatedType, *relatedID)
	if err != nil {
		respondError(w, h.logger, "failed to list attachments", err)
		return
	}
	respondJSON(w, http.StatusOK, attachments)
}

// @Summary Add attachment
// @Tags Attachments
// @Accept json
// @Produce json
// @Param request body domain.CreateAttachmentRequest true "Attachment reference"
// @Success 201 {object} domain.AttachmentDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Related record not found"
// @Security BearerAuth
// @Router /attachments [post]
func (h *AttachmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAttachmentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	attachment, err := h.attachmentService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create attachment", err)
		return
	}
	respondJSON(w, http.StatusCreated, attachment)
}

// @Summary Delete attachment
// @Tags Attachments
// @Param id path int true "Attachment ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete attachment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
