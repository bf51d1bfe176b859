package handler

import (
	"fmt"
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type OfferHandler struct {
	offerService *service.OfferService
	logger       *zap.Logger
}

func NewOfferHandler(offerService *service.OfferService, logger *zap.Logger) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
		logger:       logger,
	}
}

// @Summary List offers
// @Description Returns offers visible to the caller: own offers for sales, the team's for managers, all for admins.
// @Tags Offers
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param schoolId query int false "Filter by school"
// @Param userId query int false "Filter by owner"
// @Param status query string false "Filter by status" Enums(draft, sent, negotiation, accepted, rejected)
// @Param from query string false "Created at or after (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Created before (RFC3339 or YYYY-MM-DD)"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, title, status, totalPrice, validUntil)
// @Param sortOrder query string false "Sort direction" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /offers [get]
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.OfferFilter{
		SchoolID: q.optUint("schoolId"),
		UserID:   q.optUint("userId"),
		Dates:    q.dates(),
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	filter.Sort = repository.SortConfig{
		Field: r.URL.Query().Get("sortBy"),
		Order: repository.ParseSortOrder(r.URL.Query().Get("sortOrder")),
	}
	if s := q.optString("status"); s != nil {
		status := domain.OfferStatus(*s)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter.Status = &status
	}

	result, err := h.offerService.List(r.Context(), filter, parsePage(r))
	if err != nil {
		respondError(w, h.logger, "failed to list offers", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Create offer
// @Description Creates a draft offer owned by the caller. totalPrice defaults to studentCount * pricePerStudent.
// @Tags Offers
// @Accept json
// @Produce json
// @Param request body domain.CreateOfferRequest true "Offer data"
// @Success 201 {object} domain.OfferDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "School or visit not found"
// @Security BearerAuth
// @Router /offers [post]
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOfferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	offer, err := h.offerService.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, "failed to create offer", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/offers/%d", offer.ID))
	respondJSON(w, http.StatusCreated, offer)
}

// @Summary Get offer
// @Tags Offers
// @Produce json
// @Param id path int true "Offer ID"
// @Success 200 {object} domain.OfferDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /offers/{id} [get]
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	offer, err := h.offerService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get offer", err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// @Summary Get offer edit lock
// @Description Reports whether the caller may currently edit the offer and why not.
// @Tags Offers
// @Produce json
// @Param id path int true "Offer ID"
// @Success 200 {object} domain.OfferEditLockDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /offers/{id}/lock [get]
func (h *OfferHandler) GetEditLock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	lock, err := h.offerService.GetEditLock(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to evaluate offer lock", err)
		return
	}
	respondJSON(w, http.StatusOK, lock)
}

// @Summary Update offer
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path int true "Offer ID"
// @Param request body domain.UpdateOfferRequest true "Offer data"
// @Success 200 {object} domain.OfferDTO
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Offer is locked"
// @Security BearerAuth
// @Router /offers/{id} [put]
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateOfferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	offer, err := h.offerService.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to update offer", err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

// @Summary Delete offer
// @Tags Offers
// @Param id path int true "Offer ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Offer is locked"
// @Security BearerAuth
// @Router /offers/{id} [delete]
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.offerService.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, "failed to delete offer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Change offer status
// @Description Moves the offer through draft -> sent -> negotiation -> accepted/rejected.
// @Description Accepting creates the sale and a follow-up appointment; warnings report a follow-up that could not be scheduled.
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path int true "Offer ID"
// @Param request body domain.UpdateOfferStatusRequest true "Target status"
// @Success 200 {object} domain.OfferTransitionResultDTO
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Transition not allowed or offer locked"
// @Security BearerAuth
// @Router /offers/{id}/status [put]
func (h *OfferHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateOfferStatusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.offerService.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to change offer status", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// @Summary Email offer
// @Description Renders the offer with a template (the default when templateId is omitted) and emails it.
// @Tags Offers
// @Accept json
// @Produce json
// @Param id path int true "Offer ID"
// @Param request body domain.SendOfferEmailRequest false "Template and recipient overrides"
// @Success 200 {object} domain.OfferDTO
// @Failure 404 {object} domain.APIError
// @Failure 422 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Mail delivery failed"
// @Security BearerAuth
// @Router /offers/{id}/send [post]
func (h *OfferHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.SendOfferEmailRequest
	if r.ContentLength != 0 {
		if !decodeAndValidate(w, r, &req) {
			return
		}
	}

	offer, err := h.offerService.SendEmail(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, "failed to email offer", err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}
