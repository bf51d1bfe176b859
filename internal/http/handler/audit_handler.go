package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

// AuditHandler handles audit log related HTTP requests
type AuditHandler struct {
	auditService *service.AuditLogService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditLogService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List godoc
// @Summary List audit logs
// @Description Returns a paginated list of audit log entries. Admin roles only; others receive 403.
// @Tags Audit
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 200)"
// @Param userId query int false "Filter by user ID"
// @Param action query string false "Filter by action" Enums(create, update, delete, status_change, send_email)
// @Param entityType query string false "Filter by entity type"
// @Param entityId query int false "Filter by entity ID"
// @Param from query string false "Created at or after (RFC3339)"
// @Param to query string false "Created before (RFC3339)"
// @Success 200 {object} domain.PaginatedResponse
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /audit [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := repository.AuditLogFilter{
		UserID:     q.optUint("userId"),
		EntityType: r.URL.Query().Get("entityType"),
		EntityID:   q.optUint("entityId"),
	}
	dates := q.dates()
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	filter.StartTime = dates.From
	filter.EndTime = dates.To
	if a := q.optString("action"); a != nil {
		action := domain.AuditAction(*a)
		filter.Action = &action
	}

	page := parsePage(r)
	logs, total, err := h.auditService.List(r.Context(), service.AuditLogQueryParams{
		Filter: filter,
		Page:   page,
	})
	if err != nil {
		respondError(w, h.logger, "failed to list audit logs", err)
		return
	}

	dtos := make([]domain.AuditLogDTO, len(logs))
	for i := range logs {
		dtos[i] = mapper.ToAuditLogDTO(&logs[i])
	}
	totalPages := int(total) / page.Size
	if int(total)%page.Size != 0 {
		totalPages++
	}
	respondJSON(w, http.StatusOK, domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
	})
}
