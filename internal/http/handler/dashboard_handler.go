package handler

import (
	"net/http"
	"time"

	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// @Summary Dashboard summary
// @Description Counts and revenue over the rows visible to the caller.
// @Description
// @Description - `pendingOffers`: offers in status sent
// @Description - `scheduledAppointments`: planned appointments starting from now
// @Description - `revenue`: sum of finalRevenueAmount over visible sales
// @Tags Dashboard
// @Produce json
// @Param from query string false "Window start (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "Window end, exclusive"
// @Success 200 {object} domain.DashboardSummaryDTO
// @Security BearerAuth
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	dates, err := queryDateRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.dashboardService.Summary(r.Context(), dates)
	if err != nil {
		respondError(w, h.logger, "failed to build dashboard summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// @Summary Performance summary
// @Description Compares actual visits, offers, deals and revenue with the sales target for a month or year.
// @Description Rates are percentages and are 0 when the matching target is 0 or missing.
// @Tags Dashboard
// @Produce json
// @Param year query int false "Year (defaults to the current year)"
// @Param month query int false "Month 1-12; omit for the whole year"
// @Param userId query int false "Another visible user (defaults to the caller)"
// @Success 200 {object} domain.PerformanceSummaryDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /dashboard/performance [get]
func (h *DashboardHandler) Performance(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	year := q.optInt("year")
	month := q.optInt("month")
	userID := q.optUint("userId")
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	y := time.Now().UTC().Year()
	if year != nil {
		y = *year
	}

	summary, err := h.dashboardService.PerformanceSummary(r.Context(), y, month, userID)
	if err != nil {
		respondError(w, h.logger, "failed to build performance summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
