package handler

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// @Summary Current user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context())
	if err != nil {
		respondError(w, h.logger, "failed to load current user", err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// @Summary List users
// @Description Sales users see themselves, managers their team, admins everyone.
// @Tags Users
// @Produce json
// @Param role query string false "Filter by role" Enums(system_admin, admin, manager, sales)
// @Param teamId query int false "Filter by team"
// @Param search query string false "Search name or email"
// @Param active query bool false "Only active users"
// @Success 200 {array} domain.UserDTO
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	q := &queryParams{r: r}
	filter := &repository.UserFilter{
		TeamID:     q.optUint("teamId"),
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if q.err != nil {
		respondWithError(w, http.StatusBadRequest, q.err.Error())
		return
	}
	if s := q.optString("role"); s != nil {
		role := domain.UserRole(*s)
		if !role.IsValid() {
			respondWithError(w, http.StatusBadRequest, "invalid role")
			return
		}
		filter.Role = &role
	}

	users, err := h.userService.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, "failed to list users", err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.UserDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, "failed to get user", err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// @Summary List teams
// @Tags Users
// @Produce json
// @Success 200 {array} domain.TeamDTO
// @Security BearerAuth
// @Router /teams [get]
func (h *UserHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.userService.ListTeams(r.Context())
	if err != nil {
		respondError(w, h.logger, "failed to list teams", err)
		return
	}
	respondJSON(w, http.StatusOK, teams)
}
