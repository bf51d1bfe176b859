package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// userStore is an in-memory UserLookup
type userStore struct {
	users map[uint]*domain.User
	err   error
}

func (s *userStore) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func storedUser(id uint, role domain.UserRole, active bool) *domain.User {
	team := uint(3)
	u := &domain.User{
		Email:             "user@example.com",
		DisplayName:       "Stored User",
		Role:              role,
		TeamID:            &team,
		IsActive:          active,
		CanManageExpenses: true,
	}
	u.ID = id
	return u
}

func authenticate(t *testing.T, store *userStore, header string) (*httptest.ResponseRecorder, *auth.Actor) {
	t.Helper()
	m := auth.NewMiddleware(testAuthConfig(), store, zap.NewNop())

	var captured *auth.Actor
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, captured
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	token, err := auth.SignToken(testAuthConfig(), userID, "", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestMiddleware_Authenticate_LoadsActorFromStore(t *testing.T) {
	store := &userStore{users: map[uint]*domain.User{5: storedUser(5, domain.RoleManager, true)}}

	w, actor := authenticate(t, store, bearer(t, 5))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, actor)
	assert.Equal(t, uint(5), actor.ID)
	assert.Equal(t, domain.RoleManager, actor.Role)
	require.NotNil(t, actor.TeamID)
	assert.Equal(t, uint(3), *actor.TeamID)
	assert.True(t, actor.CanManageExpenses)
}

func TestMiddleware_Authenticate_Failures(t *testing.T) {
	store := &userStore{users: map[uint]*domain.User{
		5: storedUser(5, domain.RoleSales, true),
		6: storedUser(6, domain.RoleSales, false),
	}}
	expired, err := auth.SignToken(testAuthConfig(), 5, "", -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		store  *userStore
		header string
		status int
	}{
		{"missing header", store, "", http.StatusUnauthorized},
		{"basic scheme", store, "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"bad token", store, "Bearer nonsense", http.StatusUnauthorized},
		{"expired token", store, "Bearer " + expired, http.StatusUnauthorized},
		{"unknown user", store, bearer(t, 99), http.StatusUnauthorized},
		{"inactive user", store, bearer(t, 6), http.StatusForbidden},
		{"store failure", &userStore{err: errors.New("connection reset")}, bearer(t, 5), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, actor := authenticate(t, tt.store, tt.header)
			assert.Equal(t, tt.status, w.Code)
			assert.Nil(t, actor)
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	m := auth.NewMiddleware(testAuthConfig(), &userStore{}, zap.NewNop())
	h := m.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(ctx context.Context) int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil).WithContext(ctx))
		return w.Code
	}

	with := func(role domain.UserRole) context.Context {
		return auth.WithActor(context.Background(), &auth.Actor{ID: 1, Role: role})
	}
	assert.Equal(t, http.StatusForbidden, serve(context.Background()))
	assert.Equal(t, http.StatusForbidden, serve(with(domain.RoleSales)))
	assert.Equal(t, http.StatusForbidden, serve(with(domain.RoleManager)))
	assert.Equal(t, http.StatusNoContent, serve(with(domain.RoleAdmin)))
	assert.Equal(t, http.StatusNoContent, serve(with(domain.RoleSystemAdmin)))
}

func TestActor_Capabilities(t *testing.T) {
	team := uint(4)
	other := uint(5)

	sales := &auth.Actor{Role: domain.RoleSales, TeamID: &team}
	assert.False(t, sales.MayManageExpenses())
	sales.CanManageExpenses = true
	assert.True(t, sales.MayManageExpenses())

	admin := &auth.Actor{Role: domain.RoleAdmin}
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.MayManageExpenses())

	assert.True(t, sales.SameTeam(&team))
	assert.False(t, sales.SameTeam(&other))
	assert.False(t, sales.SameTeam(nil))
	assert.False(t, admin.SameTeam(&team))

	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { auth.MustFromContext(context.Background()) })
}
