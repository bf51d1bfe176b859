package auth

import (
	"context"

	"github.com/edutour/sales-crm/internal/domain"
)

// Actor is the authenticated user on whose behalf an operation runs
type Actor struct {
	ID                uint
	DisplayName       string
	Email             string
	Role              domain.UserRole
	TeamID            *uint
	Region            string
	Districts         []string
	CanManageExpenses bool
	IsActive          bool
}

// ActorFromUser builds an Actor from a stored user
func ActorFromUser(u *domain.User) *Actor {
	return &Actor{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		Email:             u.Email,
		Role:              u.Role,
		TeamID:            u.TeamID,
		Region:            u.Region,
		Districts:         u.Districts,
		CanManageExpenses: u.CanManageExpenses,
		IsActive:          u.IsActive,
	}
}

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor adds the actor to the context
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// FromContext extracts the actor from the context
func FromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(*Actor)
	return actor, ok && actor != nil
}

// MustFromContext extracts the actor or panics
func MustFromContext(ctx context.Context) *Actor {
	actor, ok := FromContext(ctx)
	if !ok {
		panic("actor not found in context")
	}
	return actor
}

// HasRole checks if the actor holds any of the given roles
func (a *Actor) HasRole(roles ...domain.UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor is admin or system_admin
func (a *Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

// MayManageExpenses reports whether the actor may create, change or delete expenses.
// Admin roles always may; anyone else needs the capability flag.
func (a *Actor) MayManageExpenses() bool {
	return a.IsAdmin() || a.CanManageExpenses
}

// SameTeam reports whether the actor belongs to teamID
func (a *Actor) SameTeam(teamID *uint) bool {
	return a.TeamID != nil && teamID != nil && *a.TeamID == *teamID
}
