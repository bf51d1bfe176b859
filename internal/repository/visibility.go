package repository

import (
	"context"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// OwnerColumn is the table-qualified column holding the id of the user who owns a row
type OwnerColumn string

const (
	OwnerVisits        OwnerColumn = "visits.user_id"
	OwnerOffers        OwnerColumn = "offers.user_id"
	OwnerSales         OwnerColumn = "sales.closed_by_user_id"
	OwnerAppointments  OwnerColumn = "appointments.user_id"
	OwnerLeaveRequests OwnerColumn = "leave_requests.user_id"
	OwnerCommissions   OwnerColumn = "commissions.user_id"
	OwnerSalesTargets  OwnerColumn = "sales_targets.user_id"
	// OwnerUsers treats every user row as owned by itself, so the same rules
	// decide which colleagues an actor can see.
	OwnerUsers OwnerColumn = "users.id"
)

// Predicate restricts rows to those an actor may read. A nil *Predicate means
// no restriction.
type Predicate struct {
	Owner  OwnerColumn
	UserID uint
	// TeamID widens the predicate to rows owned by members of the team
	TeamID *uint
	// DenyAll matches nothing; used when there is no actor
	DenyAll bool
}

// VisibilityPredicate builds the read filter for actor over rows owned through owner.
//
//   - admin and system_admin: nil (all rows)
//   - manager with a team: own rows plus rows owned by any member of the team
//   - manager without a team, sales, or any other role: own rows only
func VisibilityPredicate(actor *auth.Actor, owner OwnerColumn) *Predicate {
	if actor == nil {
		return &Predicate{Owner: owner, DenyAll: true}
	}
	if actor.Role.IsAdmin() {
		return nil
	}
	p := &Predicate{Owner: owner, UserID: actor.ID}
	if actor.Role == domain.RoleManager && actor.TeamID != nil {
		teamID := *actor.TeamID
		p.TeamID = &teamID
	}
	return p
}

// SQL renders the predicate as a where clause with its arguments
func (p *Predicate) SQL() (string, []interface{}) {
	col := string(p.Owner)
	switch {
	case p.DenyAll:
		return "1 = 0", nil
	case p.TeamID != nil:
		return "(" + col + " = ? OR " + col + " IN (SELECT id FROM users WHERE team_id = ?))",
			[]interface{}{p.UserID, *p.TeamID}
	default:
		return col + " = ?", []interface{}{p.UserID}
	}
}

// Apply adds the predicate to query. A nil predicate leaves query unchanged.
func (p *Predicate) Apply(query *gorm.DB) *gorm.DB {
	if p == nil {
		return query
	}
	clause, args := p.SQL()
	return query.Where(clause, args...)
}

// Allows evaluates the predicate against an already loaded row whose owner
// has ownerID and belongs to ownerTeamID.
func (p *Predicate) Allows(ownerID uint, ownerTeamID *uint) bool {
	if p == nil {
		return true
	}
	if p.DenyAll {
		return false
	}
	if ownerID == p.UserID {
		return true
	}
	return p.TeamID != nil && ownerTeamID != nil && *ownerTeamID == *p.TeamID
}

// ApplyVisibility restricts query to rows visible to the actor in ctx.
// Without an actor the query matches nothing.
func ApplyVisibility(ctx context.Context, query *gorm.DB, owner OwnerColumn) *gorm.DB {
	actor, _ := auth.FromContext(ctx)
	return VisibilityPredicate(actor, owner).Apply(query)
}
