package domain

import (
	"fmt"
	"strconv"
)

// Audience is the decoded form of an announcement's audience_type/audience_id
// pair. Exactly one of Role, UserID or TeamID is set, matching Type; for
// AudienceAll none are.
type Audience struct {
	Type   AudienceType
	Role   UserRole
	UserID uint
	TeamID uint
}

// AudienceForAll targets every user
func AudienceForAll() Audience { return Audience{Type: AudienceAll} }

// AudienceForRole targets every user holding role
func AudienceForRole(role UserRole) Audience { return Audience{Type: AudienceRole, Role: role} }

// AudienceForUser targets a single user
func AudienceForUser(id uint) Audience { return Audience{Type: AudienceUser, UserID: id} }

// AudienceForTeam targets the members of a team
func AudienceForTeam(id uint) Audience { return Audience{Type: AudienceTeam, TeamID: id} }

// ParseAudience decodes the stored discriminator and id. It rejects ids that
// do not fit the audience type.
func ParseAudience(t AudienceType, id string) (Audience, error) {
	switch t {
	case AudienceAll, "":
		if id != "" {
			return Audience{}, NewValidation("audience id must be empty for audience type all")
		}
		return AudienceForAll(), nil
	case AudienceRole:
		role := UserRole(id)
		if !role.IsValid() {
			return Audience{}, NewValidation(fmt.Sprintf("unknown role %q", id))
		}
		return AudienceForRole(role), nil
	case AudienceUser, AudienceTeam:
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil || n == 0 {
			return Audience{}, NewValidation(fmt.Sprintf("audience id %q is not a valid %s id", id, t))
		}
		if t == AudienceUser {
			return AudienceForUser(uint(n)), nil
		}
		return AudienceForTeam(uint(n)), nil
	default:
		return Audience{}, NewValidation(fmt.Sprintf("unknown audience type %q", t))
	}
}

// Columns encodes the audience back into its stored form
func (a Audience) Columns() (AudienceType, string) {
	switch a.Type {
	case AudienceRole:
		return AudienceRole, string(a.Role)
	case AudienceUser:
		return AudienceUser, strconv.FormatUint(uint64(a.UserID), 10)
	case AudienceTeam:
		return AudienceTeam, strconv.FormatUint(uint64(a.TeamID), 10)
	default:
		return AudienceAll, ""
	}
}

// Matches reports whether a user with the given id, role and team is addressed
func (a Audience) Matches(userID uint, role UserRole, teamID *uint) bool {
	switch a.Type {
	case AudienceAll:
		return true
	case AudienceRole:
		return a.Role == role
	case AudienceUser:
		return a.UserID == userID
	case AudienceTeam:
		return teamID != nil && *teamID == a.TeamID
	}
	return false
}

// Audience decodes the announcement's stored audience
func (a *Announcement) Audience() (Audience, error) {
	return ParseAudience(a.AudienceType, a.AudienceID)
}
