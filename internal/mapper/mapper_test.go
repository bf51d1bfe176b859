package mapper_test

import (
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestToOfferDTO(t *testing.T) {
	valid := time.Date(2026, 5, 31, 22, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	offer := &domain.Offer{
		UserID:          3,
		User:            &domain.User{FirstName: "Sanne", LastName: "Bakker", DisplayName: "sanne"},
		SchoolID:        8,
		School:          &domain.School{Name: "Gymnasium Haganum"},
		Title:           "Paris 2026",
		StudentCount:    30,
		PricePerStudent: 310.5,
		TotalPrice:      9315,
		Currency:        "EUR",
		ValidUntil:      &valid,
		Status:          domain.OfferStatusSent,
	}
	offer.ID = 12

	dto := mapper.ToOfferDTO(offer)

	assert.Equal(t, uint(12), dto.ID)
	assert.Equal(t, "Sanne Bakker", dto.UserName)
	assert.Equal(t, "Gymnasium Haganum", dto.SchoolName)
	require.NotNil(t, dto.ValidUntil)
	assert.Equal(t, "2026-05-31T20:00:00Z", *dto.ValidUntil, "times are rendered in UTC")
	assert.Nil(t, dto.LastSentAt)
}

func TestToOfferDTO_WithoutAssociations(t *testing.T) {
	dto := mapper.ToOfferDTO(&domain.Offer{Title: "Bare"})
	assert.Empty(t, dto.UserName)
	assert.Empty(t, dto.SchoolName)
}

func TestToUserDTO_DefaultsDistricts(t *testing.T) {
	team := uint(2)
	user := &domain.User{DisplayName: "Piet", Role: domain.RoleManager, TeamID: &team, Team: &domain.Team{Name: "Noord"}}

	dto := mapper.ToUserDTO(user)

	assert.NotNil(t, dto.Districts)
	assert.Empty(t, dto.Districts)
	assert.Equal(t, "Noord", dto.TeamName)
	assert.Equal(t, domain.RoleManager, dto.Role)
}

func TestToAuditLogDTO_KeepsChangesAsJSON(t *testing.T) {
	log := &domain.AuditLog{
		ID:         1,
		UserID:     4,
		Action:     domain.AuditActionUpdate,
		EntityType: "offer",
		EntityID:   9,
		Changes:    datatypes.JSON(`{"title":{"old":"A","new":"B"}}`),
	}

	dto := mapper.ToAuditLogDTO(log)
	assert.JSONEq(t, `{"title":{"old":"A","new":"B"}}`, string(dto.Changes))

	log.Changes = nil
	assert.Nil(t, mapper.ToAuditLogDTO(log).Changes)
}
