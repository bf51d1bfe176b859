package service_test

import (
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"github.com/edutour/sales-crm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchoolService_GetWithStats_CountsOnlyVisibleRows(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	testutil.CreateVisit(t, h.db, tm.member, tm.school)
	testutil.CreateVisit(t, h.db, tm.member2, tm.school)
	testutil.CreateVisit(t, h.db, tm.outsider, tm.school)
	testutil.CreateOffer(t, h.db, tm.member, tm.school, domain.OfferStatusDraft)
	testutil.CreateOffer(t, h.db, tm.outsider, tm.school, domain.OfferStatusSent)
	testutil.CreateSale(t, h.db, tm.outsider, tm.school, 4000)

	tests := []struct {
		name   string
		actor  *domain.User
		visits int64
		offers int64
		sales  int64
	}{
		{"member sees own rows", tm.member, 1, 1, 0},
		{"manager sees the team", tm.manager, 2, 1, 0},
		{"outsider sees own rows", tm.outsider, 1, 1, 1},
		{"admin sees everything", tm.admin, 3, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.schools.GetWithStats(testutil.ActorContext(tt.actor), tm.school.ID)
			require.NoError(t, err)
			assert.Equal(t, tm.school.Name, result.Name)
			assert.Equal(t, tt.visits, result.Stats.VisitCount)
			assert.Equal(t, tt.offers, result.Stats.OfferCount)
			assert.Equal(t, tt.sales, result.Stats.SaleCount)
		})
	}

	_, err := h.schools.GetWithStats(testutil.ActorContext(tm.member), 99999)
	assert.ErrorIs(t, err, service.ErrSchoolNotFound)
}

func TestAttachmentService_FollowsRecordVisibility(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	offer := testutil.CreateOffer(t, h.db, tm.member, tm.school, domain.OfferStatusDraft)

	req := &domain.CreateAttachmentRequest{
		RelatedType: domain.AttachmentRelatedOffer,
		RelatedID:   offer.ID,
		FileURL:     "https://files.example.com/offer.pdf",
		FileName:    "offer.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
	}

	_, err := h.attachments.Create(testutil.ActorContext(tm.outsider), req)
	assert.ErrorIs(t, err, service.ErrOfferNotFound)

	created, err := h.attachments.Create(testutil.ActorContext(tm.member), req)
	require.NoError(t, err)
	assert.Equal(t, tm.member.ID, created.UploadedByUserID)

	listed, err := h.attachments.List(testutil.ActorContext(tm.manager), domain.AttachmentRelatedOffer, offer.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "offer.pdf", listed[0].FileName)

	_, err = h.attachments.List(testutil.ActorContext(tm.outsider), domain.AttachmentRelatedOffer, offer.ID)
	assert.ErrorIs(t, err, service.ErrOfferNotFound)

	err = h.attachments.Delete(testutil.ActorContext(tm.outsider), created.ID)
	assert.ErrorIs(t, err, service.ErrAttachmentNotFound)

	err = h.attachments.Delete(testutil.ActorContext(tm.manager), created.ID)
	assert.ErrorIs(t, err, service.ErrAttachmentPermission)

	require.NoError(t, h.attachments.Delete(testutil.ActorContext(tm.admin), created.ID))
	assert.Equal(t, int64(0), h.count(t, &domain.Attachment{}, "id = ?", created.ID))
}

func TestAttachmentService_SchoolsAreShared(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	created, err := h.attachments.Create(testutil.ActorContext(tm.outsider), &domain.CreateAttachmentRequest{
		RelatedType: domain.AttachmentRelatedSchool,
		RelatedID:   tm.school.ID,
		FileURL:     "https://files.example.com/brochure.pdf",
		FileName:    "brochure.pdf",
	})
	require.NoError(t, err)

	listed, err := h.attachments.List(testutil.ActorContext(tm.member), domain.AttachmentRelatedSchool, tm.school.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	_, err = h.attachments.List(testutil.ActorContext(tm.member), domain.AttachmentRelatedType("invoice"), 1)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestAppointmentService_StatusChangesOnlyFromPlanned(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	ctx := testutil.ActorContext(tm.member)
	start := time.Now().UTC().Add(48 * time.Hour)

	newAppointment := func() *domain.AppointmentDTO {
		dto, err := h.appointments.Create(ctx, &domain.CreateAppointmentRequest{
			SchoolID:      &tm.school.ID,
			Title:         "Intake meeting",
			Type:          domain.AppointmentTypeMeeting,
			StartDatetime: start,
		})
		require.NoError(t, err)
		return dto
	}

	first := newAppointment()
	assert.Equal(t, domain.AppointmentStatusPlanned, first.Status)
	assert.Equal(t, tm.member.ID, first.UserID)

	completed, err := h.appointments.Complete(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCompleted, completed.Status)

	again, err := h.appointments.Complete(ctx, first.ID)
	require.NoError(t, err, "repeating the current status is a no-op")
	assert.Equal(t, domain.AppointmentStatusCompleted, again.Status)

	_, err = h.appointments.Cancel(ctx, first.ID)
	assert.Equal(t, domain.KindBusinessRuleViolation, domain.KindOf(err))

	second := newAppointment()
	cancelled, err := h.appointments.Cancel(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, cancelled.Status)

	_, err = h.appointments.Complete(testutil.ActorContext(tm.outsider), second.ID)
	assert.ErrorIs(t, err, service.ErrAppointmentNotFound)

	require.NoError(t, h.appointments.Delete(testutil.ActorContext(tm.manager), second.ID))
	assert.Equal(t, int64(0), h.count(t, &domain.Appointment{}, "id = ?", second.ID))
}

func TestAppointmentService_Update_KeepsStatus(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	ctx := testutil.ActorContext(tm.member)
	start := time.Now().UTC().Add(24 * time.Hour)

	created, err := h.appointments.Create(ctx, &domain.CreateAppointmentRequest{
		Title: "Site visit", Type: domain.AppointmentTypeVisit, StartDatetime: start,
	})
	require.NoError(t, err)
	_, err = h.appointments.Complete(ctx, created.ID)
	require.NoError(t, err)

	updated, err := h.appointments.Update(ctx, created.ID, &domain.UpdateAppointmentRequest{
		Title: "Site visit with the board", Type: domain.AppointmentTypeVisit, StartDatetime: start,
	})
	require.NoError(t, err)
	assert.Equal(t, "Site visit with the board", updated.Title)
	assert.Equal(t, domain.AppointmentStatusCompleted, updated.Status)

	var stored domain.Appointment
	require.NoError(t, h.db.First(&stored, created.ID).Error)
	assert.Equal(t, domain.AppointmentStatusCompleted, stored.Status)

	_, err = h.appointments.Cancel(ctx, created.ID)
	assert.Equal(t, domain.KindBusinessRuleViolation, domain.KindOf(err))
}

func TestAppointmentService_Create_Validation(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	ctx := testutil.ActorContext(tm.member)
	start := time.Now().UTC()
	before := start.Add(-time.Hour)

	_, err := h.appointments.Create(ctx, &domain.CreateAppointmentRequest{
		Title: "Call back", Type: domain.AppointmentTypeCall,
		StartDatetime: start, EndDatetime: &before,
	})
	assert.ErrorIs(t, err, service.ErrInvalidDates)

	hidden := testutil.CreateSale(t, h.db, tm.outsider, tm.school, 100)
	_, err = h.appointments.Create(ctx, &domain.CreateAppointmentRequest{
		SaleID: &hidden.ID, Title: "Follow up", Type: domain.AppointmentTypeSaleFollowup,
		StartDatetime: start,
	})
	assert.ErrorIs(t, err, service.ErrSaleNotFound)
}

func TestUserService_ListIsScopedByRole(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	ids := func(users []domain.UserDTO) []uint {
		out := make([]uint, len(users))
		for i := range users {
			out[i] = users[i].ID
		}
		return out
	}

	users, err := h.users.List(testutil.ActorContext(tm.member), nil)
	require.NoError(t, err)
	assert.Equal(t, []uint{tm.member.ID}, ids(users))

	users, err = h.users.List(testutil.ActorContext(tm.manager), nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{tm.manager.ID, tm.member.ID, tm.member2.ID}, ids(users))

	users, err = h.users.List(testutil.ActorContext(tm.admin), nil)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	sales := domain.RoleSales
	users, err = h.users.List(testutil.ActorContext(tm.admin), &repository.UserFilter{Role: &sales})
	require.NoError(t, err)
	assert.Len(t, users, 3)

	_, err = h.users.GetByID(testutil.ActorContext(tm.member), tm.member2.ID)
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	got, err := h.users.GetByID(testutil.ActorContext(tm.manager), tm.member2.ID)
	require.NoError(t, err)
	assert.Equal(t, "North", got.TeamName)
}

func TestUserService_MeAndTeams(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	me, err := h.users.Me(testutil.ActorContext(tm.outsider))
	require.NoError(t, err)
	assert.Equal(t, tm.outsider.ID, me.ID)
	assert.Equal(t, domain.RoleSales, me.Role)

	teams, err := h.users.ListTeams(testutil.ActorContext(tm.member))
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}
