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
	"gorm.io/gorm/clause"
)

func TestDashboardService_Summary_IsScopedToVisibleRows(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	testutil.CreateVisit(t, h.db, tm.member, tm.school)
	testutil.CreateVisit(t, h.db, tm.outsider, tm.school)
	testutil.CreateOffer(t, h.db, tm.member, tm.school, domain.OfferStatusSent)
	testutil.CreateOffer(t, h.db, tm.member2, tm.school, domain.OfferStatusDraft)
	testutil.CreateOffer(t, h.db, tm.outsider, tm.school, domain.OfferStatusSent)
	testutil.CreateSale(t, h.db, tm.member, tm.school, 1200.50)
	testutil.CreateSale(t, h.db, tm.manager, tm.school, 800.25)
	testutil.CreateSale(t, h.db, tm.outsider, tm.school, 99999)

	summary, err := h.dashboard.Summary(testutil.ActorContext(tm.manager), repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Visits)
	assert.Equal(t, int64(2), summary.Offers)
	assert.Equal(t, int64(1), summary.PendingOffers)
	assert.Equal(t, int64(2), summary.Sales)
	assert.Equal(t, 2000.75, summary.Revenue)

	summary, err = h.dashboard.Summary(testutil.ActorContext(tm.member), repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Offers)
	assert.Equal(t, 1200.50, summary.Revenue)

	summary, err = h.dashboard.Summary(testutil.ActorContext(tm.admin), repository.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.Sales)
}

func TestDashboardService_Summary_DateRange(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	old := testutil.CreateSale(t, h.db, tm.member, tm.school, 500)
	require.NoError(t, h.db.Model(old).Update("sale_date", time.Now().UTC().AddDate(-1, 0, 0)).Error)
	testutil.CreateSale(t, h.db, tm.member, tm.school, 700)

	from := time.Now().UTC().AddDate(0, 0, -7)
	summary, err := h.dashboard.Summary(testutil.ActorContext(tm.member), repository.DateRange{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Sales)
	assert.Equal(t, 700.0, summary.Revenue)
}

func TestDashboardService_PerformanceSummary(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	now := time.Now().UTC()
	month := int(now.Month())

	visit := testutil.CreateVisit(t, h.db, tm.member, tm.school)
	require.NoError(t, h.db.Model(visit).Update("visit_date", now).Error)
	testutil.CreateOffer(t, h.db, tm.member, tm.school, domain.OfferStatusSent)
	testutil.CreateOffer(t, h.db, tm.member, tm.school, domain.OfferStatusDraft)
	testutil.CreateSale(t, h.db, tm.member, tm.school, 2500)

	target := &domain.SalesTarget{
		UserID:          tm.member.ID,
		PeriodType:      domain.PeriodMonth,
		PeriodYear:      now.Year(),
		PeriodMonth:     &month,
		VisitTarget:     0,
		OfferTarget:     4,
		DealTarget:      2,
		RevenueTarget:   10000,
		CreatedByUserID: tm.manager.ID,
	}
	require.NoError(t, h.db.Omit(clause.Associations).Create(target).Error)

	summary, err := h.dashboard.PerformanceSummary(testutil.ActorContext(tm.manager), now.Year(), &month, &tm.member.ID)
	require.NoError(t, err)

	assert.Equal(t, tm.member.ID, summary.UserID)
	require.NotNil(t, summary.Targets)
	assert.Equal(t, int64(1), summary.Actual.Visits)
	assert.Equal(t, int64(2), summary.Actual.Offers)
	assert.Equal(t, int64(1), summary.Actual.Deals)
	assert.Equal(t, 2500.0, summary.Actual.Revenue)
	assert.Equal(t, 0.0, summary.Performance.VisitRate, "a zero target yields a zero rate")
	assert.Equal(t, 50.0, summary.Performance.OfferRate)
	assert.Equal(t, 50.0, summary.Performance.DealRate)
	assert.Equal(t, 25.0, summary.Performance.RevenueRate)
}

func TestDashboardService_PerformanceSummary_HiddenUser(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	_, err := h.dashboard.PerformanceSummary(testutil.ActorContext(tm.member), 2024, nil, &tm.outsider.ID)
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	bad := 13
	_, err = h.dashboard.PerformanceSummary(testutil.ActorContext(tm.member), 2024, &bad, nil)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestDashboardService_PerformanceSummary_NoTarget(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	summary, err := h.dashboard.PerformanceSummary(testutil.ActorContext(tm.member), 2020, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, summary.Targets)
	assert.Equal(t, domain.PerformanceRatesDTO{}, summary.Performance)
}

func createAnnouncement(t *testing.T, h *harness, by *domain.User, audience domain.Audience, expiresAt *time.Time) *domain.Announcement {
	t.Helper()
	typ, id := audience.Columns()
	a := &domain.Announcement{
		Title:           "Notice " + string(typ) + id,
		Content:         "Body",
		Priority:        "normal",
		AudienceType:    typ,
		AudienceID:      id,
		ExpiresAt:       expiresAt,
		CreatedByUserID: by.ID,
	}
	require.NoError(t, h.db.Omit(clause.Associations).Create(a).Error)
	return a
}

func announcementIDs(t *testing.T, h *harness, u *domain.User) []uint {
	t.Helper()
	list, err := h.announcements.List(testutil.ActorContext(u))
	require.NoError(t, err)
	ids := make([]uint, len(list))
	for i, a := range list {
		ids[i] = a.ID
	}
	return ids
}

func TestAnnouncementService_TeamAudience(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	teamNotice := createAnnouncement(t, h, tm.admin, domain.AudienceForTeam(tm.team.ID), nil)

	assert.Contains(t, announcementIDs(t, h, tm.member), teamNotice.ID)
	assert.NotContains(t, announcementIDs(t, h, tm.outsider), teamNotice.ID)
	assert.Contains(t, announcementIDs(t, h, tm.admin), teamNotice.ID, "admins skip audience matching")

	_, err := h.announcements.GetByID(testutil.ActorContext(tm.outsider), teamNotice.ID)
	assert.ErrorIs(t, err, service.ErrAnnouncementNotFound)
}

func TestAnnouncementService_ExpiryAppliesToEveryone(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	expired := createAnnouncement(t, h, tm.admin, domain.AudienceForAll(), &past)
	current := createAnnouncement(t, h, tm.admin, domain.AudienceForAll(), &future)

	for _, u := range []*domain.User{tm.member, tm.manager, tm.admin} {
		ids := announcementIDs(t, h, u)
		assert.NotContains(t, ids, expired.ID)
		assert.Contains(t, ids, current.ID)
	}

	_, err := h.announcements.GetByID(testutil.ActorContext(tm.admin), expired.ID)
	assert.ErrorIs(t, err, service.ErrAnnouncementNotFound)
}

func TestAnnouncementService_RoleAndUserAudience(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	managers := createAnnouncement(t, h, tm.admin, domain.AudienceForRole(domain.RoleManager), nil)
	personal := createAnnouncement(t, h, tm.admin, domain.AudienceForUser(tm.member2.ID), nil)

	assert.ElementsMatch(t, []uint{managers.ID}, announcementIDs(t, h, tm.manager))
	assert.ElementsMatch(t, []uint{personal.ID}, announcementIDs(t, h, tm.member2))
	assert.Empty(t, announcementIDs(t, h, tm.member))
}

func TestAnnouncementService_CreateRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	req := &domain.CreateAnnouncementRequest{Title: "Hello", Content: "World", AudienceType: domain.AudienceAll}

	_, err := h.announcements.Create(testutil.ActorContext(tm.manager), req)
	assert.ErrorIs(t, err, service.ErrAnnouncementPermission)

	dto, err := h.announcements.Create(testutil.ActorContext(tm.admin), req)
	require.NoError(t, err)
	assert.Equal(t, domain.AudienceAll, dto.AudienceType)

	bad := &domain.CreateAnnouncementRequest{Title: "x", Content: "y", AudienceType: domain.AudienceTeam, AudienceID: "north"}
	_, err = h.announcements.Create(testutil.ActorContext(tm.admin), bad)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestAuditLogService_List_RestrictedToAdmins(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	h.audit.LogCreate(testutil.ActorContext(tm.member), "visit", 1, map[string]string{"purpose": "intro"})

	for _, u := range []*domain.User{tm.member, tm.manager} {
		logs, total, err := h.audit.List(testutil.ActorContext(u), service.AuditLogQueryParams{})
		assert.ErrorIs(t, err, service.ErrAuditPermission)
		assert.Equal(t, domain.KindPermissionDenied, domain.KindOf(err))
		assert.Nil(t, logs)
		assert.Zero(t, total)
	}

	logs, total, err := h.audit.List(testutil.ActorContext(tm.admin), service.AuditLogQueryParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, tm.member.ID, logs[0].UserID)
	assert.JSONEq(t, `{"new":{"purpose":"intro"}}`, string(logs[0].Changes))
}

func TestAuditLogService_UpdateRecordsFieldDiff(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)

	h.audit.LogUpdate(testutil.ActorContext(tm.member), "visit", 7,
		map[string]interface{}{"purpose": "intro", "outcome": "neutral"},
		map[string]interface{}{"purpose": "intro", "outcome": "positive"})

	logs, _, err := h.audit.List(testutil.ActorContext(tm.admin), service.AuditLogQueryParams{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"outcome":{"old":"neutral","new":"positive"}}`, string(logs[0].Changes))
}

func TestExpenseService_RequiresCapability(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	sale := testutil.CreateSale(t, h.db, tm.member, tm.school, 10000)
	req := &domain.CreateExpenseRequest{Category: domain.ExpenseCategoryTransport, Amount: 2000, PaymentStatus: domain.PaymentStatusPaid}

	_, err := h.expenses.Create(testutil.ActorContext(tm.member), sale.ID, req)
	assert.ErrorIs(t, err, service.ErrExpensePermission)

	require.NoError(t, h.db.Model(tm.member).Update("can_manage_expenses", true).Error)
	tm.member.CanManageExpenses = true

	dto, err := h.expenses.Create(testutil.ActorContext(tm.member), sale.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "EUR", dto.Currency)

	_, err = h.expenses.Create(testutil.ActorContext(tm.member), 424242, req)
	assert.ErrorIs(t, err, service.ErrSaleNotFound)
}

func TestSaleService_GetProfitability(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	sale := testutil.CreateSale(t, h.db, tm.member, tm.school, 10000)
	testutil.CreateExpense(t, h.db, sale, tm.admin, 2000, domain.PaymentStatusPaid)
	testutil.CreateExpense(t, h.db, sale, tm.admin, 500, domain.PaymentStatusCancelled)

	p, err := h.sales.GetProfitability(testutil.ActorContext(tm.manager), sale.ID)
	require.NoError(t, err)
	assert.Len(t, p.Expenses, 2, "cancelled expenses are listed")
	assert.Equal(t, 2000.0, p.TotalExpenses)
	assert.Equal(t, 8000.0, p.Profit)
	assert.Equal(t, 80.0, p.ProfitMargin)

	_, err = h.sales.GetProfitability(testutil.ActorContext(tm.outsider), sale.ID)
	assert.ErrorIs(t, err, service.ErrSaleNotFound)
}

func TestSaleService_GetProfitability_ZeroRevenue(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	sale := testutil.CreateSale(t, h.db, tm.member, tm.school, 0)
	testutil.CreateExpense(t, h.db, sale, tm.admin, 150, domain.PaymentStatusPending)

	p, err := h.sales.GetProfitability(testutil.ActorContext(tm.member), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.ProfitMargin)
	assert.Equal(t, -150.0, p.Profit)
}

func TestLeaveRequestService_Review(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	req := &domain.CreateLeaveRequestRequest{LeaveType: domain.LeaveTypeAnnual, StartDate: start, EndDate: start.AddDate(0, 0, 5)}

	memberReq, err := h.leave.Create(testutil.ActorContext(tm.member), req)
	require.NoError(t, err)
	managerReq, err := h.leave.Create(testutil.ActorContext(tm.manager), req)
	require.NoError(t, err)

	_, err = h.leave.Approve(testutil.ActorContext(tm.member2), memberReq.ID, &domain.ReviewLeaveRequest{})
	assert.Error(t, err, "sales cannot see or review a colleague's request")

	_, err = h.leave.Approve(testutil.ActorContext(tm.manager), managerReq.ID, &domain.ReviewLeaveRequest{})
	assert.ErrorIs(t, err, service.ErrLeaveReviewPermission)

	approved, err := h.leave.Approve(testutil.ActorContext(tm.manager), memberReq.ID, &domain.ReviewLeaveRequest{Note: "enjoy"})
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedByUserID)
	assert.Equal(t, tm.manager.ID, *approved.ReviewedByUserID)

	_, err = h.leave.Reject(testutil.ActorContext(tm.admin), memberReq.ID, &domain.ReviewLeaveRequest{})
	assert.ErrorIs(t, err, service.ErrLeaveNotPending)

	_, err = h.leave.Cancel(testutil.ActorContext(tm.admin), managerReq.ID)
	assert.ErrorIs(t, err, service.ErrLeaveCancelPermission)

	cancelled, err := h.leave.Cancel(testutil.ActorContext(tm.manager), managerReq.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusCancelled, cancelled.Status)
}

func TestLeaveRequestService_Create_RejectsInvertedDates(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	start := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)

	_, err := h.leave.Create(testutil.ActorContext(tm.member), &domain.CreateLeaveRequestRequest{
		LeaveType: domain.LeaveTypeSick, StartDate: start, EndDate: start.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, service.ErrInvalidDates)
}

func TestSalesTargetService_Upsert(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	month := 9
	req := &domain.UpsertSalesTargetRequest{
		UserID: tm.member.ID, PeriodType: domain.PeriodMonth, PeriodYear: 2024, PeriodMonth: &month,
		VisitTarget: 10, OfferTarget: 5, DealTarget: 2, RevenueTarget: 20000,
	}

	_, err := h.targets.Upsert(testutil.ActorContext(tm.member), req)
	assert.ErrorIs(t, err, service.ErrTargetPermission)

	outsiderReq := *req
	outsiderReq.UserID = tm.outsider.ID
	_, err = h.targets.Upsert(testutil.ActorContext(tm.manager), &outsiderReq)
	assert.ErrorIs(t, err, service.ErrUserNotFound)

	first, err := h.targets.Upsert(testutil.ActorContext(tm.manager), req)
	require.NoError(t, err)

	req.VisitTarget = 12
	second, err := h.targets.Upsert(testutil.ActorContext(tm.manager), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 12, second.VisitTarget)
	assert.Equal(t, int64(1), h.count(t, &domain.SalesTarget{}, "user_id = ?", tm.member.ID))

	yearly := *req
	yearly.PeriodType = domain.PeriodYear
	_, err = h.targets.Upsert(testutil.ActorContext(tm.admin), &yearly)
	assert.ErrorIs(t, err, service.ErrInvalidPeriod)
}

func TestCommissionService(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	req := &domain.CreateCommissionRequest{
		UserID: tm.member.ID, SourceType: domain.CommissionSourceSale, Amount: 150.25, PeriodYear: 2024,
	}

	_, err := h.commissions.Create(testutil.ActorContext(tm.manager), req)
	assert.ErrorIs(t, err, service.ErrCommissionPermission)

	created, err := h.commissions.Create(testutil.ActorContext(tm.admin), req)
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionStatusPending, created.Status)

	manual := *req
	manual.SourceType = domain.CommissionSourceManual
	manual.Amount = 49.75
	_, err = h.commissions.Create(testutil.ActorContext(tm.admin), &manual)
	require.NoError(t, err)

	list, err := h.commissions.List(testutil.ActorContext(tm.member), nil)
	require.NoError(t, err)
	assert.Len(t, list.Data, 2)
	require.Contains(t, list.Totals, service.DefaultCurrency)
	assert.Equal(t, 200.0, list.Totals[service.DefaultCurrency].Total)
	assert.Equal(t, 150.25, list.Totals[service.DefaultCurrency].BySource[domain.CommissionSourceSale])

	gbp := manual
	gbp.Currency = "GBP"
	gbp.Amount = 30
	_, err = h.commissions.Create(testutil.ActorContext(tm.admin), &gbp)
	require.NoError(t, err)
	list, err = h.commissions.List(testutil.ActorContext(tm.member), nil)
	require.NoError(t, err)
	assert.Equal(t, 200.0, list.Totals[service.DefaultCurrency].Total, "other currencies are not added in")
	assert.Equal(t, 30.0, list.Totals["GBP"].Total)

	list, err = h.commissions.List(testutil.ActorContext(tm.outsider), nil)
	require.NoError(t, err)
	assert.Empty(t, list.Data)

	paid, err := h.commissions.UpdateStatus(testutil.ActorContext(tm.admin), created.ID,
		&domain.UpdateCommissionStatusRequest{Status: domain.CommissionStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, domain.CommissionStatusPaid, paid.Status)
}

func TestVisitService_TeamScenario(t *testing.T) {
	h := newHarness(t)
	tm := h.seedTeam(t)
	req := &domain.CreateVisitRequest{SchoolID: tm.school.ID, VisitDate: time.Now().UTC(), Purpose: "intro"}

	_, err := h.visits.Create(testutil.ActorContext(tm.manager), req)
	require.NoError(t, err)
	_, err = h.visits.Create(testutil.ActorContext(tm.member), req)
	require.NoError(t, err)
	_, err = h.visits.Create(testutil.ActorContext(tm.outsider), req)
	require.NoError(t, err)

	filter := &repository.VisitFilter{SchoolID: &tm.school.ID}
	total := func(u *domain.User) int64 {
		page, err := h.visits.List(testutil.ActorContext(u), filter, repository.Page{})
		require.NoError(t, err)
		return page.Total
	}

	assert.Equal(t, int64(1), total(tm.member))
	assert.Equal(t, int64(2), total(tm.manager))
	assert.Equal(t, int64(3), total(tm.admin))
}
