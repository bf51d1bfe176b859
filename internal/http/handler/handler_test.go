package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/http/handler"
	"github.com/edutour/sales-crm/internal/mailer"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"github.com/edutour/sales-crm/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubMailer struct {
	err  error
	sent int
}

func (m *stubMailer) Send(ctx context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	return nil
}

type testServer struct {
	db     *gorm.DB
	mailer *stubMailer
	router chi.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	mail := &stubMailer{}

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	targetRepo := repository.NewSalesTargetRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)

	audit := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)
	offerService := service.NewOfferService(offerRepo, saleRepo, appointmentRepo, schoolRepo, visitRepo,
		templateRepo, mail, audit, logger, db)
	dashboardService := service.NewDashboardService(visitRepo, offerRepo, saleRepo, appointmentRepo,
		targetRepo, userRepo, logger)

	offers := handler.NewOfferHandler(offerService, logger)
	audits := handler.NewAuditHandler(audit, logger)
	dashboard := handler.NewDashboardHandler(dashboardService, logger)

	r := chi.NewRouter()
	r.Get("/offers", offers.List)
	r.Post("/offers", offers.Create)
	r.Get("/offers/{id}", offers.GetByID)
	r.Put("/offers/{id}", offers.Update)
	r.Put("/offers/{id}/status", offers.UpdateStatus)
	r.Post("/offers/{id}/send", offers.SendEmail)
	r.Get("/audit", audits.List)
	r.Get("/dashboard/summary", dashboard.Summary)
	r.Get("/dashboard/performance", dashboard.Performance)

	return &testServer{db: db, mailer: mail, router: r}
}

func (s *testServer) do(t *testing.T, as *domain.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req = req.WithContext(testutil.ActorContext(as))
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr), rr.Body.String())
	return apiErr
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type fixture struct {
	manager, member, outsider, admin *domain.User
	school                           *domain.School
}

func seed(t *testing.T, db *gorm.DB) *fixture {
	team := testutil.CreateTeam(t, db, "North")
	other := testutil.CreateTeam(t, db, "South")
	f := &fixture{
		manager:  testutil.CreateUser(t, db, domain.RoleManager, &team.ID),
		member:   testutil.CreateUser(t, db, domain.RoleSales, &team.ID),
		outsider: testutil.CreateUser(t, db, domain.RoleSales, &other.ID),
		admin:    testutil.CreateUser(t, db, domain.RoleAdmin, nil),
		school:   testutil.CreateSchool(t, db, "Amsterdams Lyceum"),
	}
	testutil.SetTeamManager(t, db, team, f.manager)
	return f
}

func TestOfferHandler_GetByID(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)

	t.Run("owner reads offer", func(t *testing.T) {
		rr := s.do(t, f.member, http.MethodGet, "/offers/"+itoa(offer.ID), nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var dto domain.OfferDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		assert.Equal(t, offer.ID, dto.ID)
		assert.Equal(t, 10000.0, dto.TotalPrice)
	})

	t.Run("manager reads team offer", func(t *testing.T) {
		rr := s.do(t, f.manager, http.MethodGet, "/offers/"+itoa(offer.ID), nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("other team gets 404", func(t *testing.T) {
		rr := s.do(t, f.outsider, http.MethodGet, "/offers/"+itoa(offer.ID), nil)
		require.Equal(t, http.StatusNotFound, rr.Code)
		apiErr := decodeAPIError(t, rr)
		assert.Equal(t, string(domain.KindNotFound), apiErr.Type)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rr := s.do(t, f.member, http.MethodGet, "/offers/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestOfferHandler_List_ScopedAndPaginated(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
	testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusSent)
	testutil.CreateOffer(t, s.db, f.outsider, f.school, domain.OfferStatusDraft)

	var page domain.PaginatedResponse
	rr := s.do(t, f.manager, http.MethodGet, "/offers?pageSize=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)

	rr = s.do(t, f.admin, http.MethodGet, "/offers?status=draft", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)

	rr = s.do(t, f.admin, http.MethodGet, "/offers?status=shipped", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOfferHandler_Create_Validation(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)

	rr := s.do(t, f.member, http.MethodPost, "/offers", map[string]interface{}{
		"schoolId":     f.school.ID,
		"studentCount": 10,
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeAPIError(t, rr)
	assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
	assert.Contains(t, apiErr.Errors, "title")

	rr = s.do(t, f.member, http.MethodPost, "/offers", map[string]interface{}{
		"schoolId":        f.school.ID,
		"title":           "Rome 2027",
		"studentCount":    20,
		"pricePerStudent": 450,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var dto domain.OfferDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	assert.Equal(t, f.member.ID, dto.UserID)
	assert.Equal(t, 9000.0, dto.TotalPrice)
	assert.Equal(t, "EUR", dto.Currency)
}

func TestOfferHandler_Update_LockedIs422(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusAccepted)

	body := map[string]interface{}{
		"schoolId":        f.school.ID,
		"title":           "Changed after acceptance",
		"studentCount":    50,
		"pricePerStudent": 200,
	}
	rr := s.do(t, f.member, http.MethodPut, "/offers/"+itoa(offer.ID), body)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, string(domain.KindBusinessRuleViolation), decodeAPIError(t, rr).Type)

	rr = s.do(t, f.admin, http.MethodPut, "/offers/"+itoa(offer.ID), body)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestOfferHandler_Update_ForeignOfferIs404(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
	teammate := testutil.CreateUser(t, s.db, domain.RoleSales, f.member.TeamID)

	body := map[string]interface{}{
		"schoolId":        f.school.ID,
		"title":           "Taken over",
		"studentCount":    10,
		"pricePerStudent": 100,
	}
	for _, user := range []*domain.User{f.outsider, teammate} {
		rr := s.do(t, user, http.MethodPut, "/offers/"+itoa(offer.ID), body)
		require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
		assert.Equal(t, string(domain.KindNotFound), decodeAPIError(t, rr).Type)

		rr = s.do(t, user, http.MethodPut, "/offers/"+itoa(offer.ID)+"/status",
			map[string]string{"status": string(domain.OfferStatusSent)})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	}

	var stored domain.Offer
	require.NoError(t, s.db.First(&stored, offer.ID).Error)
	assert.Equal(t, offer.Title, stored.Title)
	assert.Equal(t, domain.OfferStatusDraft, stored.Status)
}

func TestOfferHandler_UpdateStatus(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)

	t.Run("invalid status value is 400", func(t *testing.T) {
		offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
		rr := s.do(t, f.member, http.MethodPut, "/offers/"+itoa(offer.ID)+"/status",
			map[string]string{"status": "won"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("illegal transition is 422", func(t *testing.T) {
		offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
		rr := s.do(t, f.member, http.MethodPut, "/offers/"+itoa(offer.ID)+"/status",
			map[string]string{"status": "accepted"})
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("acceptance returns the created sale", func(t *testing.T) {
		offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusNegotiation)
		rr := s.do(t, f.member, http.MethodPut, "/offers/"+itoa(offer.ID)+"/status",
			map[string]string{"status": "accepted"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var result domain.OfferTransitionResultDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, domain.OfferStatusAccepted, result.Offer.Status)
		require.NotNil(t, result.Sale)
		assert.Equal(t, 10000.0, result.Sale.FinalRevenueAmount)
		assert.NotNil(t, result.Appointment)
	})
}

func TestOfferHandler_SendEmail(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	testutil.CreateDefaultTemplate(t, s.db)

	t.Run("delivered", func(t *testing.T) {
		offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
		rr := s.do(t, f.member, http.MethodPost, "/offers/"+itoa(offer.ID)+"/send", nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var dto domain.OfferDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
		assert.Equal(t, domain.OfferStatusSent, dto.Status)
		assert.Equal(t, 1, s.mailer.sent)
	})

	t.Run("delivery failure is 502", func(t *testing.T) {
		s.mailer.err = errors.New("smtp: 421 service not available")
		t.Cleanup(func() { s.mailer.err = nil })

		offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
		rr := s.do(t, f.member, http.MethodPost, "/offers/"+itoa(offer.ID)+"/send", nil)
		require.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, string(domain.KindExternal), decodeAPIError(t, rr).Type)
	})

	t.Run("bad recipient is 400", func(t *testing.T) {
		offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
		rr := s.do(t, f.member, http.MethodPost, "/offers/"+itoa(offer.ID)+"/send",
			map[string]string{"recipient": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuditHandler_List_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	offer := testutil.CreateOffer(t, s.db, f.member, f.school, domain.OfferStatusDraft)
	rr := s.do(t, f.member, http.MethodPut, "/offers/"+itoa(offer.ID)+"/status",
		map[string]string{"status": "sent"})
	require.Equal(t, http.StatusOK, rr.Code)

	for _, u := range []*domain.User{f.member, f.manager} {
		rr := s.do(t, u, http.MethodGet, "/audit", nil)
		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, domain.ErrorTypeForbidden, decodeAPIError(t, rr).Type)
	}

	rr = s.do(t, f.admin, http.MethodGet, "/audit?entityType=offer", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var page domain.PaginatedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)

	rr = s.do(t, f.admin, http.MethodGet, "/audit?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDashboardHandler(t *testing.T) {
	s := newTestServer(t)
	f := seed(t, s.db)
	testutil.CreateVisit(t, s.db, f.member, f.school)
	testutil.CreateVisit(t, s.db, f.outsider, f.school)
	testutil.CreateSale(t, s.db, f.member, f.school, 1500)

	rr := s.do(t, f.manager, http.MethodGet, "/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var summary domain.DashboardSummaryDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, int64(1), summary.Visits)
	assert.Equal(t, 1500.0, summary.Revenue)

	rr = s.do(t, f.admin, http.MethodGet, "/dashboard/summary", nil)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Equal(t, int64(2), summary.Visits)

	year := time.Now().UTC().Year()
	rr = s.do(t, f.member, http.MethodGet, "/dashboard/performance?year="+itoa(uint(year))+"&month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, f.member, http.MethodGet, "/dashboard/performance?userId="+itoa(f.outsider.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, f.manager, http.MethodGet, "/dashboard/performance?userId="+itoa(f.member.ID), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
