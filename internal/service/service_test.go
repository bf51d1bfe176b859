package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mailer"
	"github.com/edutour/sales-crm/internal/repository"
	"github.com/edutour/sales-crm/internal/service"
	"github.com/edutour/sales-crm/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeMailer records messages and fails when err is set
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errSMTPDown = errors.New("smtp: connection refused")

type harness struct {
	db     *gorm.DB
	mailer *fakeMailer

	audit         *service.AuditLogService
	offers        *service.OfferService
	sales         *service.SaleService
	expenses      *service.ExpenseService
	appointments  *service.AppointmentService
	announcements *service.AnnouncementService
	targets       *service.SalesTargetService
	commissions   *service.CommissionService
	leave         *service.LeaveRequestService
	dashboard     *service.DashboardService
	visits        *service.VisitService
	schools       *service.SchoolService
	attachments   *service.AttachmentService
	users         *service.UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	mail := &fakeMailer{}

	userRepo := repository.NewUserRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	targetRepo := repository.NewSalesTargetRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	leaveRepo := repository.NewLeaveRequestRepository(db)
	templateRepo := repository.NewEmailTemplateRepository(db)

	audit := service.NewAuditLogService(repository.NewAuditLogRepository(db), logger)

	return &harness{
		db:     db,
		mailer: mail,
		audit:  audit,
		offers: service.NewOfferService(offerRepo, saleRepo, appointmentRepo, schoolRepo, visitRepo,
			templateRepo, mail, audit, logger, db),
		sales:         service.NewSaleService(saleRepo, expenseRepo, schoolRepo, audit, logger),
		expenses:      service.NewExpenseService(expenseRepo, saleRepo, audit, logger),
		appointments:  service.NewAppointmentService(appointmentRepo, schoolRepo, saleRepo, audit, logger),
		announcements: service.NewAnnouncementService(announcementRepo, audit, logger),
		targets:       service.NewSalesTargetService(targetRepo, userRepo, audit, logger),
		commissions:   service.NewCommissionService(commissionRepo, userRepo, audit, logger),
		leave:         service.NewLeaveRequestService(leaveRepo, audit, logger),
		dashboard: service.NewDashboardService(visitRepo, offerRepo, saleRepo, appointmentRepo,
			targetRepo, userRepo, logger),
		visits:  service.NewVisitService(visitRepo, schoolRepo, audit, logger),
		schools: service.NewSchoolService(schoolRepo, audit, logger),
		attachments: service.NewAttachmentService(repository.NewAttachmentRepository(db), schoolRepo,
			visitRepo, offerRepo, saleRepo, audit, logger),
		users: service.NewUserService(userRepo, repository.NewTeamRepository(db), logger),
	}
}

// team bundles a manager with two sales members plus an outsider and an admin
type team struct {
	team     *domain.Team
	manager  *domain.User
	member   *domain.User
	member2  *domain.User
	outsider *domain.User
	admin    *domain.User
	school   *domain.School
}

func (h *harness) seedTeam(t *testing.T) *team {
	t.Helper()
	tm := &team{}
	tm.team = testutil.CreateTeam(t, h.db, "North")
	other := testutil.CreateTeam(t, h.db, "South")
	tm.manager = testutil.CreateUser(t, h.db, domain.RoleManager, &tm.team.ID)
	tm.member = testutil.CreateUser(t, h.db, domain.RoleSales, &tm.team.ID)
	tm.member2 = testutil.CreateUser(t, h.db, domain.RoleSales, &tm.team.ID)
	tm.outsider = testutil.CreateUser(t, h.db, domain.RoleSales, &other.ID)
	tm.admin = testutil.CreateUser(t, h.db, domain.RoleAdmin, nil)
	testutil.SetTeamManager(t, h.db, tm.team, tm.manager)
	tm.school = testutil.CreateSchool(t, h.db, "Het Baarnsch Lyceum")
	return tm
}

func (h *harness) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := h.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
