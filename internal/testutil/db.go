// Package testutil provides an in-memory database and fixtures for tests
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/database"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The pool holds a single connection so every query sees the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// ActorContext returns a context carrying user as the authenticated actor
func ActorContext(user *domain.User) context.Context {
	return auth.WithActor(context.Background(), auth.ActorFromUser(user))
}

// CreateTeam creates a team with an optional manager
func CreateTeam(t *testing.T, db *gorm.DB, name string) *domain.Team {
	t.Helper()
	team := &domain.Team{Name: fmt.Sprintf("%s %d", name, next())}
	require.NoError(t, db.Omit(clause.Associations).Create(team).Error)
	return team
}

// CreateUser creates an active user with role, optionally on a team
func CreateUser(t *testing.T, db *gorm.DB, role domain.UserRole, teamID *uint) *domain.User {
	t.Helper()
	n := next()
	user := &domain.User{
		Email:       fmt.Sprintf("user%d@example.com", n),
		FirstName:   "Test",
		LastName:    fmt.Sprintf("User%d", n),
		DisplayName: fmt.Sprintf("Test User%d", n),
		Role:        role,
		TeamID:      teamID,
		IsActive:    true,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(user).Error)
	return user
}

// SetTeamManager marks manager as the manager of team
func SetTeamManager(t *testing.T, db *gorm.DB, team *domain.Team, manager *domain.User) {
	t.Helper()
	require.NoError(t, db.Model(team).Update("manager_id", manager.ID).Error)
	team.ManagerID = &manager.ID
}

// CreateSchool creates a school with a contact email
func CreateSchool(t *testing.T, db *gorm.DB, name string) *domain.School {
	t.Helper()
	school := &domain.School{
		Name:         name,
		City:         "Utrecht",
		District:     "Centrum",
		Region:       "Midden",
		ContactName:  "Jan de Vries",
		ContactEmail: fmt.Sprintf("contact%d@school.example.com", next()),
		StudentCount: 400,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(school).Error)
	return school
}

// CreateVisit creates a visit by user to school
func CreateVisit(t *testing.T, db *gorm.DB, user *domain.User, school *domain.School) *domain.Visit {
	t.Helper()
	visit := &domain.Visit{
		UserID:    user.ID,
		SchoolID:  school.ID,
		VisitDate: time.Now().UTC().Add(-24 * time.Hour),
		Purpose:   "introduction",
	}
	require.NoError(t, db.Omit(clause.Associations).Create(visit).Error)
	return visit
}

// CreateOffer creates an offer owned by user in the given status
func CreateOffer(t *testing.T, db *gorm.DB, user *domain.User, school *domain.School, status domain.OfferStatus) *domain.Offer {
	t.Helper()
	validUntil := time.Now().UTC().AddDate(0, 1, 0)
	offer := &domain.Offer{
		UserID:          user.ID,
		SchoolID:        school.ID,
		Title:           fmt.Sprintf("Class trip %d", next()),
		Destination:     "Berlin",
		StudentCount:    50,
		PricePerStudent: 200,
		TotalPrice:      10000,
		Currency:        "EUR",
		ValidUntil:      &validUntil,
		Status:          status,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(offer).Error)
	return offer
}

// CreateSale creates an active sale closed by user
func CreateSale(t *testing.T, db *gorm.DB, user *domain.User, school *domain.School, revenue float64) *domain.Sale {
	t.Helper()
	sale := &domain.Sale{
		SchoolID:           school.ID,
		ClosedByUserID:     user.ID,
		SaleDate:           time.Now().UTC(),
		FinalRevenueAmount: revenue,
		Currency:           "EUR",
		Status:             domain.SaleStatusActive,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(sale).Error)
	return sale
}

// CreateExpense adds an expense to sale
func CreateExpense(t *testing.T, db *gorm.DB, sale *domain.Sale, by *domain.User, amount float64, status domain.PaymentStatus) *domain.Expense {
	t.Helper()
	expense := &domain.Expense{
		SaleID:          sale.ID,
		Category:        domain.ExpenseCategoryTransport,
		Amount:          amount,
		Currency:        "EUR",
		PaymentStatus:   status,
		CreatedByUserID: by.ID,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(expense).Error)
	return expense
}

// CreateDefaultTemplate creates the default offer email template
func CreateDefaultTemplate(t *testing.T, db *gorm.DB) *domain.EmailTemplate {
	t.Helper()
	template := &domain.EmailTemplate{
		Name:      "Standard offer",
		Subject:   "Offer {{offerTitle}} for {{schoolName}}",
		Body:      "<p>Dear {{contactName}}, total {{totalPrice}} {{currency}}</p>",
		IsDefault: true,
	}
	require.NoError(t, db.Create(template).Error)
	return template
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
