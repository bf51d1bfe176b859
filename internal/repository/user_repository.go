package repository

import (
	"context"
	"strings"

	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// UserFilter represents filter options for listing users
type UserFilter struct {
	Role       *domain.UserRole
	TeamID     *uint
	Search     string
	ActiveOnly bool
}

// UserRepository handles user data access
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update saves a user
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// GetByID loads a user without visibility rules. It backs authentication and
// internal lookups; request-facing reads use GetVisibleByID.
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Team").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetVisibleByID loads a user the actor in ctx may see
func (r *UserRepository) GetVisibleByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	query := ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.User{}), OwnerUsers)
	err := query.Preload("Team").Where("users.id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns the users visible to the actor in ctx, ordered by name
func (r *UserRepository) List(ctx context.Context, filter *UserFilter) ([]domain.User, error) {
	query := ApplyVisibility(ctx, r.db.WithContext(ctx).Model(&domain.User{}), OwnerUsers)

	if filter != nil {
		if filter.Role != nil {
			query = query.Where("users.role = ?", *filter.Role)
		}
		if filter.TeamID != nil {
			query = query.Where("users.team_id = ?", *filter.TeamID)
		}
		if filter.ActiveOnly {
			query = query.Where("users.is_active = ?", true)
		}
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			query = query.Where("(LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?)", like, like)
		}
	}

	var users []domain.User
	err := query.Preload("Team").Order("users.name ASC").Find(&users).Error
	return users, err
}

// TeamRepository handles team data access
type TeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// Create inserts a team
func (r *TeamRepository) Create(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// GetByID loads a team with its manager
func (r *TeamRepository) GetByID(ctx context.Context, id uint) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).Preload("Manager").Where("id = ?", id).First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// List returns every team ordered by name. Teams are reference data.
func (r *TeamRepository) List(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	err := r.db.WithContext(ctx).Preload("Manager").Order("name ASC").Find(&teams).Error
	return teams, err
}
