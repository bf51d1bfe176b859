package service

import (
	"context"
	"fmt"

	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/mapper"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
)

// UserService exposes the sales organisation to the actor
type UserService struct {
	userRepo *repository.UserRepository
	teamRepo *repository.TeamRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, teamRepo *repository.TeamRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		teamRepo: teamRepo,
		logger:   logger,
	}
}

// Me returns the actor's own user record
func (s *UserService) Me(ctx context.Context) (*domain.UserDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// List returns the users the actor may see: admins everyone, managers their
// team, everyone else only themselves
func (s *UserService) List(ctx context.Context, filter *repository.UserFilter) ([]domain.UserDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

// GetByID returns a user visible to the actor
func (s *UserService) GetByID(ctx context.Context, id uint) (*domain.UserDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetVisibleByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// ListTeams returns all teams
func (s *UserService) ListTeams(ctx context.Context) ([]domain.TeamDTO, error) {
	if _, err := actorFrom(ctx); err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	dtos := make([]domain.TeamDTO, len(teams))
	for i := range teams {
		dtos[i] = mapper.ToTeamDTO(&teams[i])
	}
	return dtos, nil
}
