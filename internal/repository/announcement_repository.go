package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"gorm.io/gorm"
)

// AnnouncementRepository handles announcement data access. Announcements are
// matched by audience rather than owner.
type AnnouncementRepository struct {
	db *gorm.DB
}

// NewAnnouncementRepository creates a new announcement repository
func NewAnnouncementRepository(db *gorm.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// Create inserts an announcement
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *domain.Announcement) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Create(announcement).Error
}

// Update saves an announcement
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *domain.Announcement) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Save(announcement).Error
}

// Delete removes an announcement
func (r *AnnouncementRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Announcement{}, id).Error
}

// GetByID loads an announcement without audience rules
func (r *AnnouncementRepository) GetByID(ctx context.Context, id uint) (*domain.Announcement, error) {
	var announcement domain.Announcement
	err := r.db.WithContext(ctx).Preload("CreatedBy").Where("id = ?", id).First(&announcement).Error
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

// ListVisible returns the unexpired announcements addressed to the actor in
// ctx, newest first. Expiry applies to every role; admin roles skip audience
// matching only.
func (r *AnnouncementRepository) ListVisible(ctx context.Context, now time.Time) ([]domain.Announcement, error) {
	query := r.db.WithContext(ctx).Model(&domain.Announcement{}).
		Where("(expires_at IS NULL OR expires_at >= ?)", now.UTC())

	actor, ok := auth.FromContext(ctx)
	switch {
	case !ok:
		query = query.Where("1 = 0")
	case !actor.IsAdmin():
		query = query.Where(audienceClause(r.db, actor))
	}

	var announcements []domain.Announcement
	err := query.Preload("CreatedBy").Order("created_at DESC, id DESC").Find(&announcements).Error
	return announcements, err
}

// audienceClause builds the closed disjunction of audiences matching actor
func audienceClause(db *gorm.DB, actor *auth.Actor) *gorm.DB {
	clause := db.Where("audience_type = ?", domain.AudienceAll).
		Or("(audience_type = ? AND audience_id = ?)", domain.AudienceRole, string(actor.Role)).
		Or("(audience_type = ? AND audience_id = ?)", domain.AudienceUser, strconv.FormatUint(uint64(actor.ID), 10))
	if actor.TeamID != nil {
		clause = clause.Or("(audience_type = ? AND audience_id = ?)", domain.AudienceTeam, strconv.FormatUint(uint64(*actor.TeamID), 10))
	}
	return clause
}
