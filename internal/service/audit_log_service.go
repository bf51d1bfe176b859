package service

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/edutour/sales-crm/internal/auth"
	"github.com/edutour/sales-crm/internal/domain"
	"github.com/edutour/sales-crm/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action     domain.AuditAction
	EntityType string
	EntityID   uint
	OldValues  interface{}
	NewValues  interface{}
}

// Log appends an audit entry for the actor in ctx. A failed write is logged
// and otherwise ignored; auditing never fails the operation it describes.
func (s *AuditLogService) Log(ctx context.Context, entry LogEntry) {
	actor, ok := auth.FromContext(ctx)
	if !ok {
		s.logger.Warn("audit entry without actor dropped",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Uint("entity_id", entry.EntityID),
		)
		return
	}

	changes, err := json.Marshal(buildChanges(entry.OldValues, entry.NewValues))
	if err != nil {
		s.logger.Warn("failed to serialize audit changes", zap.Error(err))
		changes = []byte("null")
	}

	log := &domain.AuditLog{
		UserID:     actor.ID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Changes:    datatypes.JSON(changes),
	}
	if err := s.auditRepo.Create(ctx, log); err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Uint("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// LogCreate logs a create operation
func (s *AuditLogService) LogCreate(ctx context.Context, entityType string, entityID uint, newValues interface{}) {
	s.Log(ctx, LogEntry{Action: domain.AuditActionCreate, EntityType: entityType, EntityID: entityID, NewValues: newValues})
}

// LogUpdate logs an update operation
func (s *AuditLogService) LogUpdate(ctx context.Context, entityType string, entityID uint, oldValues, newValues interface{}) {
	s.Log(ctx, LogEntry{Action: domain.AuditActionUpdate, EntityType: entityType, EntityID: entityID, OldValues: oldValues, NewValues: newValues})
}

// LogDelete logs a delete operation
func (s *AuditLogService) LogDelete(ctx context.Context, entityType string, entityID uint, oldValues interface{}) {
	s.Log(ctx, LogEntry{Action: domain.AuditActionDelete, EntityType: entityType, EntityID: entityID, OldValues: oldValues})
}

// LogStatusChange logs a status transition
func (s *AuditLogService) LogStatusChange(ctx context.Context, entityType string, entityID uint, from, to string) {
	s.Log(ctx, LogEntry{
		Action:     domain.AuditActionStatusChange,
		EntityType: entityType,
		EntityID:   entityID,
		OldValues:  map[string]string{"status": from},
		NewValues:  map[string]string{"status": to},
	})
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	Filter repository.AuditLogFilter
	Page   repository.Page
}

// List returns audit logs. Only admin roles may read them; everyone else gets
// a permission error, never an empty page.
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams) ([]domain.AuditLog, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !actor.IsAdmin() {
		return nil, 0, ErrAuditPermission
	}
	return s.auditRepo.List(ctx, &params.Filter, params.Page)
}

// buildChanges shapes the changes payload: {"new": v} for creates,
// {"old": v} for deletes and {"field": {"old": a, "new": b}} for updates.
func buildChanges(oldValues, newValues interface{}) interface{} {
	switch {
	case oldValues == nil && newValues == nil:
		return nil
	case oldValues == nil:
		return map[string]interface{}{"new": newValues}
	case newValues == nil:
		return map[string]interface{}{"old": oldValues}
	}

	oldMap, okOld := toMap(oldValues)
	newMap, okNew := toMap(newValues)
	if !okOld || !okNew {
		return map[string]interface{}{"old": oldValues, "new": newValues}
	}

	diff := make(map[string]interface{})
	for key, newVal := range newMap {
		oldVal := oldMap[key]
		if !reflect.DeepEqual(oldVal, newVal) {
			diff[key] = map[string]interface{}{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldMap {
		if _, ok := newMap[key]; !ok {
			diff[key] = map[string]interface{}{"old": oldVal, "new": nil}
		}
	}
	return diff
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}
