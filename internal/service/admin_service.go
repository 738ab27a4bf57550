package service

import (
	"context"
	"sync"
	"time"

	"chatpush/internal/constants"
	"chatpush/internal/metrics"
	"chatpush/internal/models"
	"chatpush/internal/privacy"
	"chatpush/internal/tracing"
	"chatpush/internal/validation"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// MessageStore is the chat messages table
type MessageStore interface {
	DeleteRecentMessages(ctx context.Context, filter models.PurgeFilter) (int64, error)
	DeleteMessagesByID(ctx context.Context, ids []string) ([]string, error)
}

// AdminService performs the administrative deletions
type AdminService interface {
	PurgeRecent(ctx context.Context, sinceMinutes int) (*models.PurgeResult, error)
	DeleteByIDs(ctx context.Context, ids []string) (*models.DeleteResult, error)
	UpdatePolicy(policy models.PurgeConfig)
}

type adminService struct {
	store   MessageStore
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.RWMutex
	policy models.PurgeConfig
}

// NewAdminService creates the admin service over store
func NewAdminService(store MessageStore, policy models.PurgeConfig, logger *logrus.Logger) AdminService {
	return &adminService{
		store:   store,
		logger:  logger,
		metrics: metrics.Default(),
		now:     time.Now,
		policy:  normalizePolicy(policy),
	}
}

func normalizePolicy(p models.PurgeConfig) models.PurgeConfig {
	if p.Location == "" {
		p.Location = constants.DefaultPurgeLocation
	}
	if len(p.UserIDs) == 0 {
		p.UserIDs = append([]string(nil), constants.DefaultPurgeUserIDs...)
	}
	if p.DefaultSinceMinutes <= 0 {
		p.DefaultSinceMinutes = constants.DefaultPurgeSinceMinutes
	}
	return p
}

// UpdatePolicy swaps the purge filter, used on configuration reload
func (s *adminService) UpdatePolicy(policy models.PurgeConfig) {
	normalized := normalizePolicy(policy)

	s.mu.Lock()
	s.policy = normalized
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		LogFieldLocation:     normalized.Location,
		LogFieldCount:        len(normalized.UserIDs),
		LogFieldSinceMinutes: normalized.DefaultSinceMinutes,
	}).Info("Purge policy updated")
}

func (s *adminService) currentPolicy() models.PurgeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// PurgeRecent deletes the configured users' messages at the configured
// location created within the last sinceMinutes. Non-positive values use
// the policy default; longer windows are clamped to MaxPurgeSinceMinutes.
func (s *adminService) PurgeRecent(ctx context.Context, sinceMinutes int) (*models.PurgeResult, error) {
	policy := s.currentPolicy()
	if sinceMinutes <= 0 {
		sinceMinutes = policy.DefaultSinceMinutes
	}
	if sinceMinutes > constants.MaxPurgeSinceMinutes {
		sinceMinutes = constants.MaxPurgeSinceMinutes
	}

	ctx, span := tracing.StartSpan(ctx, "admin.purge_recent", attribute.Int("purge.since_minutes", sinceMinutes))
	defer span.End()

	filter := models.PurgeFilter{
		Location: policy.Location,
		UserIDs:  policy.UserIDs,
		Since:    s.now().Add(-time.Duration(sinceMinutes) * time.Minute),
	}

	deleted, err := s.store.DeleteRecentMessages(ctx, filter)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}

	s.metrics.MessagesDeleted("purge_recent", deleted)
	s.logger.WithFields(logrus.Fields{
		LogFieldOperation:    "purge_recent",
		LogFieldLocation:     filter.Location,
		LogFieldUserID:       privacy.MaskUserIDs(filter.UserIDs),
		LogFieldSinceMinutes: sinceMinutes,
		LogFieldCount:        deleted,
	}).Info("Recent messages purged")

	return &models.PurgeResult{
		Version:      constants.AdminResponseVersion,
		Success:      true,
		SinceMinutes: sinceMinutes,
	}, nil
}

// DeleteByIDs deletes exactly the given messages
func (s *adminService) DeleteByIDs(ctx context.Context, ids []string) (*models.DeleteResult, error) {
	if err := validation.ValidateMessageIDs(ids); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "admin.delete_by_id", attribute.Int("delete.requested", len(ids)))
	defer span.End()

	deleted, err := s.store.DeleteMessagesByID(ctx, ids)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	if deleted == nil {
		deleted = []string{}
	}

	s.metrics.MessagesDeleted("by_id", int64(len(deleted)))
	s.logger.WithFields(logrus.Fields{
		LogFieldOperation: "delete_by_id",
		LogFieldMessageID: SanitizeMessageIDs(ctx, deleted),
		LogFieldCount:     len(deleted),
		"requested":       len(ids),
	}).Info("Messages deleted")

	return &models.DeleteResult{Deleted: len(deleted), IDs: deleted}, nil
}
