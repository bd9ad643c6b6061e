package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/internal/service"
)

// EntityPurgeJob hard-deletes rows that were soft-deleted longer ago
// than the retention window. Saved views are never expired.
type EntityPurgeJob struct {
	entities      *service.EntityService
	retentionDays int
}

func NewEntityPurgeJob(entities *service.EntityService, retentionDays int) *EntityPurgeJob {
	return &EntityPurgeJob{entities: entities, retentionDays: retentionDays}
}

func (j *EntityPurgeJob) Name() string {
	return "entity_purge"
}

func (j *EntityPurgeJob) Run(ctx context.Context) error {
	if j.entities == nil {
		return nil
	}
	days := j.retentionDays
	if days <= 0 {
		days = 30
	}
	purged, err := j.entities.PurgeDeleted(ctx, days)
	if err != nil {
		return err
	}
	if purged > 0 {
		logutil.GetLogger(ctx).Info("purged soft-deleted rows", zap.Int64("count", purged))
	}
	return nil
}
