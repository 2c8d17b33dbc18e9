package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-bm/meridian-bm/internal/orders"
)

const defaultTrashRetentionDays = 30

// PurgeTrashJob hard-deletes orders that have sat in the trash past the
// retention window, releasing any stock they still hold.
type PurgeTrashJob struct {
	service *orders.Service
	logger  *slog.Logger
}

// NewPurgeTrashJob constructs the purge job.
func NewPurgeTrashJob(service *orders.Service, logger *slog.Logger) *PurgeTrashJob {
	return &PurgeTrashJob{service: service, logger: logger}
}

// Handle processes TaskTypePurgeTrash tasks.
func (j *PurgeTrashJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PurgeTrashPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	days := payload.RetentionDays
	if days <= 0 {
		days = defaultTrashRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	purged, err := j.service.PurgeTrash(ctx, cutoff)
	if err != nil {
		j.logger.Error("purge trash", slog.Any("error", err), slog.Int("purged", purged))
		return err
	}
	if purged > 0 {
		j.logger.Info("purged trashed orders", slog.Int("count", purged))
	}
	return nil
}
