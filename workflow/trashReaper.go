package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	trashReaperLockType = "lock"
	trashReaperLockKey  = "trash-reaper"
)

// TrashReaper periodically hard deletes trash older than the retention
// window. Instances coordinate through a redis lock so one sweep runs at a time.
type TrashReaper struct {
	Logger *logrus.Logger
	Tracer trace.Tracer

	Interval  time.Duration
	Retention time.Duration
	LockTTL   time.Duration
	Now       func() time.Time
}

func NewTrashReaper(logger *logrus.Logger, settings *config.Settings) *TrashReaper {
	interval := settings.TrashSweepInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &TrashReaper{
		Logger:    logger,
		Tracer:    otel.Tracer("inventory-trash-reaper"),
		Interval:  interval,
		Retention: settings.TrashRetention(),
		LockTTL:   5 * time.Minute,
		Now:       time.Now,
	}
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (r *TrashReaper) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if _, err := r.SweepOnce(ctx); err != nil {
			config.LogError(r.Logger, "trashReaper.go", "Run", "sweep failed", r.Retention.String(), err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.Interval):
		}
	}
}

// SweepOnce returns a nil result without error when another instance holds
// the reaper lock.
func (r *TrashReaper) SweepOnce(ctx context.Context) (*models.SweepResult, error) {
	if r.Tracer != nil {
		var span trace.Span
		ctx, span = r.Tracer.Start(ctx, "TrashReaper.SweepOnce")
		defer span.End()
	}

	lock, err := utils.ObtainLock(ctx, trashReaperLockType, trashReaperLockKey, r.LockTTL, "trashReaper.go", "SweepOnce")
	if errors.Is(err, utils.ErrLockNotObtained) {
		r.Logger.WithFields(logrus.Fields{"field": "trashReaper"}).Debug("sweep skipped: lock held by another instance")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer utils.ReleaseLock(ctx, lock, "trashReaper.go", "SweepOnce")

	now := r.Now().UTC()
	result, err := models.SweepExpiredTrash(ctx, now, r.Retention)

	fields := logrus.Fields{"field": "trashReaper", "cutoff": now.Add(-r.Retention).Format(time.RFC3339)}
	total := 0
	for kind, n := range result.Deleted {
		fields["deleted_"+string(kind)] = n
		total += n
	}
	for kind, n := range result.Skipped {
		if n > 0 {
			fields["skipped_"+string(kind)] = n
		}
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("trash.deleted", total))
	}
	if total > 0 {
		r.Logger.WithFields(fields).Info("trash sweep finished")
	}
	return result, err
}
