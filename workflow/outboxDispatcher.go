package workflow

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishFunc sends one tariff event and returns the broker message id.
type PublishFunc func(ctx context.Context, msg config.TariffEventMessage) (string, error)

// OutboxDispatcher publishes committed TariffEventRecord rows to Pub/Sub.
// Several dispatchers may run against the same table; rows are claimed with SKIP LOCKED.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string
	Publish      PublishFunc

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewOutboxDispatcher reads overrides from env:
// - OUTBOX_BATCH_SIZE (default 50)
// - OUTBOX_MAX_ATTEMPTS (default 20)
// - OUTBOX_BASE_BACKOFF_SECONDS (default 5)
// - OUTBOX_MAX_BACKOFF_SECONDS (default 600)
func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		Publish:        config.PublishTariffEvent,
		BatchSize:      positiveIntFromEnv("OUTBOX_BATCH_SIZE", 50),
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    positiveIntFromEnv("OUTBOX_MAX_ATTEMPTS", 20),
		InitialBackoff: time.Duration(positiveIntFromEnv("OUTBOX_BASE_BACKOFF_SECONDS", 5)) * time.Second,
		MaxBackoff:     time.Duration(positiveIntFromEnv("OUTBOX_MAX_BACKOFF_SECONDS", 600)) * time.Second,
	}
}

func positiveIntFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch and publishes it. It returns how many rows were sent.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) int {
	now := time.Now().UTC()
	staleBefore := now.Add(-d.LockTimeout)
	db := d.DB
	if db == nil {
		return 0
	}

	var claimed []models.TariffEventRecord
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Eligible:
		// - PENDING / FAILED and ready to retry
		// - PROCESSING but lock is stale (dispatcher crashed mid-batch), reclaim after LockTimeout
		q := tx.
			Where(`
				(
					publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
				)
				OR
				(
					publish_status = ? AND locked_at IS NOT NULL AND locked_at <= ?
				)
			`, []string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now, models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		if err := q.Find(&claimed).Error; err != nil {
			return err
		}
		for i := range claimed {
			// poison messages go terminal
			if d.MaxAttempts > 0 && claimed[i].PublishAttempts >= d.MaxAttempts {
				msg := fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts)
				claimed[i].PublishStatus = models.OutboxPublishStatusDead
				if err := tx.Model(&models.TariffEventRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
					"publish_status":     models.OutboxPublishStatusDead,
					"last_publish_error": &msg,
					"next_attempt_at":    nil,
					"locked_at":          nil,
					"locked_by":          nil,
				}).Error; err != nil {
					return err
				}
				continue
			}

			claimed[i].PublishStatus = models.OutboxPublishStatusProcessing
			claimed[i].LockedAt = &now
			claimed[i].LockedBy = &d.DispatcherID
			claimed[i].PublishAttempts = claimed[i].PublishAttempts + 1
			if err := tx.Model(&models.TariffEventRecord{}).Where("id = ?", claimed[i].ID).Updates(map[string]interface{}{
				"publish_status":     claimed[i].PublishStatus,
				"locked_at":          claimed[i].LockedAt,
				"locked_by":          claimed[i].LockedBy,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if d.Logger != nil {
			config.LogError(d.Logger, "OutboxDispatcher", "DispatchOnce", "claim", d.DispatcherID, err)
		}
		return 0
	}

	sent := 0
	for _, rec := range claimed {
		if rec.PublishStatus == models.OutboxPublishStatusDead {
			continue
		}
		msg := models.ConvertToTariffEventMessage(rec)
		pubID, pubErr := d.Publish(ctx, msg)
		if pubErr != nil {
			d.markPublishFailed(ctx, rec, pubErr)
			continue
		}
		d.markPublishSent(ctx, rec.ID, pubID, now)
		sent++
	}
	return sent
}

func (d *OutboxDispatcher) markPublishSent(ctx context.Context, recordID int, pubsubMsgID string, now time.Time) {
	id := pubsubMsgID
	_ = d.DB.WithContext(ctx).Model(&models.TariffEventRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusSent,
			"published_at":       &now,
			"pub_sub_message_id": &id,
			"locked_at":          nil,
			"locked_by":          nil,
			"next_attempt_at":    nil,
		}).Error
}

// backoff doubles per attempt from InitialBackoff, capped at MaxBackoff.
func (d *OutboxDispatcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		return d.InitialBackoff
	}
	delay := time.Duration(float64(d.InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if d.MaxBackoff > 0 && delay > d.MaxBackoff {
		return d.MaxBackoff
	}
	return delay
}

func (d *OutboxDispatcher) markPublishFailed(ctx context.Context, rec models.TariffEventRecord, err error) {
	db := d.DB.WithContext(ctx)
	now := time.Now().UTC()
	msg := err.Error()
	attempt := rec.PublishAttempts

	fields := logrus.Fields{
		"field":          "OutboxDispatcher",
		"utility_id":     rec.UtilityId,
		"record_id":      rec.ID,
		"reference_type": rec.ReferenceType,
		"attempt":        attempt,
		"correlation_id": rec.CorrelationId,
	}

	if d.MaxAttempts > 0 && attempt >= d.MaxAttempts {
		_ = db.Model(&models.TariffEventRecord{}).
			Where("id = ?", rec.ID).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusDead,
				"last_publish_error": &msg,
				"next_attempt_at":    nil,
				"locked_at":          nil,
				"locked_by":          nil,
			}).Error
		if d.Logger != nil {
			d.Logger.WithFields(fields).Error("outbox publish moved to DEAD after max attempts: " + msg)
		}
		return
	}

	next := now.Add(d.backoff(attempt))
	_ = db.Model(&models.TariffEventRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"last_publish_error": &msg,
			"next_attempt_at":    &next,
			"locked_at":          nil,
			"locked_by":          nil,
		}).Error
	if d.Logger != nil {
		fields["next_attempt_at"] = next.Format(time.RFC3339Nano)
		d.Logger.WithFields(fields).Error("outbox publish failed: " + msg)
	}
}

// RequeueDead puts DEAD rows back to PENDING with a fresh attempt budget.
// An empty utilityId requeues every utility.
func RequeueDead(ctx context.Context, db *gorm.DB, utilityId string) (int64, error) {
	q := db.WithContext(ctx).Model(&models.TariffEventRecord{}).
		Where("publish_status = ?", models.OutboxPublishStatusDead)
	if utilityId != "" {
		q = q.Where("utility_id = ?", utilityId)
	}
	result := q.Updates(map[string]interface{}{
		"publish_status":   models.OutboxPublishStatusPending,
		"publish_attempts": 0,
		"next_attempt_at":  nil,
	})
	return result.RowsAffected, result.Error
}
