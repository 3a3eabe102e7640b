package models

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outbox publish statuses for TariffEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

// TariffEventRecord is the transactional outbox row for a committed change.
// It is written inside the caller's transaction and published after commit by the dispatcher.
type TariffEventRecord struct {
	ID               int                 `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	UtilityId        string              `gorm:"size:64;not null;index" json:"utility_id"`
	OccurredAt       time.Time           `gorm:"index;not null" json:"occurred_at"`
	ReferenceId      int                 `gorm:"index" json:"reference_id"`
	ReferenceType    TariffReferenceType `gorm:"size:20;not null" json:"reference_type"`
	Action           TariffEventAction   `gorm:"size:2;not null" json:"action"`
	Payload          []byte              `gorm:"type:blob" json:"payload"`
	PublishStatus    string              `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time          `gorm:"index" json:"published_at"`
	PubSubMessageId  *string             `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int                 `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time          `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time          `gorm:"index" json:"locked_at"`
	LockedBy         *string             `gorm:"size:100" json:"locked_by"`
	LastPublishError *string             `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string              `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToTariffEventMessage(record TariffEventRecord) config.TariffEventMessage {
	return config.TariffEventMessage{
		ID:            record.ID,
		UtilityId:     record.UtilityId,
		OccurredAt:    record.OccurredAt,
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		Action:        string(record.Action),
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

// PublishTariffEvent writes the outbox row inside tx. Nothing is sent to Pub/Sub here.
func PublishTariffEvent(tx *gorm.DB, refId int, refType TariffReferenceType, action TariffEventAction, obj interface{}) error {
	ctx := tx.Statement.Context
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(obj)
	if err != nil {
		return err
	}

	record := TariffEventRecord{
		UtilityId:     utilityId,
		OccurredAt:    time.Now().UTC(),
		ReferenceId:   refId,
		ReferenceType: refType,
		Action:        action,
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationIdFromContextOrNew(ctx),
	}
	return tx.Session(&gorm.Session{NewDB: true}).Create(&record).Error
}

// GetTariffEvents lists the outbox rows of one record, newest first.
func GetTariffEvents(ctx context.Context, refType TariffReferenceType, refId int) ([]*TariffEventRecord, error) {
	utilityId, err := utils.RequireUtilityId(ctx)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*TariffEventRecord
	err = db.WithContext(ctx).
		Where("utility_id = ? AND reference_type = ? AND reference_id = ?", utilityId, refType, refId).
		Order("id DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
