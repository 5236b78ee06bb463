package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

// ActivityLog is the transactional outbox row for audit events. Rows are
// written inside the same transaction as the change they describe and
// published to Pub/Sub after commit.
type ActivityLog struct {
	ID            int        `gorm:"primary_key" json:"id"`
	CompanyId     int        `gorm:"index;not null" json:"company_id"`
	ActorId       int        `gorm:"index;not null" json:"actor_id"`
	SubjectType   string     `gorm:"index;size:50;not null" json:"subject_type"`
	SubjectId     int        `gorm:"index;not null" json:"subject_id"`
	Action        string     `gorm:"size:50;not null" json:"action"`
	OldObj        []byte     `gorm:"type:json" json:"old_obj"`
	NewObj        []byte     `gorm:"type:json" json:"new_obj"`
	CorrelationId string     `gorm:"index;size:36;not null" json:"correlation_id"`
	PublishedAt   *time.Time `gorm:"index" json:"published_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

const (
	ActivityActionCreated  = "created"
	ActivityActionUpdated  = "updated"
	ActivityActionCanceled = "canceled"
)

// RecordActivity appends an audit row inside the caller's transaction.
func RecordActivity(tx *gorm.DB, companyId int, actorId int, subjectType string, subjectId int, action string, oldObj any, newObj any) (*ActivityLog, error) {
	record := ActivityLog{
		CompanyId:     companyId,
		ActorId:       actorId,
		SubjectType:   subjectType,
		SubjectId:     subjectId,
		Action:        action,
		OldObj:        utils.MarshalOrNull(oldObj),
		NewObj:        utils.MarshalOrNull(newObj),
		CorrelationId: uuid.New().String(),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// UnpublishedActivities lists outbox rows still waiting for publication.
func UnpublishedActivities(tx *gorm.DB, limit int) ([]ActivityLog, error) {
	var rows []ActivityLog
	dbCtx := tx.Where("published_at IS NULL").Order("id ASC")
	if limit > 0 {
		dbCtx = dbCtx.Limit(limit)
	}
	if err := dbCtx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func MarkActivityPublished(tx *gorm.DB, id int) error {
	now := time.Now()
	return tx.Model(&ActivityLog{}).Where("id = ?", id).Update("published_at", &now).Error
}
