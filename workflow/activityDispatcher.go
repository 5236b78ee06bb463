package workflow

import (
	"context"
	"sync"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/sirupsen/logrus"
)

const activityDispatchBatchSize = 100

// One dispatcher at a time per process is enough; concurrent posting
// goroutines just fold into the running drain.
var activityDispatchMu sync.Mutex

// DispatchPendingActivities drains the activity outbox: every unpublished row
// goes to Pub/Sub, successfully published rows are stamped. Failures leave the
// row unpublished for the next drain, so delivery is at-least-once.
func DispatchPendingActivities(ctx context.Context, logger *logrus.Logger) {
	if !activityDispatchMu.TryLock() {
		return
	}
	defer activityDispatchMu.Unlock()

	db := config.GetDB().WithContext(ctx)
	for {
		rows, err := models.UnpublishedActivities(db, activityDispatchBatchSize)
		if err != nil {
			config.LogError(logger, "activityDispatcher.go", "DispatchPendingActivities", "UnpublishedActivities", nil, err)
			return
		}
		if len(rows) == 0 {
			return
		}

		for _, row := range rows {
			msg := config.ActivityMessage{
				ID:            row.ID,
				CompanyId:     row.CompanyId,
				ActorId:       row.ActorId,
				OccurredAt:    row.CreatedAt,
				SubjectType:   row.SubjectType,
				SubjectId:     row.SubjectId,
				Action:        row.Action,
				OldObj:        row.OldObj,
				NewObj:        row.NewObj,
				CorrelationId: row.CorrelationId,
			}
			if _, err := config.PublishActivityWithResult(ctx, msg); err != nil {
				config.LogError(logger, "activityDispatcher.go", "DispatchPendingActivities", "PublishActivity", row.ID, err)
				return
			}
			if err := models.MarkActivityPublished(db, row.ID); err != nil {
				config.LogError(logger, "activityDispatcher.go", "DispatchPendingActivities", "MarkActivityPublished", row.ID, err)
				return
			}
		}

		if len(rows) < activityDispatchBatchSize {
			return
		}
	}
}
