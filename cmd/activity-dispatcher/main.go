// activity-dispatcher drains the activity outbox on an interval. Posting
// already kicks a drain after each commit; this worker catches rows left
// behind by crashes or Pub/Sub outages.
//
// Usage:
//
//	PUBSUB_PROJECT_ID=... PUBSUB_ACTIVITY_TOPIC=... go run ./cmd/activity-dispatcher
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/workflow"
)

func dispatchInterval() time.Duration {
	if v := os.Getenv("ACTIVITY_DISPATCH_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 30 * time.Second
}

func main() {
	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(dispatchInterval())
	defer ticker.Stop()

	workflow.DispatchPendingActivities(ctx, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			workflow.DispatchPendingActivities(ctx, logger)
		}
	}
}
