package tasks

import (
	"context"
	"log/slog"

	"github.com/nkosyan/dealradar/app/history"
)

// pairLimit bounds how many (product, retailer) series one run touches.
const pairLimit = 500

// BackfillTask synthesizes history for price series that have none yet.
type BackfillTask struct {
	Task
	backfiller *history.Backfiller
}

func NewBackfillTask(backfiller *history.Backfiller) *BackfillTask {
	return &BackfillTask{
		Task:       NewTask(TaskTypeBackfill, "Price History Backfill"),
		backfiller: backfiller,
	}
}

func (t *BackfillTask) Execute(ctx context.Context) (map[string]interface{}, error) {
	result, err := t.backfiller.Run(ctx, pairLimit)
	if err != nil {
		return nil, err
	}

	slog.Info("Task completed", "type", string(t.Type),
		"pairs_processed", result.PairsProcessed,
		"pairs_skipped", result.PairsSkipped,
		"points_written", result.PointsWritten,
		"duration", t.GetDuration())

	return map[string]interface{}{
		"pairs_processed": result.PairsProcessed,
		"pairs_skipped":   result.PairsSkipped,
		"points_written":  result.PointsWritten,
		"batches_failed":  result.BatchesFailed,
	}, nil
}
