package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/nkosyan/dealradar/app/database"
)

// PruneTask removes price history beyond the retention window.
type PruneTask struct {
	Task
	priceRepo     database.PriceRepository
	retentionDays int
}

func NewPruneTask(priceRepo database.PriceRepository, retentionDays int) *PruneTask {
	return &PruneTask{
		Task:          NewTask(TaskTypePrune, "Price History Pruning"),
		priceRepo:     priceRepo,
		retentionDays: retentionDays,
	}
}

func (t *PruneTask) Execute(ctx context.Context) (map[string]interface{}, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -t.retentionDays)

	removed, err := t.priceRepo.PruneHistory(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	slog.Info("Task completed", "type", string(t.Type),
		"entries_removed", removed,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration", t.GetDuration())

	return map[string]interface{}{
		"entries_removed": removed,
		"retention_days":  t.retentionDays,
	}, nil
}
