package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeDiscovery   TaskType = "product_discovery"
	TaskTypeBackfill    TaskType = "history_backfill"
	TaskTypeDealRefresh TaskType = "deal_refresh"
	TaskTypePrune       TaskType = "history_prune"
)

// TaskInterface is one orchestrated pipeline stage. Execute returns a
// summary map that lands in the run record.
type TaskInterface interface {
	Execute(ctx context.Context) (map[string]interface{}, error)
	GetID() string
	GetName() string
	GetType() TaskType
	Start()
	GetDuration() time.Duration
}

// Task carries the identity and timing shared by all task implementations.
type Task struct {
	ID        string
	Type      TaskType
	Name      string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetName() string {
	return t.Name
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, name string) Task {
	return Task{
		ID:   uuid.NewString(),
		Type: taskType,
		Name: name,
	}
}

// Definition declares a task's place in the run: ascending priority within
// its criticality class, critical tasks always ahead of optional ones.
type Definition struct {
	Task     TaskInterface
	Priority int
	Critical bool
}
