package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nkosyan/dealradar/app/database"
)

// ErrRunActive is returned when a trigger arrives while a run is underway.
var ErrRunActive = errors.New("a scheduler run is already in progress")

// TaskResult is the per-task record stored in the run summary.
type TaskResult struct {
	Name            string                 `json:"name"`
	Type            string                 `json:"type"`
	Status          string                 `json:"status"` // completed, failed
	Critical        bool                   `json:"critical"`
	DurationSeconds float64                `json:"duration_seconds"`
	Error           string                 `json:"error,omitempty"`
	Result          map[string]interface{} `json:"result,omitempty"`
}

// Orchestrator executes the declared task list sequentially and records a
// scheduler run for every pass. The loop is fail-forward: a task failure is
// recorded and the next task still runs, because partial freshness beats
// none. Critical tasks always run before optional ones.
type Orchestrator struct {
	runRepo        database.RunRepository
	defs           []Definition
	interTaskDelay time.Duration
	taskTimeout    time.Duration

	mu     sync.Mutex
	active bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(runRepo database.RunRepository, defs []Definition,
	interTaskDelay, taskTimeout time.Duration) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	ordered := make([]Definition, len(defs))
	copy(ordered, defs)
	// critical before optional, then declared priority
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].Critical != ordered[b].Critical {
			return ordered[a].Critical
		}
		return ordered[a].Priority < ordered[b].Priority
	})

	return &Orchestrator{
		runRepo:        runRepo,
		defs:           ordered,
		interTaskDelay: interTaskDelay,
		taskTimeout:    taskTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start launches the periodic run loop. interval 0 disables automatic runs;
// manual triggers still work.
func (o *Orchestrator) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-o.ctx.Done():
				return
			case <-ticker.C:
				if _, err := o.TriggerRun(o.ctx, "scheduled"); err != nil {
					slog.Warn("Scheduled run skipped", "error", err)
				}
			}
		}
	}()
}

func (o *Orchestrator) Stop() {
	o.cancel()
	o.wg.Wait()
}

// TriggerRun starts a run if none is active. It creates the run record
// synchronously (so the caller gets a real id) and executes the task loop
// in the background. Returns ErrRunActive when a run is in flight.
func (o *Orchestrator) TriggerRun(ctx context.Context, runType string) (string, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return "", ErrRunActive
	}

	// also fence against runs started by another process
	if activeID, err := o.runRepo.GetActiveRunID(ctx); err != nil {
		o.mu.Unlock()
		return "", err
	} else if activeID != "" {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrRunActive, activeID)
	}

	runID, err := o.runRepo.CreateRun(ctx, runType)
	if err != nil {
		o.mu.Unlock()
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	o.active = true
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			o.active = false
			o.mu.Unlock()
		}()

		o.execute(o.ctx, runID)
	}()

	return runID, nil
}

// RunOnce executes a full run synchronously. Used by tests and one-shot
// invocations.
func (o *Orchestrator) RunOnce(ctx context.Context, runType string) (string, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return "", ErrRunActive
	}

	runID, err := o.runRepo.CreateRun(ctx, runType)
	if err != nil {
		o.mu.Unlock()
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	o.active = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
	}()

	o.execute(ctx, runID)
	return runID, nil
}

// execute drives the task loop and always leaves the run in a terminal
// state, even when the loop itself blows up.
func (o *Orchestrator) execute(ctx context.Context, runID string) {
	started := time.Now()

	var (
		results           []TaskResult
		tasksFailed       int
		criticalTotal     int
		criticalSucceeded int
	)

	finish := func(status, errorDetails string) {
		elapsed := time.Since(started).Seconds()
		summary := map[string]interface{}{
			"task_results":    results,
			"overall_success": criticalTotal > 0 && criticalSucceeded == criticalTotal,
		}
		if len(results) > 0 {
			summary["success_rate"] = round1(float64(len(results)-tasksFailed) / float64(len(results)) * 100)
		}

		finishCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.runRepo.FinishRun(finishCtx, runID, status, len(results)-tasksFailed, tasksFailed,
			round1(elapsed), summary, errorDetails); err != nil {
			slog.Error("Failed to record run completion", "run_id", runID, "status", status, "error", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Run aborted by panic", "run_id", runID, "panic", r)
			finish("failed", fmt.Sprintf("panic: %v", r))
		}
	}()

	slog.Info("Scheduler run started", "run_id", runID, "tasks", len(o.defs))

	for i, def := range o.defs {
		if def.Critical {
			criticalTotal++
		}

		result := o.runTask(ctx, def)
		results = append(results, result)

		if result.Status == "failed" {
			tasksFailed++
		} else if def.Critical {
			criticalSucceeded++
		}

		// throttle back-to-back store access
		if o.interTaskDelay > 0 && i < len(o.defs)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(o.interTaskDelay):
			}
		}
	}

	status := "completed"
	if tasksFailed > 0 {
		status = "completed_with_errors"
	}

	slog.Info("Scheduler run finished", "run_id", runID, "status", status,
		"tasks_completed", len(results)-tasksFailed, "tasks_failed", tasksFailed,
		"duration", time.Since(started))

	finish(status, "")
}

// runTask wraps one task invocation with a timeout and converts any
// outcome, including a panic, into a TaskResult.
func (o *Orchestrator) runTask(ctx context.Context, def Definition) (result TaskResult) {
	task := def.Task
	task.Start()

	result = TaskResult{
		Name:     task.GetName(),
		Type:     string(task.GetType()),
		Critical: def.Critical,
	}

	defer func() {
		result.DurationSeconds = round1(task.GetDuration().Seconds())
		if r := recover(); r != nil {
			result.Status = "failed"
			result.Error = fmt.Sprintf("panic: %v", r)
			slog.Error("Task panicked", "task", task.GetName(), "panic", r)
		}
	}()

	taskCtx := ctx
	if o.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, o.taskTimeout)
		defer cancel()
	}

	slog.Info("Task starting", "task", task.GetName(), "type", string(task.GetType()), "critical", def.Critical)

	summary, err := task.Execute(taskCtx)
	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		slog.Error("Task failed", "task", task.GetName(), "error", err, "duration", task.GetDuration())
		return result
	}

	result.Status = "completed"
	result.Result = summary
	return result
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
