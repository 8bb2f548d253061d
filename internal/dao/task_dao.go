package dao

import (
	"context"
	"errors"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/gorm"
)

// TaskDao is the orchestrator's writer interface onto the tasks table. The
// runner never writes the table directly; the orchestrator applies task
// transitions it receives off the result stream (spec §4.1 ownership rule).
type TaskDao interface {
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Task, error)
	ListNonTerminalByJob(ctx context.Context, jobID string) ([]*model.Task, error)
	// ApplyTerminal transitions a task to a terminal status exactly once
	// per (task_id, attempt) — later duplicates are silently accepted as
	// no-ops (spec §4.2, §7).
	ApplyTerminal(ctx context.Context, taskID string, attempt int, mutate func(t *model.Task) error) (applied bool, err error)
	MarkRunning(ctx context.Context, taskID string, attempt int) error
	CountByJobAndStatus(ctx context.Context, jobID string) (model.Counters, error)
}

type taskDAO struct{}

// NewTaskDao constructs the default GORM-backed TaskDao.
func NewTaskDao() TaskDao {
	return &taskDAO{}
}

func (d *taskDAO) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.TaskNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func (d *taskDAO) ListByJob(ctx context.Context, jobID string) ([]*model.Task, error) {
	var tasks []*model.Task
	err := db.WithContext(ctx).Where("job_id = ?", jobID).Find(&tasks).Error
	return tasks, err
}

func (d *taskDAO) ListNonTerminalByJob(ctx context.Context, jobID string) ([]*model.Task, error) {
	var tasks []*model.Task
	err := db.WithContext(ctx).
		Where("job_id = ? AND status IN ?", jobID, []model.TaskStatus{model.TaskStatusPending, model.TaskStatusRunning}).
		Find(&tasks).Error
	return tasks, err
}

// ApplyTerminal deduplicates by (task_id, attempt): it consults
// last_applied_attempts and only mutates the task row (and bumps the
// dedup marker) the first time a given attempt's terminal result arrives,
// per the broker's at-least-once delivery contract (spec §4.2, §8).
func (d *taskDAO) ApplyTerminal(ctx context.Context, taskID string, attempt int, mutate func(t *model.Task) error) (bool, error) {
	var applied bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Task
		if err := tx.Where("id = ?", taskID).Take(&t).Error; err != nil {
			return err
		}
		if t.Status.IsTerminal() {
			// Terminal tasks are never reopened (spec §3 invariant).
			return nil
		}

		var marker model.LastAppliedAttempt
		err := tx.Where("task_id = ?", taskID).Take(&marker).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			marker = model.LastAppliedAttempt{TaskID: taskID, Attempt: 0}
		case err != nil:
			return err
		}
		if attempt <= marker.Attempt {
			// Redelivered duplicate of an already-applied attempt.
			return nil
		}

		if err := mutate(&t); err != nil {
			return err
		}
		t.Attempt = attempt
		if err := tx.Save(&t).Error; err != nil {
			return err
		}

		marker.Attempt = attempt
		if err := tx.Save(&marker).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (d *taskDAO) MarkRunning(ctx context.Context, taskID string, attempt int) error {
	return db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ?", taskID, model.TaskStatusPending).
		Updates(map[string]any{"status": model.TaskStatusRunning, "attempt": attempt}).Error
}

func (d *taskDAO) CountByJobAndStatus(ctx context.Context, jobID string) (model.Counters, error) {
	var c model.Counters
	rows, err := db.WithContext(ctx).
		Model(&model.Task{}).
		Select("status, count(*) as n").
		Where("job_id = ?", jobID).
		Group("status").
		Rows()
	if err != nil {
		return c, err
	}
	defer rows.Close()
	for rows.Next() {
		var status model.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return c, err
		}
		c.Total += n
		switch status {
		case model.TaskStatusSucceeded:
			c.Succeeded = n
		case model.TaskStatusFailed:
			c.Failed = n
		case model.TaskStatusTimeout:
			c.Timeout = n
		case model.TaskStatusCancelled:
			c.Cancelled = n
		case model.TaskStatusRunning:
			c.Running = n
		case model.TaskStatusPending:
			c.Pending = n
		}
	}
	return c, nil
}
