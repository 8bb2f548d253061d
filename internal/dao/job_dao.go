package dao

import (
	"context"
	"errors"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/gorm"
)

// JobDao is the orchestrator's sole writer interface onto the jobs table.
type JobDao interface {
	// CreateWithTasks inserts the job row and every task row in one
	// transaction (spec §4.1 — atomic fan-out, partial fan-out never
	// observable).
	CreateWithTasks(ctx context.Context, job *model.Job, tasks []*model.Task) error
	GetByID(ctx context.Context, id string) (*model.Job, error)
	GetByIdempotencyKey(ctx context.Context, creator, key string) (*model.Job, error)
	// ApplyCounters performs the optimistic-lock counter update guarded by
	// Version (spec §4.1, §5, §9).
	ApplyCounters(ctx context.Context, jobID string, mutate func(c *model.Job) error) error
	UpdateStatus(ctx context.Context, jobID string, status model.JobStatus) error
	MarkDispatchFailed(ctx context.Context, jobID string) error
	ClearDispatchFailed(ctx context.Context, jobID string) error
	ListNeedingRedispatch(ctx context.Context) ([]*model.Job, error)
	List(ctx context.Context, createdBy string, limit, offset int) ([]*model.Job, error)
}

type jobDAO struct{}

// NewJobDao constructs the default GORM-backed JobDao.
func NewJobDao() JobDao {
	return &jobDAO{}
}

func (d *jobDAO) CreateWithTasks(ctx context.Context, job *model.Job, tasks []*model.Task) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		for _, t := range tasks {
			t.JobID = job.ID
			if err := tx.Create(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *jobDAO) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.JobNotFound)
		}
		return nil, err
	}
	return &job, nil
}

func (d *jobDAO) GetByIdempotencyKey(ctx context.Context, creator, key string) (*model.Job, error) {
	if key == "" {
		return nil, nil
	}
	var job model.Job
	err := db.WithContext(ctx).
		Where("created_by = ? AND idempotency_key = ?", creator, key).
		Take(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ApplyCounters retries the mutate callback against a freshly-loaded row,
// under a WHERE version = ? guard, up to a bounded attempt count — the
// version+retry approach from spec §9, scaling with task fan-out instead of
// serializing on a pessimistic row lock.
func (d *jobDAO) ApplyCounters(ctx context.Context, jobID string, mutate func(c *model.Job) error) error {
	const maxAttempts = 5
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		var job model.Job
		if err := db.WithContext(ctx).Where("id = ?", jobID).Take(&job).Error; err != nil {
			return err
		}
		oldVersion := job.Version
		if err := mutate(&job); err != nil {
			return err
		}
		job.Version = oldVersion + 1

		result := db.WithContext(ctx).
			Model(&model.Job{}).
			Where("id = ? AND version = ?", jobID, oldVersion).
			Updates(map[string]any{
				"status":          job.Status,
				"succeeded_tasks": job.SucceededTasks,
				"failed_tasks":    job.FailedTasks,
				"timeout_tasks":   job.TimeoutTasks,
				"cancelled_tasks": job.CancelledTasks,
				"started_at":      job.StartedAt,
				"completed_at":    job.CompletedAt,
				"version":         job.Version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 1 {
			return nil
		}
		lastErr = errors.New("optimistic lock conflict on job counters")
	}
	return lastErr
}

func (d *jobDAO) UpdateStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	return db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", jobID).
		Update("status", status).Error
}

func (d *jobDAO) MarkDispatchFailed(ctx context.Context, jobID string) error {
	return db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", jobID).
		Update("needs_redispatch", true).Error
}

func (d *jobDAO) ClearDispatchFailed(ctx context.Context, jobID string) error {
	return db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", jobID).
		Update("needs_redispatch", false).Error
}

func (d *jobDAO) ListNeedingRedispatch(ctx context.Context) ([]*model.Job, error) {
	var jobs []*model.Job
	err := db.WithContext(ctx).
		Where("needs_redispatch = ? OR status = ?", true, model.JobStatusPending).
		Find(&jobs).Error
	return jobs, err
}

func (d *jobDAO) List(ctx context.Context, createdBy string, limit, offset int) ([]*model.Job, error) {
	var jobs []*model.Job
	q := db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if createdBy != "" {
		q = q.Where("created_by = ?", createdBy)
	}
	err := q.Find(&jobs).Error
	return jobs, err
}
