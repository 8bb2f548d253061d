package dao

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/model"
	"gorm.io/gorm"
)

// RunnerDao owns the runners table — registration and heartbeat liveness
// (spec §4.3 heartbeat paragraph, §6).
type RunnerDao interface {
	Upsert(ctx context.Context, r *model.Runner) error
	GetByID(ctx context.Context, id string) (*model.Runner, error)
	ListByCapability(ctx context.Context, capability string) ([]*model.Runner, error)
	Heartbeat(ctx context.Context, id string, inFlight int) error
	// MarkStaleUnavailable flips any runner whose last heartbeat is older
	// than cutoff to unavailable, so dispatch stops routing to it.
	MarkStaleUnavailable(ctx context.Context, cutoff time.Time) error
	IncrInFlight(ctx context.Context, id string, delta int) error
}

type runnerDAO struct{}

// NewRunnerDao constructs the default GORM-backed RunnerDao.
func NewRunnerDao() RunnerDao {
	return &runnerDAO{}
}

func (d *runnerDAO) Upsert(ctx context.Context, r *model.Runner) error {
	var existing model.Runner
	err := db.WithContext(ctx).Where("name = ?", r.Name).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.WithContext(ctx).Create(r).Error
	case err != nil:
		return err
	default:
		r.ID = existing.ID
		return db.WithContext(ctx).Model(&model.Runner{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"capabilities":        r.Capabilities,
			"max_concurrent_jobs": r.MaxConcurrentJobs,
			"status":              r.Status,
			"last_heartbeat":      time.Now(),
		}).Error
	}
}

func (d *runnerDAO) GetByID(ctx context.Context, id string) (*model.Runner, error) {
	var r model.Runner
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NewErrNo(common.RunnerNotFound)
		}
		return nil, err
	}
	return &r, nil
}

func (d *runnerDAO) ListByCapability(ctx context.Context, capability string) ([]*model.Runner, error) {
	var runners []*model.Runner
	err := db.WithContext(ctx).
		Where("status = ?", model.RunnerStatusActive).
		Find(&runners).Error
	if err != nil {
		return nil, err
	}
	filtered := make([]*model.Runner, 0, len(runners))
	for _, r := range runners {
		if r.HasCapability(capability) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (d *runnerDAO) Heartbeat(ctx context.Context, id string, inFlight int) error {
	return db.WithContext(ctx).Model(&model.Runner{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_heartbeat": time.Now(), "in_flight_count": inFlight}).Error
}

func (d *runnerDAO) MarkStaleUnavailable(ctx context.Context, cutoff time.Time) error {
	return db.WithContext(ctx).Model(&model.Runner{}).
		Where("last_heartbeat < ? AND status = ?", cutoff, model.RunnerStatusActive).
		Update("status", model.RunnerStatusUnavailable).Error
}

func (d *runnerDAO) IncrInFlight(ctx context.Context, id string, delta int) error {
	return db.WithContext(ctx).Model(&model.Runner{}).
		Where("id = ?", id).
		Update("in_flight_count", gorm.Expr("in_flight_count + ?", delta)).Error
}
