package runnerregistry

import (
	"context"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
)

// Registry tracks which runners are live and which capabilities they
// advertise, for the orchestrator's routing decision at dispatch time
// (spec §4.3 heartbeat paragraph, §6).
type Registry struct {
	runnerDao dao.RunnerDao
	timeout   time.Duration
}

// NewRegistry constructs a Registry using the process-wide heartbeat
// timeout from configuration.
func NewRegistry() *Registry {
	return &Registry{runnerDao: dao.NewRunnerDao(), timeout: common.GetConfig().HeartbeatTimeout}
}

// Upsert registers or refreshes a runner's declared capabilities.
func (r *Registry) Upsert(ctx context.Context, runner *model.Runner) error {
	runner.LastHeartbeat = time.Now()
	runner.Status = model.RunnerStatusActive
	return r.runnerDao.Upsert(ctx, runner)
}

// Heartbeat records liveness and current load for an already-registered
// runner.
func (r *Registry) Heartbeat(ctx context.Context, runnerID string, inFlight int) error {
	return r.runnerDao.Heartbeat(ctx, runnerID, inFlight)
}

// AvailableFor lists active runners advertising capability, for use when
// deciding whether a job can be dispatched at all. BuildService.Submit
// rejects the submission (QuotaExceeded, no job created) when the list is
// empty.
func (r *Registry) AvailableFor(ctx context.Context, capability string) ([]*model.Runner, error) {
	return r.runnerDao.ListByCapability(ctx, capability)
}

// SweepStale flips any runner whose heartbeat is older than the configured
// timeout to unavailable, so dispatch stops routing new work to it. Meant
// to be invoked periodically by the approval expiry sweeper's cron
// schedule (internal/orchestrator/approval/sweeper.go) alongside its own
// tick.
func (r *Registry) SweepStale(ctx context.Context) error {
	cutoff := time.Now().Add(-r.timeout)
	return r.runnerDao.MarkStaleUnavailable(ctx, cutoff)
}
