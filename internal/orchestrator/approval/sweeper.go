package approval

import (
	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/runnerregistry"
	"github.com/robfig/cron/v3"
)

// Sweeper runs the periodic jobs that have no natural external trigger:
// expiring stale approval requests and marking runners whose heartbeat
// went quiet as unavailable. Grounded on the teacher's use of
// cron.New(cron.WithSeconds()) for its pipeline scheduler
// (sched/main.go), reused here for fixed-interval housekeeping instead of
// user-authored cron expressions.
type Sweeper struct {
	cron        *cron.Cron
	approvalDao dao.ApprovalDao
	jobDao      dao.JobDao
	registry    *runnerregistry.Registry
}

// NewSweeper constructs a Sweeper wired to its own DAOs and registry.
func NewSweeper() *Sweeper {
	return &Sweeper{
		cron:        cron.New(cron.WithSeconds()),
		approvalDao: dao.NewApprovalDao(),
		jobDao:      dao.NewJobDao(),
		registry:    runnerregistry.NewRegistry(),
	}
}

// Start registers the housekeeping entries and starts the scheduler.
// Expiry runs every minute; the runner liveness sweep runs every 15
// seconds since the default heartbeat timeout is much shorter than a
// minute.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc("0 * * * * *", s.expireApprovals); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("*/15 * * * * *", s.sweepRunners); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for in-flight entries to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) expireApprovals() {
	ctx := context.Background()
	logger := common.GetLogger().Sugar()
	expiring, err := s.approvalDao.ListExpiring(ctx)
	if err != nil {
		logger.Errorw("list expiring approvals failed", "err", err)
		return
	}
	for _, req := range expiring {
		if err := s.approvalDao.MarkExpired(ctx, req.ID); err != nil {
			logger.Errorw("mark approval expired failed", "request_id", req.ID, "err", err)
			continue
		}
		// An expired approval cancels its job outright (spec §4.5 — expiry
		// is not re-openable).
		if err := s.jobDao.UpdateStatus(ctx, req.JobID, model.JobStatusCancelled); err != nil {
			logger.Errorw("cancel job on approval expiry failed", "job_id", req.JobID, "err", err)
		}
	}
}

func (s *Sweeper) sweepRunners() {
	ctx := context.Background()
	if err := s.registry.SweepStale(ctx); err != nil {
		common.GetLogger().Sugar().Errorw("sweep stale runners failed", "err", err)
	}
}
