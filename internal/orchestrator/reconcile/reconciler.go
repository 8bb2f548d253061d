package reconcile

import (
	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/dao"
	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/orchestrator/service"
	"github.com/robfig/cron/v3"
)

// Reconciler runs the periodic recovery sweep spec §4.1/§7 require: any
// job whose last dispatch attempt failed, or that never left pending,
// gets its non-terminal tasks republished. Grounded on the same
// cron.New(cron.WithSeconds()) fixed-interval housekeeping shape
// approval.Sweeper uses.
type Reconciler struct {
	cron         *cron.Cron
	jobDao       dao.JobDao
	jobService   *service.JobService
	buildService *service.BuildService
}

// NewReconciler wires a Reconciler to the same JobService/BuildService the
// HTTP handlers use, so a redispatch goes through the identical dispatch
// path a fresh submission would.
func NewReconciler(jobService *service.JobService, buildService *service.BuildService) *Reconciler {
	return &Reconciler{
		cron:         cron.New(cron.WithSeconds()),
		jobDao:       dao.NewJobDao(),
		jobService:   jobService,
		buildService: buildService,
	}
}

// Start registers the sweep and starts the scheduler. It runs once a
// minute, at second 30, independent of the approval sweeper's own schedule.
func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc("30 * * * * *", r.sweep); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Reconciler) sweep() {
	ctx := context.Background()
	logger := common.GetLogger().Sugar()
	jobs, err := r.jobDao.ListNeedingRedispatch(ctx)
	if err != nil {
		logger.Errorw("list needing redispatch failed", "err", err)
		return
	}
	for _, job := range jobs {
		var redispatchErr error
		if job.JobType == model.JobTypeBuild {
			redispatchErr = r.buildService.Redispatch(ctx, job.ID)
		} else {
			redispatchErr = r.jobService.Redispatch(ctx, job.ID)
		}
		if redispatchErr != nil {
			logger.Errorw("redispatch failed", "job_id", job.ID, "job_type", job.JobType, "err", redispatchErr)
		}
	}
}
