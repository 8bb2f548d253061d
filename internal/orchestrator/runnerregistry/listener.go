package runnerregistry

import (
	"context"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/queue"
)

// ListenHeartbeats drains a runner heartbeat fanout and records each beat
// against the registry's backing store, until ctx is cancelled or the
// subscription itself fails to establish (spec §3.7: "the orchestrator's
// ... package maintains ... liveness").
func (r *Registry) ListenHeartbeats(ctx context.Context, sub queue.HeartbeatSubscriber) error {
	beats, unsubscribe, err := sub.SubscribeHeartbeats(ctx)
	if err != nil {
		return err
	}
	defer unsubscribe()

	logger := common.GetLogger().Sugar()
	for beat := range beats {
		if err := r.Heartbeat(ctx, beat.RunnerID, beat.InFlightCount); err != nil {
			logger.Warnw("failed to record runner heartbeat", "runner_id", beat.RunnerID, "err", err)
		}
	}
	return nil
}
