package heartbeat

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/fleetops/fleetops/internal/queue"
)

// Client publishes a runner's liveness beat on a fixed interval, the same
// ticker-plus-atomic-counters shape the SPLAI worker's heartbeat client
// uses against an HTTP sink, adapted here to the control-channel pub/sub
// already wired for cancellation (spec §3.7).
type Client struct {
	runnerID  string
	interval  time.Duration
	publisher queue.HeartbeatPublisher
	inFlight  atomic.Int64
}

// New constructs a heartbeat Client bound to a runner ID.
func New(runnerID string, publisher queue.HeartbeatPublisher, interval time.Duration) *Client {
	return &Client{runnerID: runnerID, publisher: publisher, interval: interval}
}

// SetInFlight records the runner's current in-flight task count, picked up
// by the next tick.
func (c *Client) SetInFlight(n int) {
	c.inFlight.Store(int64(n))
}

// Start blocks, publishing a beat every interval until ctx is cancelled.
func (c *Client) Start(ctx context.Context) {
	logger := common.GetLogger().Sugar()
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			msg := queue.HeartbeatMessage{
				RunnerID:      c.runnerID,
				InFlightCount: int(c.inFlight.Load()),
				Status:        "active",
				Timestamp:     time.Now(),
			}
			if err := c.publisher.PublishHeartbeat(ctx, msg); err != nil {
				logger.Warnw("heartbeat publish failed", "runner_id", c.runnerID, "err", err)
			}
		}
	}
}
