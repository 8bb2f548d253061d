package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisControlBus realizes the `ops.control` topic exchange as plain
// go-redis pub/sub channels, one per task and one per job. A fanout queue
// can't model this: control signals must reach a consumer that already
// dequeued its task and is mid-execution, which is exactly what pub/sub
// delivers and a durable queue does not.
type RedisControlBus struct {
	rdb *redis.Client
}

// NewRedisControlBus opens a direct client against addr, independent of
// the asynq connection pool.
func NewRedisControlBus(addr, password string) *RedisControlBus {
	return &RedisControlBus{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: password})}
}

func (b *RedisControlBus) PublishTaskControl(ctx context.Context, taskID string, sig ControlSignal) error {
	return b.publish(ctx, ControlChannel(taskID), sig)
}

func (b *RedisControlBus) PublishJobControl(ctx context.Context, jobID string, sig ControlSignal) error {
	return b.publish(ctx, JobControlChannel(jobID), sig)
}

func (b *RedisControlBus) publish(ctx context.Context, channel string, sig ControlSignal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// PublishHeartbeat fans out a runner's liveness beat (spec §3.7).
func (b *RedisControlBus) PublishHeartbeat(ctx context.Context, msg HeartbeatMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, HeartbeatChannel, payload).Err()
}

// SubscribeHeartbeats is the orchestrator-side drain of HeartbeatChannel.
func (b *RedisControlBus) SubscribeHeartbeats(ctx context.Context) (<-chan HeartbeatMessage, func(), error) {
	sub := b.rdb.Subscribe(ctx, HeartbeatChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	out := make(chan HeartbeatMessage, 16)
	raw := sub.Channel()
	go func() {
		defer close(out)
		for rmsg := range raw {
			var hb HeartbeatMessage
			if err := json.Unmarshal([]byte(rmsg.Payload), &hb); err != nil {
				continue
			}
			select {
			case out <- hb:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { sub.Close() }, nil
}

// SubscribeTask returns a channel of signals addressed to taskID and a
// cancel func the caller must invoke once done listening.
func (b *RedisControlBus) SubscribeTask(ctx context.Context, taskID string) (<-chan ControlSignal, func(), error) {
	return b.subscribe(ctx, ControlChannel(taskID))
}

// SubscribeJob returns a channel of signals addressed to jobID. The runner
// pool does not use it: a whole-job cancel reaches runners as one
// task-level signal per non-terminal task of that job.
func (b *RedisControlBus) SubscribeJob(ctx context.Context, jobID string) (<-chan ControlSignal, func(), error) {
	return b.subscribe(ctx, JobControlChannel(jobID))
}

func (b *RedisControlBus) subscribe(ctx context.Context, channel string) (<-chan ControlSignal, func(), error) {
	sub := b.rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	out := make(chan ControlSignal, 4)
	raw := sub.Channel()
	go func() {
		defer close(out)
		for msg := range raw {
			var sig ControlSignal
			if err := json.Unmarshal([]byte(msg.Payload), &sig); err != nil {
				continue
			}
			select {
			case out <- sig:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { sub.Close() }, nil
}

// Close releases the underlying redis client.
func (b *RedisControlBus) Close() error {
	return b.rdb.Close()
}
