package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/hibiken/asynq"
)

// AsynqTaskBroker is the asynq client side, publishing tasks and results,
// using the same durable-queue client the teacher uses for its pipeline
// scheduler (peace/internal/server/scheduler/sched.go). Consuming is done by
// AsynqTaskConsumer and AsynqResultConsumer.
type AsynqTaskBroker struct {
	client *asynq.Client
	server *asynq.Server
}

// NewAsynqTaskBroker opens a client against redisAddr; the client side
// alone is enough for a pure publisher (the orchestrator).
func NewAsynqTaskBroker(redisAddr, redisPassword string) *AsynqTaskBroker {
	opt := asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword}
	return &AsynqTaskBroker{client: asynq.NewClient(opt)}
}

func (b *AsynqTaskBroker) PublishTask(ctx context.Context, capability, env string, envelope TaskEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	queueName := TaskQueueName(capability, env)
	t := asynq.NewTask(TaskTypeDispatch, payload)
	_, err = b.client.EnqueueContext(ctx, t, asynq.Queue(queueName), asynq.TaskID(envelope.TaskID+":"+fmt.Sprint(envelope.Attempt)))
	if err != nil {
		common.GetLogger().Sugar().Errorw("publish task failed", "task_id", envelope.TaskID, "queue", queueName, "err", err)
		return common.NewErrNoMsg(common.PublishFailed, err.Error())
	}
	return nil
}

func (b *AsynqTaskBroker) PublishResult(ctx context.Context, msg ResultMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t := asynq.NewTask(TaskTypeResult, payload)
	_, err = b.client.EnqueueContext(ctx, t, asynq.Queue(ResultQueue))
	if err != nil {
		return common.NewErrNoMsg(common.PublishFailed, err.Error())
	}
	return nil
}

func (b *AsynqTaskBroker) Close() error {
	return b.client.Close()
}

// AsynqTaskConsumer runs a runner's pool of dispatch handlers. queues maps
// queue name to its relative priority weight, the same shape asynq.Config
// takes natively (spec's per-capability fairness is delegated straight to
// asynq's weighted queue scheduling).
type AsynqTaskConsumer struct {
	redisAddr     string
	redisPassword string
	concurrency   int
	srv           *asynq.Server
}

// NewAsynqTaskConsumer constructs a consumer bound to the given overall
// concurrency (the runner's MaxConcurrentJobs).
func NewAsynqTaskConsumer(redisAddr, redisPassword string, concurrency int) *AsynqTaskConsumer {
	return &AsynqTaskConsumer{redisAddr: redisAddr, redisPassword: redisPassword, concurrency: concurrency}
}

func (c *AsynqTaskConsumer) Run(ctx context.Context, queues map[string]int, handler TaskHandler) error {
	opt := asynq.RedisClientOpt{Addr: c.redisAddr, Password: c.redisPassword}
	c.srv = asynq.NewServer(opt, asynq.Config{
		Concurrency: c.concurrency,
		Queues:      queues,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDispatch, func(ctx context.Context, t *asynq.Task) error {
		var envelope TaskEnvelope
		if err := json.Unmarshal(t.Payload(), &envelope); err != nil {
			return err
		}
		return handler(ctx, envelope)
	})
	return c.srv.Run(mux)
}

func (c *AsynqTaskConsumer) Shutdown() {
	if c.srv != nil {
		c.srv.Shutdown()
	}
}

// AsynqResultConsumer drains the single ops:results queue at the
// orchestrator.
type AsynqResultConsumer struct {
	redisAddr     string
	redisPassword string
	concurrency   int
	srv           *asynq.Server
}

// NewAsynqResultConsumer constructs the orchestrator-side result drain.
func NewAsynqResultConsumer(redisAddr, redisPassword string, concurrency int) *AsynqResultConsumer {
	return &AsynqResultConsumer{redisAddr: redisAddr, redisPassword: redisPassword, concurrency: concurrency}
}

func (c *AsynqResultConsumer) Run(ctx context.Context, handler ResultHandler) error {
	opt := asynq.RedisClientOpt{Addr: c.redisAddr, Password: c.redisPassword}
	c.srv = asynq.NewServer(opt, asynq.Config{
		Concurrency: c.concurrency,
		Queues:      map[string]int{ResultQueue: 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeResult, func(ctx context.Context, t *asynq.Task) error {
		var msg ResultMessage
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return err
		}
		return handler(ctx, msg)
	})
	return c.srv.Run(mux)
}

func (c *AsynqResultConsumer) Shutdown() {
	if c.srv != nil {
		c.srv.Shutdown()
	}
}
