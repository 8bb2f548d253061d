package queue

import "context"

// TaskPublisher enqueues dispatched work onto the per-(capability, env)
// queue that realizes the `ops.tasks` topic exchange.
type TaskPublisher interface {
	PublishTask(ctx context.Context, capability, env string, envelope TaskEnvelope) error
	Close() error
}

// ResultPublisher is used by the runner side to report progress/terminal
// outcomes onto the `ops.results` fanout queue.
type ResultPublisher interface {
	PublishResult(ctx context.Context, msg ResultMessage) error
	Close() error
}

// TaskHandler processes one dequeued TaskEnvelope. Returning an error tells
// asynq to retry the delivery per its own backoff policy; callers that want
// to report a terminal failure to the orchestrator do so via
// ResultPublisher before returning nil — a handler error is a broker-level
// retry signal, not a task-domain outcome.
type TaskHandler func(ctx context.Context, envelope TaskEnvelope) error

// TaskConsumer runs a runner's worker pool against one or more
// (capability, env) queues.
type TaskConsumer interface {
	Run(ctx context.Context, queues map[string]int, handler TaskHandler) error
	Shutdown()
}

// ResultHandler processes one dequeued ResultMessage at the orchestrator.
type ResultHandler func(ctx context.Context, msg ResultMessage) error

// ResultConsumer drains the single ops:results queue.
type ResultConsumer interface {
	Run(ctx context.Context, handler ResultHandler) error
	Shutdown()
}

// ControlPublisher fans a cancel/approve signal out to whatever consumer is
// currently subscribed to the task or job's control channel — the
// already-dequeued, in-flight case asynq cannot address.
type ControlPublisher interface {
	PublishTaskControl(ctx context.Context, taskID string, sig ControlSignal) error
	PublishJobControl(ctx context.Context, jobID string, sig ControlSignal) error
}

// ControlSubscriber lets an in-flight task execution listen for a cancel
// signal addressed to it specifically, or to its parent job.
type ControlSubscriber interface {
	SubscribeTask(ctx context.Context, taskID string) (<-chan ControlSignal, func(), error)
	SubscribeJob(ctx context.Context, jobID string) (<-chan ControlSignal, func(), error)
}

// HeartbeatPublisher is the runner side of the liveness beat (spec §3.7).
type HeartbeatPublisher interface {
	PublishHeartbeat(ctx context.Context, msg HeartbeatMessage) error
}

// HeartbeatSubscriber is the orchestrator side draining every runner's beat.
type HeartbeatSubscriber interface {
	SubscribeHeartbeats(ctx context.Context) (<-chan HeartbeatMessage, func(), error)
}
