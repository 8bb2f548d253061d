package pool

import (
	"context"
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/model"
	"github.com/fleetops/fleetops/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResultPublisher struct {
	messages []queue.ResultMessage
}

func (f *fakeResultPublisher) PublishResult(ctx context.Context, msg queue.ResultMessage) error {
	f.messages = append(f.messages, msg)
	return nil
}
func (f *fakeResultPublisher) Close() error { return nil }

type fakeControlSubscriber struct{}

func (fakeControlSubscriber) SubscribeTask(ctx context.Context, taskID string) (<-chan queue.ControlSignal, func(), error) {
	ch := make(chan queue.ControlSignal)
	return ch, func() {}, nil
}
func (fakeControlSubscriber) SubscribeJob(ctx context.Context, jobID string) (<-chan queue.ControlSignal, func(), error) {
	ch := make(chan queue.ControlSignal)
	return ch, func() {}, nil
}

type fakeTaskConsumer struct{}

func (fakeTaskConsumer) Run(ctx context.Context, queues map[string]int, handler queue.TaskHandler) error {
	return nil
}
func (fakeTaskConsumer) Shutdown() {}

func TestHandleBuild_NoExecutorFailsFast(t *testing.T) {
	pub := &fakeResultPublisher{}
	p := New(fakeTaskConsumer{}, pub, fakeControlSubscriber{}, nil)

	envelope := queue.TaskEnvelope{TaskID: "t-1", JobID: "j-1", JobType: string(model.JobTypeBuild)}
	err := p.handleBuild(context.Background(), envelope)
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	terminal := pub.messages[0].Terminal
	require.NotNil(t, terminal)
	assert.Equal(t, string(model.TaskStatusFailed), terminal.Status)
	assert.Equal(t, string(model.FailureUnknown), terminal.FailureReason)
}

func TestHandle_RoutesBuildJobTypeToHandleBuild(t *testing.T) {
	pub := &fakeResultPublisher{}
	p := New(fakeTaskConsumer{}, pub, fakeControlSubscriber{}, nil)

	envelope := queue.TaskEnvelope{TaskID: "t-1", JobID: "j-1", JobType: string(model.JobTypeBuild)}
	err := p.handle(context.Background(), envelope)
	require.NoError(t, err)

	var sawTerminal bool
	for _, m := range pub.messages {
		if m.Kind == queue.KindTerminal {
			sawTerminal = true
		}
	}
	assert.True(t, sawTerminal)
}

func TestRetryBackoff_GrowsWithAttemptAndStaysCapped(t *testing.T) {
	first := retryBackoff(1)
	third := retryBackoff(3)
	assert.Less(t, first, third)
	assert.LessOrEqual(t, retryBackoff(100), 40*time.Second)
}
