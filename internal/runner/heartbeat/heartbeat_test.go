package heartbeat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fleetops/fleetops/internal/queue"
	"github.com/stretchr/testify/assert"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []queue.HeartbeatMessage
}

func (f *fakePublisher) PublishHeartbeat(ctx context.Context, msg queue.HeartbeatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestClient_PublishesBeatsWithInFlightCount(t *testing.T) {
	pub := &fakePublisher{}
	c := New("runner-1", pub, 5*time.Millisecond)
	c.SetInFlight(3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return pub.count() >= 2 }, 200*time.Millisecond, 5*time.Millisecond)
	cancel()
	<-done

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, "runner-1", pub.messages[0].RunnerID)
	assert.Equal(t, 3, pub.messages[0].InFlightCount)
	assert.Equal(t, "active", pub.messages[0].Status)
}

func TestClient_StopsOnContextCancel(t *testing.T) {
	pub := &fakePublisher{}
	c := New("runner-2", pub, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancel")
	}
}
