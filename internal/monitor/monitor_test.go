package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/wanip"
)

type fakeWANClient struct {
	mu     sync.Mutex
	ip     string
	status wanip.ConnectionStatus
	err    error
}

func (f *fakeWANClient) set(ip string, status wanip.ConnectionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ip = ip
	f.status = status
}

func (f *fakeWANClient) ExternalIPAddress(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ip, f.err
}

func (f *fakeWANClient) StatusInfo(ctx context.Context) (wanip.StatusInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return wanip.StatusInfo{ConnectionStatus: f.status, Uptime: time.Hour}, f.err
}

type recordedMessage struct {
	typ     string
	payload interface{}
}

type fakeIntegration struct {
	mu     sync.Mutex
	events []recordedMessage
	states []recordedMessage
}

func (f *fakeIntegration) PublishEvent(eventType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedMessage{typ: eventType, payload: payload})
	return nil
}

func (f *fakeIntegration) PublishState(stateType string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, recordedMessage{typ: stateType, payload: payload})
	return nil
}

func (f *fakeIntegration) snapshot() ([]recordedMessage, []recordedMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedMessage{}, f.events...), append([]recordedMessage{}, f.states...)
}

func TestMonitorPoll(t *testing.T) {
	ctx := context.Background()

	t.Run("FirstPollPublishesStateOnly", func(t *testing.T) {
		assert := require.New(t)

		client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
		integration := &fakeIntegration{}
		m := New(client, Config{}, integration)

		m.poll(ctx)

		events, states := integration.snapshot()
		assert.Len(events, 0)
		assert.Len(states, 1)
		assert.Equal(stateWAN, states[0].typ)

		state := states[0].payload.(WANState)
		assert.Equal("198.51.100.4", state.ExternalIP)
		assert.Equal("Connected", state.Status)
		assert.Equal(int64(3600), state.UptimeSeconds)
	})

	t.Run("IPChange", func(t *testing.T) {
		assert := require.New(t)

		client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
		integration := &fakeIntegration{}
		m := New(client, Config{}, integration)

		m.poll(ctx)
		client.set("198.51.100.99", wanip.StatusConnected)
		m.poll(ctx)

		events, states := integration.snapshot()
		assert.Len(events, 1)
		assert.Equal(eventIPChanged, events[0].typ)
		assert.Equal(IPChanged{Old: "198.51.100.4", New: "198.51.100.99"}, events[0].payload)

		// state document published again with the new address
		assert.Len(states, 2)
		assert.Equal("198.51.100.99", states[1].payload.(WANState).ExternalIP)
	})

	t.Run("StatusChange", func(t *testing.T) {
		assert := require.New(t)

		client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
		integration := &fakeIntegration{}
		m := New(client, Config{}, integration)

		m.poll(ctx)
		client.set("198.51.100.4", wanip.StatusDisconnected)
		m.poll(ctx)

		events, _ := integration.snapshot()
		assert.Len(events, 1)
		assert.Equal(eventStatusChanged, events[0].typ)
		assert.Equal(StatusChanged{Old: "Connected", New: "Disconnected"}, events[0].payload)
	})

	t.Run("UnchangedPollPublishesNothing", func(t *testing.T) {
		assert := require.New(t)

		client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
		integration := &fakeIntegration{}
		m := New(client, Config{}, integration)

		m.poll(ctx)
		m.poll(ctx)
		m.poll(ctx)

		events, states := integration.snapshot()
		assert.Len(events, 0)
		assert.Len(states, 1)
	})

	t.Run("StateRefreshAfterExpiry", func(t *testing.T) {
		assert := require.New(t)

		client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
		integration := &fakeIntegration{}
		m := New(client, Config{StateRefreshInterval: 10 * time.Millisecond}, integration)

		m.poll(ctx)
		time.Sleep(20 * time.Millisecond)
		m.poll(ctx)

		_, states := integration.snapshot()
		assert.Len(states, 2)
	})

	t.Run("NilIntegration", func(t *testing.T) {
		client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
		m := New(client, Config{}, nil)

		// must not panic
		m.poll(ctx)
		m.poll(ctx)
	})
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	assert := require.New(t)

	client := &fakeWANClient{ip: "198.51.100.4", status: wanip.StatusConnected}
	m := New(client, Config{PollInterval: time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}
