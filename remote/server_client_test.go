package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroom-actors/greenroom"
)

type remoteEchoActor struct{}

func (a *remoteEchoActor) InitializeBehaviors(r *greenroom.Behaviors) {
	r.AddBehavior("default", func(ctx greenroom.Context, msg greenroom.Message) {})
}

func startTestServer(t *testing.T) (*Server, *greenroom.System) {
	t.Helper()
	sys := greenroom.NewSystem("node-b", greenroom.DefaultSystemConfig())
	sys.RegisterActorClass("echo", func() greenroom.Actor { return &remoteEchoActor{} })

	srv := NewServer(sys, DefaultServerConfig())
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return srv, sys
}

// TestRemoteWatchSeesStartedThenStopped is scenario S6: node A watches an
// actor spawned on node B and observes a STARTED event followed by a
// STOPPED event once the actor is stopped, then the watcher is dropped on
// cancellation.
func TestRemoteWatchSeesStartedThenStopped(t *testing.T) {
	srv, sys := startTestServer(t)

	client, err := Dial(srv.Addr(), "node-a", DefaultClientConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	addr := sys.Spawn(greenroom.NewProps(func() greenroom.Actor { return &remoteEchoActor{} }))

	watchCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := client.Watch(watchCtx, addr.ID, "watcher-1")
	require.NoError(t, err)

	first := recvEvent(t, events)
	assert.Equal(t, EventStarted, first.EventType)

	sys.Stop(addr)

	second := recvEvent(t, events)
	assert.Equal(t, EventStopped, second.EventType)

	cancel()
	time.Sleep(20 * time.Millisecond)

	srv.watchMu.Lock()
	_, stillWatching := srv.watchers[addr.ID]
	srv.watchMu.Unlock()
	assert.False(t, stillWatching, "cancelling the watch context must drop the server-side watcher")
}

func TestRemoteSpawnSendStop(t *testing.T) {
	srv, sys := startTestServer(t)
	_ = srv

	client, err := Dial(srv.Addr(), "node-a", DefaultClientConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	addr, err := client.Spawn(ctx, "echo", greenroom.MailboxDefault)
	require.NoError(t, err)
	require.False(t, addr.IsZero())
	assert.True(t, sys.Exists(greenroom.Address{ID: addr.ID}))

	err = client.Send(ctx, greenroom.Address{ID: addr.ID}, greenroom.Message{Type: "ping"})
	require.NoError(t, err)

	err = client.Stop(ctx, greenroom.Address{ID: addr.ID})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	assert.False(t, sys.Exists(greenroom.Address{ID: addr.ID}))
}

func TestRemoteSendToUnknownTargetFails(t *testing.T) {
	srv, _ := startTestServer(t)

	client, err := Dial(srv.Addr(), "node-a", DefaultClientConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.Send(context.Background(), greenroom.Address{ID: "ghost"}, greenroom.Message{Type: "ping"})
	assert.Error(t, err)
}

func recvEvent(t *testing.T, ch <-chan *WatchActorEvent) *WatchActorEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a watch event")
		return nil
	}
}
