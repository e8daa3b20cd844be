package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
	"github.com/prlessa/My-Stickly-Notes/internal/repository/mocks"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// fakeBus delivers published events synchronously to every subscribed
// handler. Sharing one instance between two hubs stands in for two
// server processes sharing one Redis.
type fakeBus struct {
	mu       sync.Mutex
	handlers []repository.EventHandler
}

func (b *fakeBus) Publish(_ context.Context, panelCode string, event domain.Event) error {
	b.mu.Lock()
	handlers := append([]repository.EventHandler(nil), b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(panelCode, event)
	}
	return nil
}

func (b *fakeBus) SubscribeAll(handler repository.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *fakeBus) Close() error { return nil }

type stubPanels struct{ panel *domain.Panel }

func (s *stubPanels) Lookup(context.Context, string) (*domain.Panel, error) {
	return s.panel, nil
}

func newTestHub(t *testing.T, bus repository.Bus) (*Hub, *mocks.PostRepository) {
	t.Helper()

	postRepo := new(mocks.PostRepository)
	cache := new(mocks.Cache)
	presenceRepo := new(mocks.PresenceRepository)

	cache.On("Get", mock.Anything, mock.Anything).Return(nil, repository.ErrCacheMiss)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache.On("Delete", mock.Anything, mock.Anything).Return(nil)
	presenceRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	presenceRepo.On("Delete", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	panels := &stubPanels{panel: &domain.Panel{Code: "AB12CD", Variant: domain.VariantFriends, MaxUsers: 15}}
	postService := service.NewPostService(postRepo, panels, cache, bus)
	presenceService := service.NewPresenceService(presenceRepo)

	return NewHub(bus, postService, presenceService), postRepo
}

// readMessage pulls the next frame queued for the client.
func readMessage(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send channel closed unexpectedly")
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client message")
		return nil
	}
}

func TestHub_RegisterPushesInitialPosts(t *testing.T) {
	bus := &fakeBus{}
	h, postRepo := newTestHub(t, bus)
	postRepo.On("ListByPanel", mock.Anything, "AB12CD").
		Return([]domain.Post{{ID: "p1", PanelCode: "AB12CD", Content: "Hi"}}, nil)

	go h.Run()
	defer h.Stop()

	client := NewClient(h, nil, "AB12CD", "Ana")
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: client}))

	msg := readMessage(t, client)
	assert.Equal(t, "initial-posts", msg["type"])
	posts := msg["posts"].([]interface{})
	require.Len(t, posts, 1)
}

func TestHub_FanoutReachesClientOnOtherProcess(t *testing.T) {
	bus := &fakeBus{}

	// Hub A publishes through its post service; hub B holds the client.
	hubA, postRepoA := newTestHub(t, bus)
	hubB, postRepoB := newTestHub(t, bus)
	postRepoA.On("ListByPanel", mock.Anything, mock.Anything).Return([]domain.Post{}, nil)
	postRepoB.On("ListByPanel", mock.Anything, mock.Anything).Return([]domain.Post{}, nil)

	go hubA.Run()
	defer hubA.Stop()
	go hubB.Run()
	defer hubB.Stop()

	client := NewClient(hubB, nil, "AB12CD", "Bea")
	require.True(t, hubB.QueueMessage(HubMessage{Type: "register", Client: client}))

	// Drain the initial-posts push first.
	msg := readMessage(t, client)
	require.Equal(t, "initial-posts", msg["type"])

	moved := &domain.Post{ID: "p1", PanelCode: "AB12CD", PositionX: 10, PositionY: 20}
	postRepoA.On("UpdatePosition", mock.Anything, "p1", 10, 20).Return(moved, nil).Once()

	// Give the register a moment to land in hub B's map before moving.
	require.Eventually(t, func() bool {
		hubB.mu.RLock()
		defer hubB.mu.RUnlock()
		return len(hubB.panels["AB12CD"]) == 1
	}, time.Second, 10*time.Millisecond)

	_, err := hubA.postService.Move(context.Background(), "p1", "AB12CD", 10, 20)
	require.NoError(t, err)

	msg = readMessage(t, client)
	assert.Equal(t, domain.EventPostMoved, msg["type"])
	post := msg["post"].(map[string]interface{})
	assert.Equal(t, float64(10), post["position_x"])
	assert.Equal(t, float64(20), post["position_y"])
}

func TestHub_EventsScopedToPanelGroup(t *testing.T) {
	bus := &fakeBus{}
	h, postRepo := newTestHub(t, bus)
	postRepo.On("ListByPanel", mock.Anything, mock.Anything).Return([]domain.Post{}, nil)

	go h.Run()
	defer h.Stop()

	client := NewClient(h, nil, "AB12CD", "Ana")
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: client}))
	msg := readMessage(t, client)
	require.Equal(t, "initial-posts", msg["type"])

	// An event for a different panel must not reach this client.
	require.NoError(t, bus.Publish(context.Background(), "ZZ99ZZ", domain.Event{Type: domain.EventPostDeleted, PostID: "x"}))
	require.NoError(t, bus.Publish(context.Background(), "AB12CD", domain.Event{Type: domain.EventPostDeleted, PostID: "p9"}))

	msg = readMessage(t, client)
	assert.Equal(t, domain.EventPostDeleted, msg["type"])
	assert.Equal(t, "p9", msg["postId"])
}

func TestHub_BroadcastDuringUnregister(t *testing.T) {
	bus := &fakeBus{}
	h, _ := newTestHub(t, bus)

	client := NewClient(h, nil, "AB12CD", "Ana")
	h.mu.Lock()
	h.panels["AB12CD"] = map[*Client]bool{client: true}
	h.mu.Unlock()

	// Drain so broadcasts keep landing until the channel closes.
	go func() {
		for range client.send {
		}
	}()

	// Fanout racing the unregister must never send on the closed channel.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				h.broadcast("AB12CD", []byte(`{"type":"POST_MOVED"}`))
			}
		}()
	}
	h.unregisterClient(client)
	wg.Wait()
}

func TestHub_UnregisterAfterStopDoesNotPanic(t *testing.T) {
	bus := &fakeBus{}
	h, postRepo := newTestHub(t, bus)
	postRepo.On("ListByPanel", mock.Anything, mock.Anything).Return([]domain.Post{}, nil)

	go h.Run()

	client := NewClient(h, nil, "AB12CD", "Ana")
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: client}))
	readMessage(t, client)

	h.Stop()

	// A connection tearing down during shutdown still sends its
	// unregister on the message channel.
	require.NotPanics(t, func() {
		h.QueueMessage(HubMessage{Type: "unregister", Client: client})
	})
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	bus := &fakeBus{}
	h, postRepo := newTestHub(t, bus)
	postRepo.On("ListByPanel", mock.Anything, mock.Anything).Return([]domain.Post{}, nil)

	go h.Run()
	defer h.Stop()

	client := NewClient(h, nil, "AB12CD", "Ana")
	require.True(t, h.QueueMessage(HubMessage{Type: "register", Client: client}))
	readMessage(t, client)

	require.True(t, h.QueueMessage(HubMessage{Type: "unregister", Client: client}))

	select {
	case _, ok := <-client.send:
		assert.False(t, ok, "send channel should be closed after unregister")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for send channel to close")
	}
}
