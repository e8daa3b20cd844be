package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// WebSocket timing and size limits shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// HubMessage is the envelope passed on the hub's internal channel.
type HubMessage struct {
	Type    string // "register", "unregister", "client_message"
	Client  *Client
	RawData []byte // only for client_message
}

// clientMessage is what connected clients may send: periodic heartbeats
// and an explicit leave.
type clientMessage struct {
	Type string `json:"type"` // "heartbeat" | "leave"
}

// Hub is the realtime gateway: it holds the live connections of this
// process grouped by panel code, owns the process-wide bus subscription
// and re-emits every inbound event to the matching local group. Events
// published by this same process arrive through the bus like everyone
// else's, so local and remote fanout share one code path.
type Hub struct {
	messageChan chan HubMessage
	done        chan struct{}

	// mu guards panels and the lifetime of every client send channel:
	// sends happen under RLock, the close in unregisterClient under Lock,
	// so a close can never interleave with an in-flight send.
	panels map[string]map[*Client]bool
	mu     sync.RWMutex

	bus             repository.Bus
	postService     *service.PostService
	presenceService *service.PresenceService
}

func NewHub(bus repository.Bus, postService *service.PostService, presenceService *service.PresenceService) *Hub {
	if bus == nil {
		panic("Bus cannot be nil for Hub")
	}
	if postService == nil {
		panic("PostService cannot be nil for Hub")
	}
	if presenceService == nil {
		panic("PresenceService cannot be nil for Hub")
	}
	return &Hub{
		messageChan:     make(chan HubMessage, 512),
		done:            make(chan struct{}),
		panels:          make(map[string]map[*Client]bool),
		bus:             bus,
		postService:     postService,
		presenceService: presenceService,
	}
}

// Run opens the bus subscription and processes hub messages until Stop
// is called. Run in its own goroutine.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")

	if err := h.bus.SubscribeAll(h.handleBusEvent); err != nil {
		log.WithError(err).Error("Failed to open bus subscription, realtime fanout disabled")
	}
	log.Info("Hub is running")

	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "client_message":
				go h.handleClientMessage(msg)
			default:
				log.Warnf("Unknown hub message type: %s", msg.Type)
			}
		case <-h.done:
			log.Info("Hub is shutting down")
			return
		}
	}
}

// QueueMessage enqueues a message for the hub without blocking. Returns
// false when the hub is saturated and the message was dropped.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

// Stop closes the bus subscription and the hub loop. The message channel
// stays open: read pumps of still-draining connections keep a reference
// to it and must be able to send their unregister without panicking.
func (h *Hub) Stop() {
	if err := h.bus.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing bus subscription")
	}
	close(h.done)
}

// handleBusEvent re-emits one bus event to every local client in the
// panel's group. This is the sole consumer of the bus subscription.
func (h *Hub) handleBusEvent(panelCode string, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).WithField("code", panelCode).Warn("Failed to marshal bus event for fanout")
		return
	}
	h.broadcast(panelCode, payload)
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		return
	}
	code := client.PanelCode()
	logCtx := logrus.WithFields(logrus.Fields{"code": code, "name": client.Name()})

	h.mu.Lock()
	if _, ok := h.panels[code]; !ok {
		h.panels[code] = make(map[*Client]bool)
	}
	h.panels[code][client] = true
	h.mu.Unlock()
	logCtx.Info("Client joined panel group")

	if client.Name() != "" {
		if err := h.presenceService.Heartbeat(context.Background(), code, client.Name()); err != nil {
			logCtx.WithError(err).Warn("Failed to heartbeat on join")
		}
	}

	// Push the authoritative post list so a (re)connecting client
	// recovers anything it missed while offline.
	go h.sendInitialPosts(client)
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	code := client.PanelCode()
	logCtx := logrus.WithFields(logrus.Fields{"code": code, "name": client.Name()})

	h.mu.Lock()
	if group, ok := h.panels[code]; ok {
		if _, exists := group[client]; exists {
			delete(group, client)
			close(client.send)
			if len(group) == 0 {
				delete(h.panels, code)
			}
		}
	}
	h.mu.Unlock()
	logCtx.Info("Client left panel group")
	// Presence is not removed on disconnect: a dropped connection may be
	// a transient reconnect. The explicit leave message and the periodic
	// sweep handle the roster.
}

// sendInitialPosts fetches the panel's post list and pushes it to one
// freshly registered client.
func (h *Hub) sendInitialPosts(client *Client) {
	logCtx := logrus.WithField("code", client.PanelCode())

	posts, err := h.postService.List(context.Background(), client.PanelCode())
	if err != nil {
		logCtx.WithError(err).Error("Failed to load initial posts for client")
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":  "initial-posts",
		"posts": posts,
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal initial posts")
		return
	}

	// The client may have unregistered while the list was loading; its
	// send channel is only valid while it is still in the group.
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.panels[client.PanelCode()][client] {
		return
	}
	select {
	case client.send <- payload:
	default:
		logCtx.Warn("Client send channel full, dropping initial posts")
	}
}

// handleClientMessage processes one inbound text frame from a client.
func (h *Hub) handleClientMessage(msg HubMessage) {
	client := msg.Client
	if client == nil || client.Name() == "" {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{"code": client.PanelCode(), "name": client.Name()})

	var cm clientMessage
	if err := json.Unmarshal(msg.RawData, &cm); err != nil {
		logCtx.Debug("Ignoring undecodable client message")
		return
	}

	switch cm.Type {
	case "heartbeat":
		if err := h.presenceService.Heartbeat(context.Background(), client.PanelCode(), client.Name()); err != nil {
			logCtx.WithError(err).Warn("Heartbeat failed")
		}
	case "leave":
		if err := h.presenceService.Remove(context.Background(), client.PanelCode(), client.Name()); err != nil {
			logCtx.WithError(err).Warn("Leave failed")
		}
	default:
		logCtx.Debugf("Ignoring client message type '%s'", cm.Type)
	}
}

// broadcast sends a payload to every client in the panel's group,
// including the one whose HTTP request originated the event. Sends stay
// under RLock so unregisterClient cannot close a send channel mid-send.
func (h *Hub) broadcast(panelCode string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.panels[panelCode] {
		select {
		case client.send <- payload:
		default:
			logrus.WithFields(logrus.Fields{
				"code": panelCode,
				"name": client.Name(),
			}).Warn("Client send channel full during broadcast, skipping")
		}
	}
}
