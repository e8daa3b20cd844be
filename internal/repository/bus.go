package repository

import (
	"context"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
)

// EventHandler receives every event delivered on any panel channel.
type EventHandler func(panelCode string, event domain.Event)

// Bus is the cross-instance pub/sub channel keyed by panel code. Delivery
// is at-least-once and fire-and-forget; the publishing process receives
// its own events so local fanout shares one code path with remote fanout.
type Bus interface {
	// Publish broadcasts an event on the panel's channel.
	Publish(ctx context.Context, panelCode string, event domain.Event) error

	// SubscribeAll opens the single process-wide wildcard subscription
	// covering every panel channel and invokes handler for each inbound
	// event. It returns immediately; delivery runs until Close.
	SubscribeAll(handler EventHandler) error

	// Close tears the subscription down.
	Close() error
}
