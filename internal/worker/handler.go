package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/repository"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
	"github.com/prlessa/My-Stickly-Notes/internal/tasks"
)

// PresenceSweepHandler runs the periodic stale-presence sweep.
type PresenceSweepHandler struct {
	presence *service.PresenceService
}

func NewPresenceSweepHandler(presence *service.PresenceService) *PresenceSweepHandler {
	if presence == nil {
		panic("PresenceService cannot be nil for PresenceSweepHandler")
	}
	return &PresenceSweepHandler{presence: presence}
}

func (h *PresenceSweepHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	if err := h.presence.SweepStale(ctx); err != nil {
		return fmt.Errorf("worker: presence sweep: %w", err)
	}
	return nil
}

// PanelActivityHandler applies best-effort last-activity bumps. The bump
// is advisory, so a panel that disappeared in the meantime is not a task
// failure.
type PanelActivityHandler struct {
	panelRepo repository.PanelRepository
}

func NewPanelActivityHandler(panelRepo repository.PanelRepository) *PanelActivityHandler {
	if panelRepo == nil {
		panic("PanelRepository cannot be nil for PanelActivityHandler")
	}
	return &PanelActivityHandler{panelRepo: panelRepo}
}

func (h *PanelActivityHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload tasks.PanelActivityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// A malformed payload will never succeed; skip retries.
		logrus.WithError(err).Warn("Dropping undecodable activity bump task")
		return nil
	}
	if err := h.panelRepo.TouchActivity(ctx, payload.Code); err != nil {
		return fmt.Errorf("worker: touch activity for '%s': %w", payload.Code, err)
	}
	return nil
}
