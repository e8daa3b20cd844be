package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task types handled by the worker server.
const (
	// TypePresenceSweep deletes stale presence rows across all panels.
	// Registered with the scheduler on a fixed interval.
	TypePresenceSweep = "presence:sweep"

	// TypePanelActivity bumps a panel's last-activity timestamp.
	// Enqueued best-effort on every successful admission.
	TypePanelActivity = "panel:activity"
)

// PanelActivityPayload names the panel whose timestamp should be bumped.
type PanelActivityPayload struct {
	Code string `json:"code"`
}

// NewPanelActivityTask builds an activity-bump task for one panel.
func NewPanelActivityTask(code string) (*asynq.Task, error) {
	payload, err := json.Marshal(PanelActivityPayload{Code: code})
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal activity payload: %w", err)
	}
	return asynq.NewTask(TypePanelActivity, payload), nil
}

// NewPresenceSweepTask builds the periodic sweep task. It carries no
// payload; the cutoff is computed at execution time.
func NewPresenceSweepTask() *asynq.Task {
	return asynq.NewTask(TypePresenceSweep, nil)
}
