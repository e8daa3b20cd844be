package domain

import "time"

// PresenceWindow is how long a participant counts as active after their
// last heartbeat. Rows older than this are invisible to the roster and
// eligible for the periodic sweep.
const PresenceWindow = 5 * time.Minute

// Presence is a heartbeat record for one named participant in one panel.
// The (PanelCode, Name) pair is unique; re-heartbeat refreshes LastSeen
// instead of inserting a duplicate.
type Presence struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PanelCode string    `gorm:"size:6;not null;uniqueIndex:idx_panel_name" json:"panel_id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:idx_panel_name" json:"name"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joined_at"`
	LastSeen  time.Time `gorm:"index;not null" json:"last_seen"`
}

func (Presence) TableName() string { return "active_users" }

// RosterEntry is the public view of one active participant.
type RosterEntry struct {
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joined_at"`
}
