package domain

import "time"

// Panel variants. The variant fixes the participant capacity at creation
// time and controls whether anonymous posts are accepted.
const (
	VariantFriends = "friends"
	VariantCouple  = "couple"
)

// Participant capacity per variant.
const (
	MaxUsersFriends = 15
	MaxUsersCouple  = 2
)

// Panel is a shared board addressed by a 6-character invite code.
// The code is the primary key and never changes once assigned.
type Panel struct {
	Code         string    `gorm:"primaryKey;size:6" json:"code"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Variant      string    `gorm:"size:20;not null" json:"variant"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Creator      string    `gorm:"size:100;not null" json:"creator"`
	BorderColor  string    `gorm:"size:7;default:'#D4A574'" json:"border_color"`
	MaxUsers     int       `gorm:"not null" json:"max_users"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`
}

func (Panel) TableName() string { return "panels" }

// HasPassword reports whether admission to the panel requires a password.
func (p *Panel) HasPassword() bool { return p.PasswordHash != "" }

// Public returns a copy of the panel with the password hash stripped.
// Only public projections may leave the panel service or enter the cache.
func (p *Panel) Public() *Panel {
	pub := *p
	pub.PasswordHash = ""
	return &pub
}

// MaxUsersForVariant maps a panel variant to its participant capacity.
// Returns 0 for unknown variants.
func MaxUsersForVariant(variant string) int {
	switch variant {
	case VariantCouple:
		return MaxUsersCouple
	case VariantFriends:
		return MaxUsersFriends
	default:
		return 0
	}
}
