package domain

import "time"

// Defaults applied when a post is created without an explicit color or
// position. Positions are board coordinates, never negative.
const (
	DefaultPostColor = "#FFF5E6"
	DefaultPositionX = 50
	DefaultPositionY = 50
)

// Post is a single movable note belonging to exactly one panel.
// Rows cascade-delete with their panel.
type Post struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PanelCode  string    `gorm:"size:6;not null;index" json:"panel_id"`
	AuthorName string    `gorm:"size:100" json:"author_name,omitempty"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Color      string    `gorm:"size:7;default:'#FFF5E6'" json:"color"`
	PositionX  int       `gorm:"not null;default:50" json:"position_x"`
	PositionY  int       `gorm:"not null;default:50" json:"position_y"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Post) TableName() string { return "posts" }

// Anonymous reports whether the post carries no author name.
func (p *Post) Anonymous() bool { return p.AuthorName == "" }
