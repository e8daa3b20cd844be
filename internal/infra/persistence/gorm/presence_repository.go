package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
)

// GormPresenceRepository is the GORM implementation of PresenceRepository.
type GormPresenceRepository struct {
	db *gorm.DB
}

func NewGormPresenceRepository(db *gorm.DB) *GormPresenceRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPresenceRepository")
	}
	return &GormPresenceRepository{db: db}
}

// Upsert relies on the unique (panel_code, name) index: a racing insert
// for the same pair becomes an update of last_seen instead of an error.
func (r *GormPresenceRepository) Upsert(ctx context.Context, panelCode, name string) error {
	row := domain.Presence{
		PanelCode: panelCode,
		Name:      name,
		LastSeen:  time.Now(),
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "panel_code"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen": row.LastSeen}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert presence '%s'@'%s': %w", name, panelCode, err)
	}
	return nil
}

func (r *GormPresenceRepository) ListActive(ctx context.Context, panelCode string, seenAfter time.Time) ([]domain.Presence, error) {
	var rows []domain.Presence
	err := r.db.WithContext(ctx).
		Where("panel_code = ? AND last_seen > ?", panelCode, seenAfter).
		Order("joined_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list active users for panel '%s': %w", panelCode, err)
	}
	return rows, nil
}

func (r *GormPresenceRepository) CountActive(ctx context.Context, panelCode string, seenAfter time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Presence{}).
		Where("panel_code = ? AND last_seen > ?", panelCode, seenAfter).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count active users for panel '%s': %w", panelCode, err)
	}
	return count, nil
}

func (r *GormPresenceRepository) Exists(ctx context.Context, panelCode, name string, seenAfter time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Presence{}).
		Where("panel_code = ? AND name = ? AND last_seen > ?", panelCode, name, seenAfter).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check presence '%s'@'%s': %w", name, panelCode, err)
	}
	return count > 0, nil
}

func (r *GormPresenceRepository) Delete(ctx context.Context, panelCode, name string) error {
	err := r.db.WithContext(ctx).
		Where("panel_code = ? AND name = ?", panelCode, name).
		Delete(&domain.Presence{}).Error
	if err != nil {
		return fmt.Errorf("gorm: delete presence '%s'@'%s': %w", name, panelCode, err)
	}
	return nil
}

func (r *GormPresenceRepository) DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("last_seen < ?", cutoff).
		Delete(&domain.Presence{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: sweep stale presence rows: %w", result.Error)
	}
	return result.RowsAffected, nil
}
