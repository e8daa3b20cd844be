package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
)

// GormPostRepository is the GORM implementation of PostRepository.
type GormPostRepository struct {
	db *gorm.DB
}

func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPostRepository")
	}
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) ListByPanel(ctx context.Context, panelCode string) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Where("panel_code = ?", panelCode).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list posts for panel '%s': %w", panelCode, err)
	}
	return posts, nil
}

func (r *GormPostRepository) Save(ctx context.Context, post *domain.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("gorm: save post '%s': %w", post.ID, err)
	}
	return nil
}

func (r *GormPostRepository) UpdatePosition(ctx context.Context, id string, x, y int) (*domain.Post, error) {
	result := r.db.WithContext(ctx).Model(&domain.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"position_x": x, "position_y": y})
	if result.Error != nil {
		return nil, fmt.Errorf("gorm: update position of post '%s': %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		// Updates reports zero rows both for an absent id and for an
		// unchanged position, so confirm with a lookup.
		var probe domain.Post
		if err := r.db.WithContext(ctx).First(&probe, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repository.ErrPostNotFound
			}
			return nil, fmt.Errorf("gorm: find post '%s' after update: %w", id, err)
		}
		return &probe, nil
	}

	var post domain.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("gorm: reload post '%s' after update: %w", id, err)
	}
	return &post, nil
}

func (r *GormPostRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("gorm: delete post '%s': %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrPostNotFound
	}
	return nil
}
