package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
)

// GormPanelRepository is the GORM implementation of PanelRepository.
type GormPanelRepository struct {
	db *gorm.DB
}

func NewGormPanelRepository(db *gorm.DB) *GormPanelRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPanelRepository")
	}
	return &GormPanelRepository{db: db}
}

func (r *GormPanelRepository) FindByCode(ctx context.Context, code string) (*domain.Panel, error) {
	var panel domain.Panel
	err := r.db.WithContext(ctx).First(&panel, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPanelNotFound
		}
		return nil, fmt.Errorf("gorm: find panel by code '%s': %w", code, err)
	}
	return &panel, nil
}

func (r *GormPanelRepository) Save(ctx context.Context, panel *domain.Panel) error {
	err := r.db.WithContext(ctx).Create(panel).Error
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save panel '%s': %w", panel.Code, err)
	}
	return nil
}

func (r *GormPanelRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Panel{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count panels by code '%s': %w", code, err)
	}
	return count > 0, nil
}

func (r *GormPanelRepository) TouchActivity(ctx context.Context, code string) error {
	err := r.db.WithContext(ctx).Model(&domain.Panel{}).
		Where("code = ?", code).
		Update("last_activity", time.Now()).Error
	if err != nil {
		return fmt.Errorf("gorm: touch activity for panel '%s': %w", code, err)
	}
	return nil
}
