package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
)

// InitDB opens the MySQL connection pool used by all repositories.
func InitDB(user, password, host, port, name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, name)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("setup: open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("setup: get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// MigrateDB creates or updates the panels, posts and active_users tables.
// The cascade constraint from posts/active_users to panels lives in the
// database so that removing a panel removes its dependents.
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Panel{}, &domain.Post{}, &domain.Presence{}); err != nil {
		return fmt.Errorf("setup: auto migrate: %w", err)
	}

	migrator := db.Migrator()
	type constraint struct {
		model interface{}
		name  string
		sql   string
	}
	for _, c := range []constraint{
		{&domain.Post{}, "fk_posts_panel",
			"ALTER TABLE posts ADD CONSTRAINT fk_posts_panel FOREIGN KEY (panel_code) REFERENCES panels(code) ON DELETE CASCADE"},
		{&domain.Presence{}, "fk_active_users_panel",
			"ALTER TABLE active_users ADD CONSTRAINT fk_active_users_panel FOREIGN KEY (panel_code) REFERENCES panels(code) ON DELETE CASCADE"},
	} {
		if !migrator.HasConstraint(c.model, c.name) {
			if err := db.Exec(c.sql).Error; err != nil {
				return fmt.Errorf("setup: add constraint %s: %w", c.name, err)
			}
		}
	}
	return nil
}

// InitRedis connects the shared Redis client used for caching, pub/sub,
// rate limiting and the asynq queues. It pings once so a bad address
// fails at startup instead of on the first request.
func InitRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
		MaxConnAge:   30 * time.Minute,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("setup: ping redis: %w", err)
	}
	return client, nil
}
