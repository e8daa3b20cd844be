package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
	"github.com/prlessa/My-Stickly-Notes/internal/tasks"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// Bounded retries for code generation: a collision (either seen by
	// the existence probe or surfacing as a duplicate-key error from a
	// racing insert) triggers a regenerate, never a failure by itself.
	maxCodeAttempts = 10

	panelCacheTTL = time.Hour
	storeTimeout  = 3 * time.Second
)

func panelCacheKey(code string) string { return "panel:" + code }

// TaskEnqueuer is the slice of asynq.Client the panel service needs to
// hand off best-effort work. Satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CreatePanelInput carries the caller-supplied fields for a new panel.
// Password and BorderColor are optional.
type CreatePanelInput struct {
	Name        string
	Variant     string
	Password    string
	Creator     string
	BorderColor string
}

// PanelService owns the panel lifecycle: code generation, creation,
// admission (password, capacity, idempotent re-entry) and cache-aside
// lookups. It is the only component that ever sees a password hash.
type PanelService struct {
	panelRepo    repository.PanelRepository
	presenceRepo repository.PresenceRepository
	cache        repository.Cache
	enqueuer     TaskEnqueuer
}

func NewPanelService(panelRepo repository.PanelRepository, presenceRepo repository.PresenceRepository, cache repository.Cache, enqueuer TaskEnqueuer) *PanelService {
	if panelRepo == nil {
		panic("PanelRepository cannot be nil for PanelService")
	}
	if presenceRepo == nil {
		panic("PresenceRepository cannot be nil for PanelService")
	}
	if cache == nil {
		panic("Cache cannot be nil for PanelService")
	}
	return &PanelService{
		panelRepo:    panelRepo,
		presenceRepo: presenceRepo,
		cache:        cache,
		enqueuer:     enqueuer,
	}
}

// Create validates the input, persists a panel under a freshly generated
// unique code and seeds the cache with the public projection.
func (s *PanelService) Create(ctx context.Context, input CreatePanelInput) (*domain.Panel, error) {
	if strings.TrimSpace(input.Name) == "" || input.Variant == "" || strings.TrimSpace(input.Creator) == "" {
		return nil, ErrMissingFields
	}
	maxUsers := domain.MaxUsersForVariant(input.Variant)
	if maxUsers == 0 {
		return nil, ErrInvalidVariant
	}
	logCtx := logrus.WithFields(logrus.Fields{"variant": input.Variant, "creator": input.Creator})

	passwordHash := ""
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			logCtx.WithError(err).Error("Failed to hash panel password")
			return nil, ErrStoreUnavailable
		}
		passwordHash = string(hashed)
	}

	borderColor := input.BorderColor
	if borderColor == "" {
		borderColor = "#D4A574"
	}

	panel := &domain.Panel{
		Name:         strings.TrimSpace(input.Name),
		Variant:      input.Variant,
		PasswordHash: passwordHash,
		Creator:      strings.TrimSpace(input.Creator),
		BorderColor:  borderColor,
		MaxUsers:     maxUsers,
		LastActivity: time.Now(),
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			logCtx.WithError(err).Error("Failed to generate panel code")
			return nil, ErrStoreUnavailable
		}

		sctx, cancel := context.WithTimeout(ctx, storeTimeout)
		exists, err := s.panelRepo.CodeExists(sctx, code)
		cancel()
		if err != nil {
			logCtx.WithError(err).Error("Failed to check panel code uniqueness")
			return nil, ErrStoreUnavailable
		}
		if exists {
			logCtx.WithField("code", code).Warnf("Generated panel code already exists, retrying (attempt %d)", attempt)
			continue
		}

		panel.Code = code
		sctx, cancel = context.WithTimeout(ctx, storeTimeout)
		err = s.panelRepo.Save(sctx, panel)
		cancel()
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateEntry) {
				// Lost the race to another process between the probe and
				// the insert. Regenerate and try again.
				logCtx.WithField("code", code).Warnf("Panel code collided on insert, retrying (attempt %d)", attempt)
				continue
			}
			logCtx.WithError(err).Error("Failed to save new panel")
			return nil, ErrStoreUnavailable
		}

		pub := panel.Public()
		s.seedCache(ctx, pub)
		logCtx.WithField("code", pub.Code).Info("Panel created")
		return pub, nil
	}

	logCtx.Errorf("Failed to allocate a unique panel code after %d attempts", maxCodeAttempts)
	return nil, ErrStoreUnavailable
}

// Admit checks password and capacity for a participant entering a panel.
// A participant who already holds a live presence row is re-admitted even
// when the panel is at capacity, so reconnects are never blocked.
func (s *PanelService) Admit(ctx context.Context, code, password, participant string) (*domain.Panel, error) {
	code = normalizeCode(code)
	// Presence rows store trimmed names; match that here or a padded
	// reconnect would miss its own row and bounce off the capacity check.
	participant = strings.TrimSpace(participant)
	logCtx := logrus.WithFields(logrus.Fields{"code": code, "participant": participant})

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	panel, err := s.panelRepo.FindByCode(sctx, code)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrPanelNotFound) {
			return nil, ErrPanelNotFound
		}
		logCtx.WithError(err).Error("Failed to load panel for admission")
		return nil, ErrStoreUnavailable
	}

	if panel.HasPassword() {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(panel.PasswordHash), []byte(password)) != nil {
			logCtx.Warn("Admission rejected: wrong password")
			return nil, ErrPasswordMismatch
		}
	}

	cutoff := time.Now().Add(-domain.PresenceWindow)
	sctx, cancel = context.WithTimeout(ctx, storeTimeout)
	active, err := s.presenceRepo.CountActive(sctx, code, cutoff)
	cancel()
	if err != nil {
		logCtx.WithError(err).Error("Failed to count active participants")
		return nil, ErrStoreUnavailable
	}
	if active >= int64(panel.MaxUsers) {
		sctx, cancel = context.WithTimeout(ctx, storeTimeout)
		present, err := s.presenceRepo.Exists(sctx, code, participant, cutoff)
		cancel()
		if err != nil {
			logCtx.WithError(err).Error("Failed to check participant presence")
			return nil, ErrStoreUnavailable
		}
		if !present {
			logCtx.WithField("max_users", panel.MaxUsers).Warn("Admission rejected: panel full")
			return nil, ErrPanelFull
		}
		logCtx.Debug("Panel at capacity but participant already present, re-admitting")
	}

	s.bumpActivity(code)
	return panel.Public(), nil
}

// Lookup is the cache-aside read for a panel's public projection. The
// password hash never enters the cache.
func (s *PanelService) Lookup(ctx context.Context, code string) (*domain.Panel, error) {
	code = normalizeCode(code)

	if data, err := s.cache.Get(ctx, panelCacheKey(code)); err == nil {
		var panel domain.Panel
		if err := json.Unmarshal(data, &panel); err == nil {
			return &panel, nil
		}
		logrus.WithField("code", code).Warn("Undecodable panel cache entry, falling through to store")
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		logrus.WithError(err).WithField("code", code).Warn("Panel cache read failed, falling through to store")
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	panel, err := s.panelRepo.FindByCode(sctx, code)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrPanelNotFound) {
			return nil, ErrPanelNotFound
		}
		logrus.WithError(err).WithField("code", code).Error("Failed to load panel")
		return nil, ErrStoreUnavailable
	}

	pub := panel.Public()
	s.seedCache(ctx, pub)
	return pub, nil
}

// seedCache stores a public projection under the panel key. Best-effort:
// a cache write failure degrades read latency, not correctness.
func (s *PanelService) seedCache(ctx context.Context, pub *domain.Panel) {
	data, err := json.Marshal(pub)
	if err != nil {
		logrus.WithError(err).WithField("code", pub.Code).Warn("Failed to marshal panel for cache")
		return
	}
	if err := s.cache.Set(ctx, panelCacheKey(pub.Code), data, panelCacheTTL); err != nil {
		logrus.WithError(err).WithField("code", pub.Code).Warn("Failed to seed panel cache")
	}
}

// bumpActivity enqueues a best-effort last-activity bump. Failure to
// enqueue is logged and never affects the admission result.
func (s *PanelService) bumpActivity(code string) {
	if s.enqueuer == nil {
		return
	}
	task, err := tasks.NewPanelActivityTask(code)
	if err != nil {
		logrus.WithError(err).WithField("code", code).Warn("Failed to build activity bump task")
		return
	}
	if _, err := s.enqueuer.Enqueue(task, asynq.MaxRetry(3), asynq.Queue("low")); err != nil {
		logrus.WithError(err).WithField("code", code).Warn("Failed to enqueue activity bump")
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode draws a 6-character code from A-Z0-9 using crypto/rand.
// The format is part of the sharing contract with existing clients.
// Bytes at or above the largest multiple of the alphabet size are
// rejected so every character is equally likely.
func generateCode() (string, error) {
	limit := byte(256 - 256%len(codeAlphabet))
	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		for _, v := range buf {
			if v >= limit {
				continue
			}
			code = append(code, codeAlphabet[int(v)%len(codeAlphabet)])
			if len(code) == codeLength {
				break
			}
		}
	}
	return string(code), nil
}
