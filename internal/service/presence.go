package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
)

// PresenceService owns the active-user roster. Capacity is never checked
// here: a heartbeat from a participant who is already inside must not
// fail because the panel is full. Admission (PanelService.Admit) is the
// only capacity gate.
type PresenceService struct {
	presenceRepo repository.PresenceRepository
}

func NewPresenceService(presenceRepo repository.PresenceRepository) *PresenceService {
	if presenceRepo == nil {
		panic("PresenceRepository cannot be nil for PresenceService")
	}
	return &PresenceService{presenceRepo: presenceRepo}
}

// Heartbeat inserts the participant's presence row or refreshes its
// last-seen timestamp.
func (s *PresenceService) Heartbeat(ctx context.Context, code, name string) error {
	code = normalizeCode(code)
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.presenceRepo.Upsert(sctx, code, name); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"code": code, "name": name}).Error("Failed to upsert presence")
		return ErrStoreUnavailable
	}
	return nil
}

// ActiveRoster lists participants seen within the presence window,
// ordered by join time.
func (s *PresenceService) ActiveRoster(ctx context.Context, code string) ([]domain.RosterEntry, error) {
	code = normalizeCode(code)
	cutoff := time.Now().Add(-domain.PresenceWindow)

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	rows, err := s.presenceRepo.ListActive(sctx, code, cutoff)
	if err != nil {
		logrus.WithError(err).WithField("code", code).Error("Failed to list active participants")
		return nil, ErrStoreUnavailable
	}

	roster := make([]domain.RosterEntry, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, domain.RosterEntry{Name: row.Name, JoinedAt: row.JoinedAt})
	}
	return roster, nil
}

// Remove handles an explicit leave. Leaving twice is not an error.
func (s *PresenceService) Remove(ctx context.Context, code, name string) error {
	code = normalizeCode(code)

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.presenceRepo.Delete(sctx, code, name); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"code": code, "name": name}).Error("Failed to remove presence")
		return ErrStoreUnavailable
	}
	return nil
}

// SweepStale deletes every presence row, across all panels, whose
// last-seen predates the staleness window. Driven by the periodic worker
// task, independent of any single panel's activity.
func (s *PresenceService) SweepStale(ctx context.Context) error {
	cutoff := time.Now().Add(-domain.PresenceWindow)

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	removed, err := s.presenceRepo.DeleteSeenBefore(sctx, cutoff)
	if err != nil {
		logrus.WithError(err).Error("Presence sweep failed")
		return ErrStoreUnavailable
	}
	if removed > 0 {
		logrus.WithField("removed", removed).Info("Swept stale presence rows")
	}
	return nil
}
