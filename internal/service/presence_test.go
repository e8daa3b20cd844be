package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository/mocks"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

// withinWindow matches a cutoff roughly PresenceWindow in the past.
func withinWindow(t *testing.T) interface{} {
	t.Helper()
	return mock.MatchedBy(func(cutoff time.Time) bool {
		expected := time.Now().Add(-domain.PresenceWindow)
		return cutoff.After(expected.Add(-10*time.Second)) && cutoff.Before(expected.Add(10*time.Second))
	})
}

func TestPresenceService_Heartbeat_UpsertsNormalizedCode(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepository)
	svc := service.NewPresenceService(presenceRepo)

	presenceRepo.On("Upsert", mock.Anything, "AB12CD", "Ana").Return(nil).Once()

	err := svc.Heartbeat(context.Background(), "ab12cd", " Ana ")

	require.NoError(t, err)
	presenceRepo.AssertExpectations(t)
}

func TestPresenceService_Heartbeat_NameRequired(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepository)
	svc := service.NewPresenceService(presenceRepo)

	err := svc.Heartbeat(context.Background(), "AB12CD", "  ")

	assert.ErrorIs(t, err, service.ErrNameRequired)
	presenceRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestPresenceService_ActiveRoster(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepository)
	svc := service.NewPresenceService(presenceRepo)

	joined := time.Now().Add(-time.Minute)
	presenceRepo.On("ListActive", mock.Anything, "AB12CD", withinWindow(t)).
		Return([]domain.Presence{
			{PanelCode: "AB12CD", Name: "Ana", JoinedAt: joined},
			{PanelCode: "AB12CD", Name: "Bea", JoinedAt: joined.Add(time.Second)},
		}, nil).Once()

	roster, err := svc.ActiveRoster(context.Background(), "AB12CD")

	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Ana", roster[0].Name)
	assert.Equal(t, "Bea", roster[1].Name)
}

func TestPresenceService_Remove_Idempotent(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepository)
	svc := service.NewPresenceService(presenceRepo)

	// Deleting an absent row is not an error at the repository level, so
	// leaving twice succeeds twice.
	presenceRepo.On("Delete", mock.Anything, "AB12CD", "Ana").Return(nil).Twice()

	require.NoError(t, svc.Remove(context.Background(), "AB12CD", "Ana"))
	require.NoError(t, svc.Remove(context.Background(), "AB12CD", "Ana"))
	presenceRepo.AssertExpectations(t)
}

func TestPresenceService_SweepStale(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepository)
	svc := service.NewPresenceService(presenceRepo)

	presenceRepo.On("DeleteSeenBefore", mock.Anything, withinWindow(t)).Return(int64(3), nil).Once()

	require.NoError(t, svc.SweepStale(context.Background()))
	presenceRepo.AssertExpectations(t)
}

func TestPresenceService_SweepStale_StoreError(t *testing.T) {
	presenceRepo := new(mocks.PresenceRepository)
	svc := service.NewPresenceService(presenceRepo)

	presenceRepo.On("DeleteSeenBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("connection refused")).Once()

	err := svc.SweepStale(context.Background())
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}
