package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
	"github.com/prlessa/My-Stickly-Notes/internal/repository/mocks"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func newPanelService(t *testing.T) (*service.PanelService, *mocks.PanelRepository, *mocks.PresenceRepository, *mocks.Cache) {
	t.Helper()
	panelRepo := new(mocks.PanelRepository)
	presenceRepo := new(mocks.PresenceRepository)
	cache := new(mocks.Cache)
	return service.NewPanelService(panelRepo, presenceRepo, cache, nil), panelRepo, presenceRepo, cache
}

func TestPanelService_Create_Success(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)
	ctx := context.Background()

	panelRepo.On("CodeExists", mock.Anything, mock.MatchedBy(func(code string) bool {
		return codePattern.MatchString(code)
	})).Return(false, nil).Once()
	panelRepo.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.Panel) bool {
		assert.True(t, codePattern.MatchString(p.Code), "code must be 6 chars from A-Z0-9")
		assert.Equal(t, domain.MaxUsersFriends, p.MaxUsers)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("hunter2")))
		return true
	})).Return(nil).Once()
	cache.On("Set", mock.Anything, mock.MatchedBy(func(key string) bool {
		return codePattern.MatchString(key[len("panel:"):])
	}), mock.MatchedBy(func(data []byte) bool {
		// The cached projection must never contain the password hash.
		var cached domain.Panel
		require.NoError(t, json.Unmarshal(data, &cached))
		return cached.PasswordHash == ""
	}), mock.Anything).Return(nil).Once()

	panel, err := svc.Create(ctx, service.CreatePanelInput{
		Name:     "Trip",
		Variant:  domain.VariantFriends,
		Password: "hunter2",
		Creator:  "Ana",
	})

	require.NoError(t, err)
	require.NotNil(t, panel)
	assert.True(t, codePattern.MatchString(panel.Code))
	assert.Equal(t, "Trip", panel.Name)
	assert.Equal(t, domain.MaxUsersFriends, panel.MaxUsers)
	assert.Equal(t, "#D4A574", panel.BorderColor)
	assert.Empty(t, panel.PasswordHash, "returned projection must not carry the hash")

	panelRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestPanelService_Create_CoupleCapacity(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	panelRepo.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	panelRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Panel")).Return(nil).Once()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	panel, err := svc.Create(context.Background(), service.CreatePanelInput{
		Name:    "Us",
		Variant: domain.VariantCouple,
		Creator: "Bea",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.MaxUsersCouple, panel.MaxUsers)
	assert.Empty(t, panel.PasswordHash)
}

func TestPanelService_Create_Validation(t *testing.T) {
	svc, panelRepo, _, _ := newPanelService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, service.CreatePanelInput{Variant: domain.VariantFriends, Creator: "Ana"})
	assert.ErrorIs(t, err, service.ErrMissingFields)

	_, err = svc.Create(ctx, service.CreatePanelInput{Name: "Trip", Variant: "enemies", Creator: "Ana"})
	assert.ErrorIs(t, err, service.ErrInvalidVariant)

	panelRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPanelService_Create_RegeneratesOnCollision(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	// First candidate exists, second is free.
	panelRepo.On("CodeExists", mock.Anything, mock.Anything).Return(true, nil).Once()
	panelRepo.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	panelRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Panel")).Return(nil).Once()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Create(context.Background(), service.CreatePanelInput{
		Name: "Trip", Variant: domain.VariantFriends, Creator: "Ana",
	})

	require.NoError(t, err)
	panelRepo.AssertExpectations(t)
}

func TestPanelService_Create_RegeneratesOnDuplicateInsert(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	// The existence probe races a concurrent create: the insert itself
	// hits the unique constraint and the service must retry with a new
	// code instead of failing.
	panelRepo.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil).Twice()
	panelRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Panel")).Return(repository.ErrDuplicateEntry).Once()
	panelRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Panel")).Return(nil).Once()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Create(context.Background(), service.CreatePanelInput{
		Name: "Trip", Variant: domain.VariantFriends, Creator: "Ana",
	})

	require.NoError(t, err)
	panelRepo.AssertExpectations(t)
}

func TestPanelService_Create_CacheFailureIsNotFatal(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	panelRepo.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil).Once()
	panelRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Panel")).Return(nil).Once()
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()

	_, err := svc.Create(context.Background(), service.CreatePanelInput{
		Name: "Trip", Variant: domain.VariantFriends, Creator: "Ana",
	})
	assert.NoError(t, err, "cache seeding is best-effort")
}

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hashed)
}

func TestPanelService_Admit_NotFound(t *testing.T) {
	svc, panelRepo, _, _ := newPanelService(t)

	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(nil, repository.ErrPanelNotFound).Once()

	_, err := svc.Admit(context.Background(), "ab12cd", "", "Ana")
	assert.ErrorIs(t, err, service.ErrPanelNotFound)
}

func TestPanelService_Admit_PasswordRequired(t *testing.T) {
	svc, panelRepo, _, _ := newPanelService(t)

	panel := &domain.Panel{Code: "AB12CD", Variant: domain.VariantFriends, MaxUsers: 15, PasswordHash: hashOf(t, "secret")}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(panel, nil).Once()

	_, err := svc.Admit(context.Background(), "AB12CD", "", "Ana")
	assert.ErrorIs(t, err, service.ErrPasswordRequired)
}

func TestPanelService_Admit_PasswordMismatch(t *testing.T) {
	svc, panelRepo, _, _ := newPanelService(t)

	panel := &domain.Panel{Code: "AB12CD", Variant: domain.VariantFriends, MaxUsers: 15, PasswordHash: hashOf(t, "secret")}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(panel, nil).Once()

	// Wrong password fails regardless of capacity: the capacity check
	// must never run.
	_, err := svc.Admit(context.Background(), "AB12CD", "nope", "Ana")
	assert.ErrorIs(t, err, service.ErrPasswordMismatch)
}

func TestPanelService_Admit_Success(t *testing.T) {
	svc, panelRepo, presenceRepo, _ := newPanelService(t)

	panel := &domain.Panel{Code: "AB12CD", Variant: domain.VariantFriends, MaxUsers: 15, PasswordHash: hashOf(t, "secret")}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(panel, nil).Once()
	presenceRepo.On("CountActive", mock.Anything, "AB12CD", mock.Anything).Return(int64(3), nil).Once()

	admitted, err := svc.Admit(context.Background(), "ab12cd", "secret", "Ana")

	require.NoError(t, err)
	assert.Equal(t, "AB12CD", admitted.Code)
	assert.Empty(t, admitted.PasswordHash)
	presenceRepo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPanelService_Admit_FullRejectsNewJoiner(t *testing.T) {
	svc, panelRepo, presenceRepo, _ := newPanelService(t)

	panel := &domain.Panel{Code: "AB12CD", Variant: domain.VariantCouple, MaxUsers: 2}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(panel, nil).Once()
	presenceRepo.On("CountActive", mock.Anything, "AB12CD", mock.Anything).Return(int64(2), nil).Once()
	presenceRepo.On("Exists", mock.Anything, "AB12CD", "Cora", mock.Anything).Return(false, nil).Once()

	_, err := svc.Admit(context.Background(), "AB12CD", "", "Cora")
	assert.ErrorIs(t, err, service.ErrPanelFull)
}

func TestPanelService_Admit_FullAllowsPresentParticipant(t *testing.T) {
	svc, panelRepo, presenceRepo, _ := newPanelService(t)

	panel := &domain.Panel{Code: "AB12CD", Variant: domain.VariantCouple, MaxUsers: 2}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(panel, nil).Once()
	presenceRepo.On("CountActive", mock.Anything, "AB12CD", mock.Anything).Return(int64(2), nil).Once()
	presenceRepo.On("Exists", mock.Anything, "AB12CD", "Ana", mock.Anything).Return(true, nil).Once()

	// Reconnecting participant gets back in even at capacity.
	admitted, err := svc.Admit(context.Background(), "AB12CD", "", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", admitted.Code)
}

func TestPanelService_Admit_FullTrimsParticipantName(t *testing.T) {
	svc, panelRepo, presenceRepo, _ := newPanelService(t)

	panel := &domain.Panel{Code: "AB12CD", Variant: domain.VariantCouple, MaxUsers: 2}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(panel, nil).Once()
	presenceRepo.On("CountActive", mock.Anything, "AB12CD", mock.Anything).Return(int64(2), nil).Once()
	// Heartbeat stores trimmed names; the re-entry probe must use the
	// same form or a padded reconnect bounces off the capacity check.
	presenceRepo.On("Exists", mock.Anything, "AB12CD", "Ana", mock.Anything).Return(true, nil).Once()

	_, err := svc.Admit(context.Background(), "AB12CD", "", " Ana ")

	require.NoError(t, err)
	presenceRepo.AssertExpectations(t)
}

func TestPanelService_Create_CodeFormatHolds(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	panelRepo.On("CodeExists", mock.Anything, mock.Anything).Return(false, nil)
	panelRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Panel")).Return(nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for i := 0; i < 50; i++ {
		panel, err := svc.Create(context.Background(), service.CreatePanelInput{
			Name: "Trip", Variant: domain.VariantFriends, Creator: "Ana",
		})
		require.NoError(t, err)
		assert.Regexp(t, codePattern, panel.Code)
	}
}

func TestPanelService_Lookup_CacheHit(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	cached, _ := json.Marshal(domain.Panel{Code: "AB12CD", Name: "Trip", Variant: domain.VariantFriends, MaxUsers: 15})
	cache.On("Get", mock.Anything, "panel:AB12CD").Return(cached, nil).Once()

	panel, err := svc.Lookup(context.Background(), "ab12cd")

	require.NoError(t, err)
	assert.Equal(t, "Trip", panel.Name)
	panelRepo.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
}

func TestPanelService_Lookup_MissFallsThroughAndPopulates(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	cache.On("Get", mock.Anything, "panel:AB12CD").Return(nil, repository.ErrCacheMiss).Once()
	stored := &domain.Panel{Code: "AB12CD", Name: "Trip", PasswordHash: "not-for-export", MaxUsers: 15}
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(stored, nil).Once()
	cache.On("Set", mock.Anything, "panel:AB12CD", mock.MatchedBy(func(data []byte) bool {
		var cached domain.Panel
		require.NoError(t, json.Unmarshal(data, &cached))
		return cached.PasswordHash == ""
	}), mock.Anything).Return(nil).Once()

	panel, err := svc.Lookup(context.Background(), "AB12CD")

	require.NoError(t, err)
	assert.Empty(t, panel.PasswordHash)
	cache.AssertExpectations(t)
}

func TestPanelService_Lookup_BadCacheEntryFallsThrough(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	cache.On("Get", mock.Anything, "panel:AB12CD").Return([]byte("{corrupt"), nil).Once()
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(&domain.Panel{Code: "AB12CD", MaxUsers: 15}, nil).Once()
	cache.On("Set", mock.Anything, "panel:AB12CD", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Lookup(context.Background(), "AB12CD")
	assert.NoError(t, err, "cache is never trusted as the sole source of truth")
	panelRepo.AssertExpectations(t)
}

func TestPanelService_Lookup_StoreErrorIsUnavailable(t *testing.T) {
	svc, panelRepo, _, cache := newPanelService(t)

	cache.On("Get", mock.Anything, "panel:AB12CD").Return(nil, repository.ErrCacheMiss).Once()
	panelRepo.On("FindByCode", mock.Anything, "AB12CD").Return(nil, errors.New("connection refused")).Once()

	_, err := svc.Lookup(context.Background(), "AB12CD")
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}
