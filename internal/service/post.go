package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
	"github.com/prlessa/My-Stickly-Notes/internal/repository"
)

// Posts mutate far more often than panels, so their cache entries expire
// quickly; consistency is driven by explicit invalidation, the TTL is
// only a backstop.
const postsCacheTTL = 5 * time.Minute

func postsCacheKey(code string) string { return "posts:" + code }

// PanelLookup is the one panel operation the post service needs.
// Satisfied by *PanelService.
type PanelLookup interface {
	Lookup(ctx context.Context, code string) (*domain.Panel, error)
}

// CreatePostInput carries caller-supplied fields for a new post.
// AuthorName empty means anonymous; Color and positions default when nil
// or empty.
type CreatePostInput struct {
	AuthorName string
	Content    string
	Color      string
	PositionX  *int
	PositionY  *int
}

// PostService owns the note lifecycle. Every successful mutation
// invalidates the panel's post-list cache entry and publishes an event on
// the sync bus; both steps are best-effort because the durable row, not
// the notification, is the availability-critical property.
type PostService struct {
	postRepo repository.PostRepository
	panels   PanelLookup
	cache    repository.Cache
	bus      repository.Bus
}

func NewPostService(postRepo repository.PostRepository, panels PanelLookup, cache repository.Cache, bus repository.Bus) *PostService {
	if postRepo == nil {
		panic("PostRepository cannot be nil for PostService")
	}
	if panels == nil {
		panic("PanelLookup cannot be nil for PostService")
	}
	if cache == nil {
		panic("Cache cannot be nil for PostService")
	}
	if bus == nil {
		panic("Bus cannot be nil for PostService")
	}
	return &PostService{postRepo: postRepo, panels: panels, cache: cache, bus: bus}
}

// List is the cache-aside read of a panel's posts, newest first.
func (s *PostService) List(ctx context.Context, code string) ([]domain.Post, error) {
	code = normalizeCode(code)

	if data, err := s.cache.Get(ctx, postsCacheKey(code)); err == nil {
		var posts []domain.Post
		if err := json.Unmarshal(data, &posts); err == nil {
			return posts, nil
		}
		logrus.WithField("code", code).Warn("Undecodable posts cache entry, falling through to store")
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		logrus.WithError(err).WithField("code", code).Warn("Posts cache read failed, falling through to store")
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	posts, err := s.postRepo.ListByPanel(sctx, code)
	cancel()
	if err != nil {
		logrus.WithError(err).WithField("code", code).Error("Failed to list posts")
		return nil, ErrStoreUnavailable
	}

	if data, err := json.Marshal(posts); err == nil {
		if err := s.cache.Set(ctx, postsCacheKey(code), data, postsCacheTTL); err != nil {
			logrus.WithError(err).WithField("code", code).Warn("Failed to populate posts cache")
		}
	}
	return posts, nil
}

// Create validates and persists a new post, then notifies subscribers.
func (s *PostService) Create(ctx context.Context, code string, input CreatePostInput) (*domain.Post, error) {
	code = normalizeCode(code)
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	panel, err := s.panels.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if input.AuthorName == "" && panel.Variant == domain.VariantCouple {
		return nil, ErrAnonymousNotAllowed
	}

	color := input.Color
	if color == "" {
		color = domain.DefaultPostColor
	}
	x, err := resolvePosition(input.PositionX, domain.DefaultPositionX)
	if err != nil {
		return nil, err
	}
	y, err := resolvePosition(input.PositionY, domain.DefaultPositionY)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:         uuid.NewString(),
		PanelCode:  code,
		AuthorName: input.AuthorName,
		Content:    content,
		Color:      color,
		PositionX:  x,
		PositionY:  y,
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	err = s.postRepo.Save(sctx, post)
	cancel()
	if err != nil {
		logrus.WithError(err).WithField("code", code).Error("Failed to save post")
		return nil, ErrStoreUnavailable
	}

	s.notify(ctx, code, domain.Event{Type: domain.EventNewPost, Post: post})
	return post, nil
}

// Move updates a post's position. The panel code scopes the cache
// invalidation and the event channel; it is trusted from the caller and
// not re-derived from the row.
func (s *PostService) Move(ctx context.Context, postID, code string, x, y int) (*domain.Post, error) {
	code = normalizeCode(code)
	if x < 0 || y < 0 {
		return nil, ErrInvalidPosition
	}

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	post, err := s.postRepo.UpdatePosition(sctx, postID, x, y)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		logrus.WithError(err).WithField("post_id", postID).Error("Failed to update post position")
		return nil, ErrStoreUnavailable
	}

	s.notify(ctx, code, domain.Event{Type: domain.EventPostMoved, Post: post})
	return post, nil
}

// Remove deletes a post. The published event carries only the id; the row
// no longer exists.
func (s *PostService) Remove(ctx context.Context, postID, code string) error {
	code = normalizeCode(code)

	sctx, cancel := context.WithTimeout(ctx, storeTimeout)
	err := s.postRepo.Delete(sctx, postID)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return ErrPostNotFound
		}
		logrus.WithError(err).WithField("post_id", postID).Error("Failed to delete post")
		return ErrStoreUnavailable
	}

	s.notify(ctx, code, domain.Event{Type: domain.EventPostDeleted, PostID: postID})
	return nil
}

// notify invalidates the panel's post cache and publishes the event.
// Failures here are logged and swallowed: a missed notification is
// repaired by the client's next list fetch.
func (s *PostService) notify(ctx context.Context, code string, event domain.Event) {
	logCtx := logrus.WithFields(logrus.Fields{"code": code, "event": event.Type})
	if err := s.cache.Delete(ctx, postsCacheKey(code)); err != nil {
		logCtx.WithError(err).Warn("Failed to invalidate posts cache")
	}
	if err := s.bus.Publish(ctx, code, event); err != nil {
		logCtx.WithError(err).Warn("Failed to publish event")
	}
}

func resolvePosition(v *int, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	if *v < 0 {
		return 0, ErrInvalidPosition
	}
	return *v, nil
}
