package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blogapi/internal/auth"
	apperrors "blogapi/internal/errors"
	"blogapi/internal/model"
	"blogapi/internal/repository"
	"blogapi/internal/storage"
)

// A Get that read a row before a concurrent Update can repopulate the cache
// after the update invalidated it, so the TTLs bound how long a stale post lives.
const (
	postCacheTTL     = 30 * time.Second
	postListCacheKey = "posts:all"
	postListCacheTTL = 15 * time.Second
)

// PostInput carries the editable text fields of a post. Updates replace all three.
type PostInput struct {
	Title   string
	Summary string
	Content string
}

// CoverUpload is a cover file received with a request.
type CoverUpload struct {
	Filename string
	Body     io.Reader
}

// Authorizer decides whether an identity may modify a resource.
type Authorizer interface {
	Authorize(identity auth.Identity, resource auth.Owned) error
}

// PostService handles post operations.
type PostService interface {
	Create(ctx context.Context, identity auth.Identity, in PostInput, cover *CoverUpload) (*model.Post, error)
	Update(ctx context.Context, identity auth.Identity, id uuid.UUID, in PostInput, cover *CoverUpload) (*model.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
}

type postService struct {
	repo     repository.PostRepository
	uploader storage.Uploader
	guard    Authorizer
	cache    Cache
}

// NewPostService creates a new post service.
func NewPostService(repo repository.PostRepository, uploader storage.Uploader, guard Authorizer, cache Cache) PostService {
	return &postService{
		repo:     repo,
		uploader: uploader,
		guard:    guard,
		cache:    orNoCache(cache),
	}
}

func (s *postService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("post:%s", id)
}

// Create stores the cover and then persists a post authored by identity.
func (s *postService) Create(ctx context.Context, identity auth.Identity, in PostInput, cover *CoverUpload) (*model.Post, error) {
	if identity.IsZero() {
		return nil, apperrors.ErrUnauthenticated
	}
	if cover == nil {
		return nil, apperrors.ErrCoverRequired
	}

	handle, err := s.uploader.Store(ctx, cover.Body, cover.Filename)
	if err != nil {
		return nil, apperrors.Store("store cover", err)
	}

	post := &model.Post{
		ID:       uuid.New(),
		Title:    in.Title,
		Summary:  in.Summary,
		Content:  in.Content,
		Cover:    handle,
		AuthorID: identity.UserID,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, apperrors.Store("create post", err)
	}

	_ = s.cache.Delete(ctx, postListCacheKey)
	return post, nil
}

// Update replaces the text fields of a post owned by identity, and the cover
// only when a new one is supplied. Ownership is checked before anything is written.
func (s *postService) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, in PostInput, cover *CoverUpload) (*model.Post, error) {
	if identity.IsZero() {
		return nil, apperrors.ErrUnauthenticated
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Store("find post", err)
	}

	if err := s.guard.Authorize(identity, post); err != nil {
		return nil, err
	}

	if cover != nil {
		handle, err := s.uploader.Store(ctx, cover.Body, cover.Filename)
		if err != nil {
			return nil, apperrors.Store("store cover", err)
		}
		post.Cover = handle
	}

	post.Title = in.Title
	post.Summary = in.Summary
	post.Content = in.Content

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, apperrors.Store("update post", err)
	}

	_ = s.cache.Delete(ctx, s.cacheKey(id), postListCacheKey)
	return post, nil
}

// Get returns a post with its author's public identity.
func (s *postService) Get(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var cached model.Post
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	post, err := s.repo.FindByIDWithAuthor(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Store("find post", err)
	}

	s.cache.SetJSON(ctx, s.cacheKey(id), post, postCacheTTL)
	return post, nil
}

// List returns every post, newest first.
func (s *postService) List(ctx context.Context) ([]model.Post, error) {
	var cached []model.Post
	if s.cache.GetJSON(ctx, postListCacheKey, &cached) {
		return cached, nil
	}

	posts, err := s.repo.ListWithAuthor(ctx)
	if err != nil {
		return nil, apperrors.Store("list posts", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}

	s.cache.SetJSON(ctx, postListCacheKey, posts, postListCacheTTL)
	return posts, nil
}
