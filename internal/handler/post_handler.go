package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "blogapi/internal/errors"
	"blogapi/internal/service"
)

// coverField is the multipart field carrying the cover image.
const coverField = "file"

// PostHandler handles post endpoints.
type PostHandler struct {
	postService service.PostService
	log         *zap.Logger
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService, log *zap.Logger) *PostHandler {
	return &PostHandler{postService: postService, log: log}
}

// PostRequest represents the text fields of a create or update request.
type PostRequest struct {
	Title   string `form:"title" json:"title" validate:"required"`
	Summary string `form:"summary" json:"summary" validate:"required"`
	Content string `form:"content" json:"content" validate:"required"`
}

func (r PostRequest) input() service.PostInput {
	return service.PostInput{Title: r.Title, Summary: r.Summary, Content: r.Content}
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security CookieAuth
// @Param title formData string true "Title"
// @Param summary formData string true "Summary"
// @Param content formData string true "Content"
// @Param file formData file true "Cover image"
// @Success 200 {object} model.Post
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /post [post]
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	cover, closeCover, err := coverFrom(c)
	if err != nil {
		return badRequest(err.Error())
	}
	defer closeCover()

	post, err := h.postService.Create(c.Request().Context(), identityFrom(c), req.input(), cover)
	if err != nil {
		return errorResponse(c, h.log, err)
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost godoc
// @Summary Update a post
// @Description Replaces title, summary and content. The cover is replaced only when a file is sent.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Security CookieAuth
// @Param id path string true "Post ID"
// @Param title formData string true "Title"
// @Param summary formData string true "Summary"
// @Param content formData string true "Content"
// @Param file formData file false "New cover image"
// @Success 200 {object} model.Post
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /post/{id} [put]
func (h *PostHandler) UpdatePost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorResponse(c, h.log, apperrors.ErrNotFound)
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	cover, closeCover, err := coverFrom(c)
	if err != nil {
		return badRequest(err.Error())
	}
	defer closeCover()

	post, err := h.postService.Update(c.Request().Context(), identityFrom(c), id, req.input(), cover)
	if err != nil {
		return errorResponse(c, h.log, err)
	}
	return c.JSON(http.StatusOK, post)
}

// ListPosts godoc
// @Summary List posts
// @Description Newest first, with each author's id and username.
// @Tags posts
// @Produce json
// @Success 200 {array} model.Post
// @Failure 503 {object} errors.ErrorResponse
// @Router /posts [get]
func (h *PostHandler) ListPosts(c echo.Context) error {
	posts, err := h.postService.List(c.Request().Context())
	if err != nil {
		return errorResponse(c, h.log, err)
	}
	return c.JSON(http.StatusOK, posts)
}

// GetPost godoc
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} errors.ErrorResponse
// @Router /post/{id} [get]
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return errorResponse(c, h.log, apperrors.ErrNotFound)
	}

	post, err := h.postService.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, h.log, err)
	}
	return c.JSON(http.StatusOK, post)
}

// coverFrom opens the uploaded cover, if any. The returned close func is always safe to call.
func coverFrom(c echo.Context) (*service.CoverUpload, func(), error) {
	noop := func() {}

	fh, err := c.FormFile(coverField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, fmt.Errorf("read cover: %w", err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("open cover: %w", err)
	}
	return &service.CoverUpload{Filename: fh.Filename, Body: f}, closeFile(f), nil
}

func closeFile(f multipart.File) func() {
	return func() { _ = f.Close() }
}
