package handler

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blogapi/internal/auth"
	apperrors "blogapi/internal/errors"
	"blogapi/internal/model"
	"blogapi/internal/service"
)

type upload struct {
	name string
	body string
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *upload) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, file.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func postFields(title string) map[string]string {
	return map[string]string{"title": title, "summary": "S", "content": "C"}
}

func TestPostHandler_CreatePost(t *testing.T) {
	identity := auth.Identity{UserID: uuid.New()}

	t.Run("passes fields and cover to service", func(t *testing.T) {
		var received *service.CoverUpload
		var receivedBody string
		svc := new(MockPostService)
		svc.On("Create", mock.Anything, identity, service.PostInput{Title: "T", Summary: "S", Content: "C"}, mock.Anything).
			Run(func(args mock.Arguments) {
				received = args.Get(3).(*service.CoverUpload)
				b, _ := io.ReadAll(received.Body)
				receivedBody = string(b)
			}).
			Return(&model.Post{ID: uuid.New(), Title: "T", Cover: "uploads/x.png", AuthorID: identity.UserID}, nil).Once()

		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		rec := httptest.NewRecorder()
		c := e.NewContext(multipartRequest(t, http.MethodPost, "/api/post", postFields("T"), &upload{"a.png", "png-bytes"}), rec)
		c.Set(IdentityContextKey, identity)

		require.NoError(t, h.CreatePost(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"cover":"uploads/x.png"`)
		require.NotNil(t, received)
		assert.Equal(t, "a.png", received.Filename)
		assert.Equal(t, "png-bytes", receivedBody)
		svc.AssertExpectations(t)
	})

	t.Run("missing file reaches service as nil cover", func(t *testing.T) {
		svc := new(MockPostService)
		svc.On("Create", mock.Anything, identity, mock.Anything, (*service.CoverUpload)(nil)).
			Return(nil, apperrors.ErrCoverRequired).Once()

		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		c := e.NewContext(multipartRequest(t, http.MethodPost, "/api/post", postFields("T"), nil), httptest.NewRecorder())
		c.Set(IdentityContextKey, identity)

		assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.CreatePost(c)))
		svc.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		svc := new(MockPostService)
		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		fields := postFields("")
		c := e.NewContext(multipartRequest(t, http.MethodPost, "/api/post", fields, &upload{"a.png", "x"}), httptest.NewRecorder())
		c.Set(IdentityContextKey, identity)

		assert.Equal(t, http.StatusBadRequest, httpStatus(t, h.CreatePost(c)))
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPostHandler_UpdatePost(t *testing.T) {
	identity := auth.Identity{UserID: uuid.New()}
	postID := uuid.New()

	tests := []struct {
		name       string
		id         string
		file       *upload
		mockSetup  func(*MockPostService)
		wantStatus int
	}{
		{
			name: "updates without new cover",
			id:   postID.String(),
			mockSetup: func(m *MockPostService) {
				m.On("Update", mock.Anything, identity, postID, service.PostInput{Title: "T2", Summary: "S", Content: "C"}, (*service.CoverUpload)(nil)).
					Return(&model.Post{ID: postID, Title: "T2"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "updates with new cover",
			id:   postID.String(),
			file: &upload{"b.jpg", "jpg"},
			mockSetup: func(m *MockPostService) {
				m.On("Update", mock.Anything, identity, postID, mock.Anything, mock.MatchedBy(func(c *service.CoverUpload) bool {
					return c != nil && c.Filename == "b.jpg"
				})).Return(&model.Post{ID: postID, Title: "T2", Cover: "uploads/y.jpg"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not the author",
			id:   postID.String(),
			mockSetup: func(m *MockPostService) {
				m.On("Update", mock.Anything, identity, postID, mock.Anything, mock.Anything).Return(nil, apperrors.ErrForbidden).Once()
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "malformed id",
			id:         "not-a-uuid",
			mockSetup:  func(m *MockPostService) {},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPostService)
			tt.mockSetup(svc)
			h := NewPostHandler(svc, zap.NewNop())

			e := newEcho()
			rec := httptest.NewRecorder()
			c := e.NewContext(multipartRequest(t, http.MethodPut, "/api/post/"+tt.id, postFields("T2"), tt.file), rec)
			c.SetPath("/api/post/:id")
			c.SetParamNames("id")
			c.SetParamValues(tt.id)
			c.Set(IdentityContextKey, identity)

			err := h.UpdatePost(c)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Contains(t, rec.Body.String(), `"title":"T2"`)
			} else {
				assert.Equal(t, tt.wantStatus, httpStatus(t, err))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestPostHandler_ListPosts(t *testing.T) {
	t.Run("empty list is an empty array", func(t *testing.T) {
		svc := new(MockPostService)
		svc.On("List", mock.Anything).Return([]model.Post{}, nil).Once()

		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/posts", nil), rec)

		require.NoError(t, h.ListPosts(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("includes author username", func(t *testing.T) {
		author := &model.User{ID: uuid.New(), Username: "alice", PasswordHash: "$2a$hash"}
		svc := new(MockPostService)
		svc.On("List", mock.Anything).Return([]model.Post{{ID: uuid.New(), Title: "T", AuthorID: author.ID, Author: author}}, nil).Once()

		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/posts", nil), rec)

		require.NoError(t, h.ListPosts(c))
		assert.Contains(t, rec.Body.String(), `"username":"alice"`)
		assert.NotContains(t, rec.Body.String(), "$2a$hash")
	})
}

func TestPostHandler_GetPost(t *testing.T) {
	postID := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := new(MockPostService)
		svc.On("Get", mock.Anything, postID).Return(&model.Post{ID: postID, Title: "T"}, nil).Once()

		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/post/"+postID.String(), nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(postID.String())

		require.NoError(t, h.GetPost(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), postID.String())
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := new(MockPostService)
		svc.On("Get", mock.Anything, postID).Return(nil, apperrors.ErrNotFound).Once()

		h := NewPostHandler(svc, zap.NewNop())
		e := newEcho()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(postID.String())

		assert.Equal(t, http.StatusNotFound, httpStatus(t, h.GetPost(c)))
	})
}
