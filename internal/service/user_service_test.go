package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "blogapi/internal/errors"
	"blogapi/internal/model"
)

func TestUserService_GetProfile(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Username: "alice", PasswordHash: "secret-hash"}, nil)

	profile, err := NewUserService(mockRepo, nil).GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.PublicUser{ID: id, Username: "alice"}, *profile)
	mockRepo.AssertExpectations(t)
}

func TestUserService_GetProfileNotFound(t *testing.T) {
	id := uuid.New()
	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := NewUserService(mockRepo, nil).GetProfile(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
