package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/sbx/internal/models"
)

// MockReviewRepository is a mock implementation of repository.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Insert(ctx context.Context, review models.Review) (int64, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter models.ReviewFilter) ([]models.Review, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *MockReviewRepository) Count(ctx context.Context, filter models.ReviewFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewRepository) Stats(ctx context.Context, filter models.ReviewFilter, now time.Time) (*models.ReviewStats, error) {
	args := m.Called(ctx, filter, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewStats), args.Error(1)
}
