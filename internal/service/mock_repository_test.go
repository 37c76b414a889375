package service

import (
	"context"

	"github.com/rongwang/budget-server/internal/models"
	"github.com/rongwang/budget-server/internal/repository"
	"github.com/stretchr/testify/mock"
)

// mockRepository serves everything from memory except the methods a test
// wants to fail or observe, which go through testify's mock.
type mockRepository struct {
	*repository.MemoryRepository
	mock.Mock
}

func newMockRepository() *mockRepository {
	return &mockRepository{MemoryRepository: repository.NewMemoryRepository()}
}

func (m *mockRepository) GetGoal(ctx context.Context, userID string, month models.MonthKey) (*models.MonthlyGoal, error) {
	args := m.Called(ctx, userID, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyGoal), args.Error(1)
}

func (m *mockRepository) ListTransactions(ctx context.Context, userID string, filter models.TransactionFilter) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *mockRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}
