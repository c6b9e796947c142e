package card

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lending-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) SaveCard(ctx context.Context, c *DebitCard) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCardRepository) FindCardByID(ctx context.Context, cardID int64) (*DebitCard, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DebitCard), args.Error(1)
}

func (m *MockCardRepository) FindCardsByCustomer(ctx context.Context, customerID int64) ([]*DebitCard, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*DebitCard), args.Error(1)
}

func (m *MockCardRepository) DeleteCard(ctx context.Context, cardID int64) error {
	args := m.Called(ctx, cardID)
	return args.Error(0)
}

func (m *MockCardRepository) CountTransactions(ctx context.Context, cardID int64) (int, error) {
	args := m.Called(ctx, cardID)
	return args.Int(0), args.Error(1)
}

func (m *MockCardRepository) SaveTransaction(ctx context.Context, tx *Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCardRepository) FindTransactionByID(ctx context.Context, transactionID int64) (*Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockCardRepository) FindTransactionsByCard(ctx context.Context, cardID int64) ([]*Transaction, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Transaction), args.Error(1)
}

func TestCreateCard(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an active card with a generated number", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		mockRepo.On("SaveCard", ctx, mock.AnythingOfType("*card.DebitCard")).Return(nil)

		c, err := service.CreateCard(ctx, 1, "visa")
		require.NoError(t, err)
		assert.Equal(t, "VISA", c.Type)
		assert.Len(t, c.Number, 16)
		assert.True(t, c.IsActive())
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects empty card type", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		_, err := service.CreateCard(ctx, 1, "  ")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestGetCardOwnership(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCardRepository)
	service := NewCardService(mockRepo, nil, testLogger)

	owned := &DebitCard{ID: 10, CustomerID: 1}
	mockRepo.On("FindCardByID", ctx, int64(10)).Return(owned, nil)

	c, err := service.GetCard(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, owned, c)

	_, err = service.GetCard(ctx, 2, 10)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSetCardActive(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCardRepository)
	service := NewCardService(mockRepo, nil, testLogger)

	c := NewDebitCard(1, "VISA")
	c.ID = 10
	c.Disable()
	mockRepo.On("FindCardByID", ctx, int64(10)).Return(c, nil)
	mockRepo.On("SaveCard", ctx, c).Return(nil)

	updated, err := service.SetCardActive(ctx, 1, 10, true)
	require.NoError(t, err)
	assert.True(t, updated.IsActive())

	updated, err = service.SetCardActive(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive())
}

func TestDeleteCard(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes a card without transactions", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		mockRepo.On("FindCardByID", ctx, int64(10)).Return(&DebitCard{ID: 10, CustomerID: 1}, nil)
		mockRepo.On("CountTransactions", ctx, int64(10)).Return(0, nil)
		mockRepo.On("DeleteCard", ctx, int64(10)).Return(nil)

		err := service.DeleteCard(ctx, 1, 10)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("refuses to delete a card with transactions", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		mockRepo.On("FindCardByID", ctx, int64(10)).Return(&DebitCard{ID: 10, CustomerID: 1}, nil)
		mockRepo.On("CountTransactions", ctx, int64(10)).Return(3, nil)

		err := service.DeleteCard(ctx, 1, 10)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
		mockRepo.AssertNotCalled(t, "DeleteCard")
	})
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("records a transaction on an owned active card", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		mockRepo.On("FindCardByID", ctx, int64(10)).Return(&DebitCard{ID: 10, CustomerID: 1}, nil)
		mockRepo.On("SaveTransaction", ctx, mock.AnythingOfType("*card.Transaction")).Return(nil)

		tx, err := service.CreateTransaction(ctx, 1, 10, 2500, "IDR")
		require.NoError(t, err)
		assert.Equal(t, int64(2500), tx.Amount)
		assert.Equal(t, "IDR", tx.CurrencyCode)
	})

	t.Run("rejects transactions on another customer's card", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		mockRepo.On("FindCardByID", ctx, int64(10)).Return(&DebitCard{ID: 10, CustomerID: 9}, nil)

		_, err := service.CreateTransaction(ctx, 1, 10, 2500, "IDR")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		mockRepo.AssertNotCalled(t, "SaveTransaction")
	})

	t.Run("rejects transactions on a disabled card", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		disabled := NewDebitCard(1, "VISA")
		disabled.ID = 10
		disabled.Disable()
		mockRepo.On("FindCardByID", ctx, int64(10)).Return(disabled, nil)

		_, err := service.CreateTransaction(ctx, 1, 10, 2500, "IDR")
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("rejects non-positive amounts and malformed currencies", func(t *testing.T) {
		mockRepo := new(MockCardRepository)
		service := NewCardService(mockRepo, nil, testLogger)

		_, err := service.CreateTransaction(ctx, 1, 10, 0, "IDR")
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, err = service.CreateTransaction(ctx, 1, 10, 100, "rupiah")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestGetTransactionOwnership(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockCardRepository)
	service := NewCardService(mockRepo, nil, testLogger)

	tx := &Transaction{ID: 5, DebitCardID: 10, Amount: 100, CurrencyCode: "THB"}
	mockRepo.On("FindTransactionByID", ctx, int64(5)).Return(tx, nil)
	mockRepo.On("FindCardByID", ctx, int64(10)).Return(&DebitCard{ID: 10, CustomerID: 1}, nil)

	got, err := service.GetTransaction(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	_, err = service.GetTransaction(ctx, 2, 5)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
