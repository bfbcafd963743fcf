package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-fuel/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MockBalanceCollection struct {
	mock.Mock
}

func (m *MockBalanceCollection) IncrementLevel(ctx context.Context, tankID string, delta primitive.Decimal128) (*models.TankBalance, error) {
	args := m.Called(ctx, tankID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankBalance), args.Error(1)
}

func (m *MockBalanceCollection) FindBalance(ctx context.Context, tankID string) (*models.TankBalance, error) {
	args := m.Called(ctx, tankID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankBalance), args.Error(1)
}

type MockSettingsCollection struct {
	mock.Mock
}

func (m *MockSettingsCollection) FindTankSettings(ctx context.Context) (*models.TankSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TankSettings), args.Error(1)
}

type MockTransactionCollection struct {
	mock.Mock
}

func (m *MockTransactionCollection) FindRecentTransactions(ctx context.Context, limit int64) ([]models.TransactionRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransactionRecord), args.Error(1)
}

func mustDecimal128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		t.Fatalf("Failed to parse decimal %q: %v", s, err)
	}
	return d
}

func TestStockHandler_GetStock(t *testing.T) {
	t.Run("full stock view", func(t *testing.T) {
		balances := new(MockBalanceCollection)
		settings := new(MockSettingsCollection)
		transactions := new(MockTransactionCollection)
		handler := NewStockHandler(balances, settings, transactions, "")

		updatedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
		balances.On("FindBalance", mock.Anything, models.DefaultTankID).Return(&models.TankBalance{
			TankID:    models.DefaultTankID,
			Level:     mustDecimal128(t, "954.5"),
			UpdatedAt: updatedAt,
		}, nil)
		settings.On("FindTankSettings", mock.Anything).Return(&models.TankSettings{
			ID:       "tank",
			Capacity: mustDecimal128(t, "15000"),
		}, nil)
		transactions.On("FindRecentTransactions", mock.Anything, int64(5)).Return([]models.TransactionRecord{
			{Type: models.TransactionOut, Date: updatedAt, Amount: mustDecimal128(t, "45.5"), Description: "ABC1D23"},
		}, nil)

		req := httptest.NewRequest("GET", "/api/stock", nil)
		w := httptest.NewRecorder()

		handler.GetStock(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response stockResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, models.DefaultTankID, response.TankID)
		assert.Equal(t, "954.5", response.Level)
		assert.Equal(t, "15000", response.Capacity)
		assert.Equal(t, "2026-03-14T10:00:00Z", response.UpdatedAt)
		assert.Len(t, response.Transactions, 1)

		balances.AssertExpectations(t)
		settings.AssertExpectations(t)
		transactions.AssertExpectations(t)
	})

	t.Run("missing tank document reads as zero", func(t *testing.T) {
		balances := new(MockBalanceCollection)
		settings := new(MockSettingsCollection)
		transactions := new(MockTransactionCollection)
		handler := NewStockHandler(balances, settings, transactions, "")

		balances.On("FindBalance", mock.Anything, models.DefaultTankID).Return(nil, nil)
		settings.On("FindTankSettings", mock.Anything).Return(nil, assert.AnError)
		transactions.On("FindRecentTransactions", mock.Anything, int64(5)).Return(nil, assert.AnError)

		req := httptest.NewRequest("GET", "/api/stock", nil)
		w := httptest.NewRecorder()

		handler.GetStock(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response stockResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, "0", response.Level)
		assert.Empty(t, response.Capacity)
		assert.NotNil(t, response.Transactions)
		assert.Len(t, response.Transactions, 0)
	})

	t.Run("balance read failure", func(t *testing.T) {
		balances := new(MockBalanceCollection)
		settings := new(MockSettingsCollection)
		transactions := new(MockTransactionCollection)
		handler := NewStockHandler(balances, settings, transactions, "")

		balances.On("FindBalance", mock.Anything, models.DefaultTankID).Return(nil, assert.AnError)

		req := httptest.NewRequest("GET", "/api/stock", nil)
		w := httptest.NewRecorder()

		handler.GetStock(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		handler := NewStockHandler(new(MockBalanceCollection), new(MockSettingsCollection), new(MockTransactionCollection), "")

		req := httptest.NewRequest("POST", "/api/stock", nil)
		w := httptest.NewRecorder()

		handler.GetStock(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
