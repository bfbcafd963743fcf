package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-fuel/internal/db"
	"github.com/ukydev/fleet-fuel/internal/models"
)

const recentTransactionLimit = 5

// StockHandler serves the stock overview screen
type StockHandler struct {
	balances     db.BalanceCollection
	settings     db.SettingsCollection
	transactions db.TransactionCollection
	tankID       string
}

// NewStockHandler creates a new stock handler
func NewStockHandler(balances db.BalanceCollection, settings db.SettingsCollection, transactions db.TransactionCollection, tankID string) *StockHandler {
	if tankID == "" {
		tankID = models.DefaultTankID
	}
	return &StockHandler{
		balances:     balances,
		settings:     settings,
		transactions: transactions,
		tankID:       tankID,
	}
}

// stockResponse combines the current level, the configured capacity and
// the latest history entries in one payload.
type stockResponse struct {
	TankID       string                     `json:"tank_id"`
	Level        string                     `json:"level"`
	Capacity     string                     `json:"capacity,omitempty"`
	UpdatedAt    string                     `json:"updated_at,omitempty"`
	Transactions []models.TransactionRecord `json:"transactions"`
}

// GetStock handles GET /api/stock
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := stockResponse{
		TankID:       h.tankID,
		Level:        "0",
		Transactions: []models.TransactionRecord{},
	}

	balance, err := h.balances.FindBalance(r.Context(), h.tankID)
	if err != nil {
		log.WithError(err).Error("Failed to load tank balance")
		http.Error(w, "Failed to load stock", http.StatusServiceUnavailable)
		return
	}
	// A tank with no document yet reads as level zero.
	if balance != nil {
		response.Level = balance.Level.String()
		if !balance.UpdatedAt.IsZero() {
			response.UpdatedAt = balance.UpdatedAt.UTC().Format(time.RFC3339)
		}
	}

	settings, err := h.settings.FindTankSettings(r.Context())
	if err != nil {
		log.WithError(err).Warn("Failed to load tank settings")
	} else if settings != nil {
		response.Capacity = settings.Capacity.String()
	}

	transactions, err := h.transactions.FindRecentTransactions(r.Context(), recentTransactionLimit)
	if err != nil {
		log.WithError(err).Warn("Failed to load recent transactions")
	} else if transactions != nil {
		response.Transactions = transactions
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
