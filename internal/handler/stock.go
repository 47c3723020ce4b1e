package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/papermarket/internal/domain"
	"github.com/efreitasn/papermarket/internal/service"
)

// StockHandler handles HTTP requests for market and portfolio endpoints.
type StockHandler struct {
	marketSvc *service.MarketService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(marketSvc *service.MarketService) *StockHandler {
	return &StockHandler{marketSvc: marketSvc}
}

// tradeRequest is the JSON request body for buy and sell.
type tradeRequest struct {
	StockID  string `json:"stockId"`
	Quantity int64  `json:"quantity"`
}

// addMoneyRequest is the JSON request body for addMoney.
type addMoneyRequest struct {
	Amount float64 `json:"amount"`
}

// List handles GET /api/stocks.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.marketSvc.GetStocks())
}

// GetPortfolio handles GET /api/stocks/portfolio.
func (h *StockHandler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or missing token")
		return
	}

	portfolio, err := h.marketSvc.GetPortfolio(userID)
	if err != nil {
		mapMarketError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

// Buy handles POST /api/stocks/portfolio/buy.
func (h *StockHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.marketSvc.Buy)
}

// Sell handles POST /api/stocks/portfolio/sell.
func (h *StockHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.marketSvc.Sell)
}

// trade is the shared body of Buy and Sell.
func (h *StockHandler) trade(w http.ResponseWriter, r *http.Request, exec func(uint, string, int64) (*service.PortfolioDTO, error)) {
	userID, ok := userIDFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or missing token")
		return
	}

	var req tradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	portfolio, err := exec(userID, req.StockID, req.Quantity)
	if err != nil {
		mapMarketError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

// AddMoney handles POST /api/stocks/portfolio/addMoney.
func (h *StockHandler) AddMoney(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or missing token")
		return
	}

	var req addMoneyRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	portfolio, err := h.marketSvc.AddMoney(userID, req.Amount)
	if err != nil {
		mapMarketError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, portfolio)
}

// mapMarketError maps domain errors to HTTP responses for market endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		WriteError(w, http.StatusBadRequest, "INVALID_QUANTITY", "Invalid quantity")
	case errors.Is(err, domain.ErrInvalidAmount):
		WriteError(w, http.StatusBadRequest, "INVALID_AMOUNT", "Invalid amount")
	case errors.Is(err, domain.ErrInstrumentNotFound):
		WriteError(w, http.StatusNotFound, "STOCK_NOT_FOUND", "Stock not found")
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusBadRequest, "INSUFFICIENT_FUNDS", "Insufficient funds")
	case errors.Is(err, domain.ErrInsufficientShares):
		WriteError(w, http.StatusBadRequest, "INSUFFICIENT_SHARES", "Not enough shares")
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}
