package service

import (
	"github.com/efreitasn/papermarket/internal/engine"
)

// StockDTO is the wire shape of an instrument with its price history.
type StockDTO struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Change       float64   `json:"change"`
	PriceHistory []float64 `json:"priceHistory"`
}

// PortfolioDTO is the wire shape of a user's balance and holdings.
type PortfolioDTO struct {
	Balance float64          `json:"balance"`
	Stocks  map[string]int64 `json:"stocks"`
}

// MarketService adapts the trading engine for the HTTP layer. All
// locking and persistence happens inside the engine; this layer only
// shapes responses.
type MarketService struct {
	market *engine.Market
	trader *engine.Trader
}

// NewMarketService creates a MarketService.
func NewMarketService(market *engine.Market, trader *engine.Trader) *MarketService {
	return &MarketService{
		market: market,
		trader: trader,
	}
}

// GetStocks returns a snapshot of every instrument with its history,
// ordered by symbol.
func (s *MarketService) GetStocks() []StockDTO {
	snapshots := s.market.Snapshot()
	out := make([]StockDTO, len(snapshots))
	for i, snap := range snapshots {
		out[i] = StockDTO{
			ID:           snap.Instrument.ID,
			Symbol:       snap.Instrument.Symbol,
			Name:         snap.Instrument.Name,
			Price:        snap.Instrument.Price,
			Change:       snap.Instrument.Change,
			PriceHistory: snap.History,
		}
	}
	return out
}

// GetPortfolio returns the user's current balance and holdings.
func (s *MarketService) GetPortfolio(userID uint) (*PortfolioDTO, error) {
	p, err := s.trader.Portfolio(userID)
	if err != nil {
		return nil, err
	}
	return portfolioDTO(p), nil
}

// Buy executes a buy order for the acting user against the instrument
// identified by stockKey (ID or symbol).
func (s *MarketService) Buy(userID uint, stockKey string, quantity int64) (*PortfolioDTO, error) {
	p, err := s.trader.Buy(userID, stockKey, quantity)
	if err != nil {
		return nil, err
	}
	return portfolioDTO(p), nil
}

// Sell executes a sell order for the acting user against the instrument
// identified by stockKey (ID or symbol).
func (s *MarketService) Sell(userID uint, stockKey string, quantity int64) (*PortfolioDTO, error) {
	p, err := s.trader.Sell(userID, stockKey, quantity)
	if err != nil {
		return nil, err
	}
	return portfolioDTO(p), nil
}

// AddMoney credits amount to the acting user's balance.
func (s *MarketService) AddMoney(userID uint, amount float64) (*PortfolioDTO, error) {
	p, err := s.trader.AddMoney(userID, amount)
	if err != nil {
		return nil, err
	}
	return portfolioDTO(p), nil
}

func portfolioDTO(p *engine.Portfolio) *PortfolioDTO {
	return &PortfolioDTO{
		Balance: p.Balance,
		Stocks:  p.Holdings,
	}
}
