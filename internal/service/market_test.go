package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efreitasn/papermarket/internal/domain"
	"github.com/efreitasn/papermarket/internal/engine"
	"github.com/efreitasn/papermarket/internal/store"
)

// newTestMarketService wires the full stack over an in-memory database,
// the same way main does.
func newTestMarketService(t *testing.T) (*MarketService, *store.UserStore) {
	t.Helper()

	db, err := store.Open(":memory:")
	require.NoError(t, err)
	histories, err := store.Bootstrap(db)
	require.NoError(t, err)

	instrumentStore := store.NewInstrumentStore(db)
	userStore := store.NewUserStore(db)

	instruments, err := instrumentStore.ListAll()
	require.NoError(t, err)
	market := engine.NewMarket(instruments)
	for id, history := range histories {
		market.SeedHistory(id, history)
	}

	trader := engine.NewTrader(market, instrumentStore, userStore)
	return NewMarketService(market, trader), userStore
}

func createTestUser(t *testing.T, users *store.UserStore) *domain.User {
	t.Helper()
	user, err := domain.NewUser("alice", "alice@example.com", "s3cretpass")
	require.NoError(t, err)
	require.NoError(t, users.Create(user))
	return user
}

func TestGetStocks(t *testing.T) {
	svc, _ := newTestMarketService(t)

	stocks := svc.GetStocks()
	require.Len(t, stocks, 4)

	// Ordered by symbol, carrying the seeded histories.
	assert.Equal(t, "ENERGY", stocks[0].Symbol)
	assert.Equal(t, "TECH", stocks[3].Symbol)
	assert.Equal(t, 150.25, stocks[3].Price)
	assert.Len(t, stocks[3].PriceHistory, 10)
	assert.Equal(t, 150.25, stocks[3].PriceHistory[9])
}

func TestBuyUpdatesPortfolioAndDatabase(t *testing.T) {
	svc, users := newTestMarketService(t)
	user := createTestUser(t, users)

	p, err := svc.Buy(user.ID, "TECH", 10)
	require.NoError(t, err)

	// 10000 - 10*150.25 = 8497.5
	assert.Equal(t, 8497.5, p.Balance)
	assert.Equal(t, int64(10), p.Stocks["TECH"])

	reloaded, err := users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 8497.5, reloaded.Balance)
	assert.Equal(t, int64(10), reloaded.Holdings()["TECH"])
}

func TestBuyAcceptsInstrumentID(t *testing.T) {
	svc, users := newTestMarketService(t)
	user := createTestUser(t, users)

	p, err := svc.Buy(user.ID, "1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Stocks["TECH"])
}

func TestSellRoundTrip(t *testing.T) {
	svc, users := newTestMarketService(t)
	user := createTestUser(t, users)

	_, err := svc.Buy(user.ID, "FIN", 5)
	require.NoError(t, err)
	p, err := svc.Sell(user.ID, "FIN", 5)
	require.NoError(t, err)

	_, held := p.Stocks["FIN"]
	assert.False(t, held, "FIN should be removed at zero quantity")
}

func TestTradeErrors(t *testing.T) {
	svc, users := newTestMarketService(t)
	user := createTestUser(t, users)

	_, err := svc.Buy(user.ID, "NOPE", 1)
	assert.ErrorIs(t, err, domain.ErrInstrumentNotFound)

	_, err = svc.Buy(user.ID, "TECH", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Buy(user.ID, "TECH", 1_000_000)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = svc.Sell(user.ID, "TECH", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientShares)

	_, err = svc.Buy(999, "TECH", 1)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAddMoneyService(t *testing.T) {
	svc, users := newTestMarketService(t)
	user := createTestUser(t, users)

	p, err := svc.AddMoney(user.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 10500.0, p.Balance)

	_, err = svc.AddMoney(user.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestGetPortfolio(t *testing.T) {
	svc, users := newTestMarketService(t)
	user := createTestUser(t, users)

	p, err := svc.GetPortfolio(user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBalance, p.Balance)
	assert.Empty(t, p.Stocks)
}
