package engine

import (
	"math"

	"github.com/efreitasn/papermarket/internal/domain"
)

// InstrumentRepo persists instrument price mutations to durable storage.
type InstrumentRepo interface {
	Save(inst *domain.Instrument) error
	SaveAll(instruments []*domain.Instrument) error
}

// UserRepo loads and persists user portfolios.
type UserRepo interface {
	FindByID(id uint) (*domain.User, error)
	FindAll() ([]*domain.User, error)
	Save(u *domain.User) error
}

// ImpactParams bounds the multiplicative price shift applied immediately
// after a trade: 1 ± min(Cap, Coef*sqrt(quantity)).
type ImpactParams struct {
	Coef float64 // shift per sqrt(quantity)
	Cap  float64 // maximum shift
}

// Empirical impact constants carried over from the original calibration.
// Synthetic activity is intentionally gentler so it does not dominate
// organic price movement.
var (
	UserImpact      = ImpactParams{Coef: 0.005, Cap: 0.30}
	SyntheticImpact = ImpactParams{Coef: 0.002, Cap: 0.08}
)

// Portfolio is the balance/holdings view returned by trading operations.
type Portfolio struct {
	Balance  float64
	Holdings map[string]int64
}

// Trader converts orders into balance, holdings, and price mutations.
// It is the single code path shared by API-triggered trades and the
// synthetic activity injected by the evolver. Every public operation
// holds the market gate for its entire body, including the persistence
// write, so a funds check can never interleave with another mutation.
type Trader struct {
	market      *Market
	instruments InstrumentRepo
	users       UserRepo
}

// NewTrader creates a Trader bound to the given market and repositories.
func NewTrader(market *Market, instruments InstrumentRepo, users UserRepo) *Trader {
	return &Trader{
		market:      market,
		instruments: instruments,
		users:       users,
	}
}

// Buy purchases qty shares of the instrument identified by key (ID or
// symbol) for the given user at the current price, applying upward price
// impact. It returns the updated portfolio.
func (t *Trader) Buy(userID uint, key string, qty int64) (*Portfolio, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	t.market.mu.Lock()
	defer t.market.mu.Unlock()

	user, err := t.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	inst := t.market.resolveLocked(key)
	if inst == nil {
		return nil, domain.ErrInstrumentNotFound
	}

	if err := t.buyLocked(user, inst, qty, UserImpact); err != nil {
		return nil, err
	}
	if err := t.persistTradeLocked(user, inst); err != nil {
		return nil, err
	}
	return portfolioOf(user), nil
}

// Sell sells qty shares of the instrument identified by key for the given
// user at the current price, applying downward price impact. It returns
// the updated portfolio.
func (t *Trader) Sell(userID uint, key string, qty int64) (*Portfolio, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	t.market.mu.Lock()
	defer t.market.mu.Unlock()

	user, err := t.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	inst := t.market.resolveLocked(key)
	if inst == nil {
		return nil, domain.ErrInstrumentNotFound
	}

	if err := t.sellLocked(user, inst, qty, UserImpact); err != nil {
		return nil, err
	}
	if err := t.persistTradeLocked(user, inst); err != nil {
		return nil, err
	}
	return portfolioOf(user), nil
}

// AddMoney credits amount to the user's balance. It has no price effect.
func (t *Trader) AddMoney(userID uint, amount float64) (*Portfolio, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	t.market.mu.Lock()
	defer t.market.mu.Unlock()

	user, err := t.users.FindByID(userID)
	if err != nil {
		return nil, err
	}

	user.Balance += domain.Round2(amount)
	if err := t.users.Save(user); err != nil {
		return nil, err
	}
	return portfolioOf(user), nil
}

// Portfolio returns the user's current balance and holdings.
func (t *Trader) Portfolio(userID uint) (*Portfolio, error) {
	t.market.mu.Lock()
	defer t.market.mu.Unlock()

	user, err := t.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return portfolioOf(user), nil
}

// buyLocked validates and applies a buy: funds check, balance deduction,
// holdings credit, upward price impact. Rejections mutate nothing.
func (t *Trader) buyLocked(user *domain.User, inst *domain.Instrument, qty int64, impact ImpactParams) error {
	cost := inst.Price * float64(qty)
	if user.Balance < cost {
		return domain.ErrInsufficientFunds
	}

	holdings := user.Holdings()
	user.Balance -= cost
	holdings[inst.Symbol] += qty
	user.SetHoldings(holdings)

	t.applyImpactLocked(inst, qty, impact, 1)
	return nil
}

// sellLocked validates and applies a sell: holdings check, balance credit,
// holdings debit (removing the symbol at zero), downward price impact.
// Rejections mutate nothing.
func (t *Trader) sellLocked(user *domain.User, inst *domain.Instrument, qty int64, impact ImpactParams) error {
	holdings := user.Holdings()
	owned := holdings[inst.Symbol]
	if owned < qty {
		return domain.ErrInsufficientShares
	}

	proceeds := inst.Price * float64(qty)
	user.Balance += proceeds
	holdings[inst.Symbol] = owned - qty
	if holdings[inst.Symbol] <= 0 {
		delete(holdings, inst.Symbol)
	}
	user.SetHoldings(holdings)

	t.applyImpactLocked(inst, qty, impact, -1)
	return nil
}

// applyImpactLocked moves the instrument price by the capped square-root
// impact of the traded quantity and records the move in the history.
// direction is +1 for buys, -1 for sells.
func (t *Trader) applyImpactLocked(inst *domain.Instrument, qty int64, impact ImpactParams, direction float64) {
	prev := inst.Price
	shift := math.Min(impact.Cap, impact.Coef*math.Sqrt(float64(qty)))
	inst.Price = domain.Round2(prev * (1 + direction*shift))
	inst.Change = domain.ChangePercent(prev, inst.Price)
	t.market.appendPriceLocked(inst, prev)
}

// persistTradeLocked commits the instrument and user mutations of a trade.
// A failure propagates to the caller; the in-memory state, including the
// history append, has already been committed under the same gate hold.
func (t *Trader) persistTradeLocked(user *domain.User, inst *domain.Instrument) error {
	if err := t.instruments.Save(inst); err != nil {
		return err
	}
	return t.users.Save(user)
}

func portfolioOf(user *domain.User) *Portfolio {
	return &Portfolio{
		Balance:  user.Balance,
		Holdings: user.Holdings(),
	}
}
