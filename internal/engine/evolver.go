package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/efreitasn/papermarket/internal/domain"
)

// Evolver drives the autonomous market: on every tick it applies a
// random-walk-with-mean-reversion step to each instrument and, with some
// probability, injects synthetic trades so the market looks active even
// without callers.
type Evolver struct {
	market      *Market
	trader      *Trader
	instruments InstrumentRepo
	users       UserRepo
	interval    time.Duration
	tradeChance float64
	rng         *rand.Rand
	logger      *slog.Logger
}

// NewEvolver creates an Evolver. The rng is owned by the evolver and must
// not be shared; passing a seeded source makes runs reproducible in tests.
func NewEvolver(
	market *Market,
	trader *Trader,
	instruments InstrumentRepo,
	users UserRepo,
	interval time.Duration,
	tradeChance float64,
	rng *rand.Rand,
	logger *slog.Logger,
) *Evolver {
	return &Evolver{
		market:      market,
		trader:      trader,
		instruments: instruments,
		users:       users,
		interval:    interval,
		tradeChance: tradeChance,
		rng:         rng,
		logger:      logger,
	}
}

// Start runs the tick loop until ctx is cancelled. The inter-tick wait is
// the only suspension point, so cancellation never interrupts a partially
// applied tick.
func (e *Evolver) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("evolver starting",
		slog.Duration("interval", e.interval),
		slog.Float64("trade_chance", e.tradeChance),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("evolver stopped")
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

// tick runs one full evolution pass. The deterministic price walk for
// every instrument, any synthetic trades, and the persistence write all
// happen under a single gate acquisition; other operations observe either
// the whole tick or none of it.
func (e *Evolver) tick() {
	e.market.mu.Lock()
	defer e.market.mu.Unlock()

	for _, inst := range e.market.allLocked() {
		e.evolveLocked(inst, e.noise())
	}

	var touched []*domain.User
	if e.rng.Float64() < e.tradeChance {
		touched = e.syntheticLocked()
	}

	if err := e.persistLocked(touched); err != nil {
		// No caller is waiting on a tick; record and move on.
		e.logger.Error("tick persist failed", slog.String("error", err.Error()))
	}
}

// noise draws a uniform perturbation from [-0.01, 0.01].
func (e *Evolver) noise() float64 {
	return (e.rng.Float64() - 0.5) * 0.02
}

// evolveLocked applies one price step: the noise perturbation, a small
// mean-reversion pull back toward the previous price, and a guard that
// recomputes without the reversion term if the rounded result would go
// non-positive.
func (e *Evolver) evolveLocked(inst *domain.Instrument, noise float64) {
	prev := inst.Price
	meanRevert := 1 + (0-noise)*0.001
	next := domain.Round2(prev * (1 + noise) * meanRevert)
	if next <= 0 {
		next = domain.Round2(prev * (1 + noise))
	}

	inst.Price = next
	inst.Change = domain.ChangePercent(prev, next)
	e.market.appendPriceLocked(inst, prev)
}

// syntheticLocked injects 1–3 random orders through the trade executor
// using the gentler synthetic impact parameters. Any failure — a load
// error, an executor rejection — is logged and skipped so the tick always
// completes. It returns the users whose portfolios changed.
func (e *Evolver) syntheticLocked() []*domain.User {
	users, err := e.users.FindAll()
	if err != nil {
		e.logger.Warn("synthetic activity skipped", slog.String("error", err.Error()))
		return nil
	}
	instruments := e.market.allLocked()
	if len(users) == 0 || len(instruments) == 0 {
		return nil
	}

	touched := make(map[uint]*domain.User)
	actions := 1 + e.rng.Intn(3)
	for i := 0; i < actions; i++ {
		user := users[e.rng.Intn(len(users))]
		inst := instruments[e.rng.Intn(len(instruments))]
		qty := int64(1 + e.rng.Intn(24))

		var err error
		if e.rng.Float64() < 0.6 {
			err = e.trader.buyLocked(user, inst, qty, SyntheticImpact)
		} else {
			err = e.trader.sellLocked(user, inst, qty, SyntheticImpact)
		}
		if err != nil {
			e.logger.Debug("synthetic order rejected",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.String("symbol", inst.Symbol),
				slog.Int64("quantity", qty),
				slog.String("error", err.Error()),
			)
			continue
		}
		touched[user.ID] = user
	}

	out := make([]*domain.User, 0, len(touched))
	for _, u := range touched {
		out = append(out, u)
	}
	return out
}

// persistLocked commits the tick's mutations: every instrument plus any
// users touched by synthetic trades.
func (e *Evolver) persistLocked(touched []*domain.User) error {
	if err := e.instruments.SaveAll(e.market.allLocked()); err != nil {
		return err
	}
	for _, user := range touched {
		if err := e.users.Save(user); err != nil {
			return err
		}
	}
	return nil
}
