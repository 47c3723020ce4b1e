package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/efreitasn/papermarket/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEvolver(tradeChance float64, seed int64, instruments []*domain.Instrument, users ...*domain.User) (*Evolver, *Market, *fakeInstrumentRepo, *fakeUserRepo) {
	market := NewMarket(instruments)
	instRepo := &fakeInstrumentRepo{}
	userRepo := newFakeUserRepo(users...)
	trader := NewTrader(market, instRepo, userRepo)
	evolver := NewEvolver(
		market,
		trader,
		instRepo,
		userRepo,
		time.Millisecond,
		tradeChance,
		rand.New(rand.NewSource(seed)),
		discardLogger(),
	)
	return evolver, market, instRepo, userRepo
}

func TestEvolveLocked_FixedNoise(t *testing.T) {
	tests := []struct {
		name       string
		price      float64
		noise      float64
		wantPrice  float64
		wantChange float64
	}{
		{"positive noise", 100.00, 0.01, 101.00, 1.00},
		{"negative noise", 100.00, -0.01, 99.00, -1.00},
		{"zero noise", 100.00, 0, 100.00, 0},
		{"seed price", 150.25, 0.005, 151.00, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := &domain.Instrument{ID: "1", Symbol: "TECH", Price: tt.price}
			evolver, market, _, _ := newTestEvolver(0, 1, []*domain.Instrument{inst})

			market.mu.Lock()
			evolver.evolveLocked(inst, tt.noise)
			market.mu.Unlock()

			if inst.Price != tt.wantPrice {
				t.Errorf("Price = %v, want %v", inst.Price, tt.wantPrice)
			}
			if inst.Change != tt.wantChange {
				t.Errorf("Change = %v, want %v", inst.Change, tt.wantChange)
			}
		})
	}
}

func TestTick_EvolvesEveryInstrument(t *testing.T) {
	instruments := []*domain.Instrument{
		{ID: "1", Symbol: "TECH", Price: 150.25},
		{ID: "2", Symbol: "FIN", Price: 95.80},
	}
	evolver, market, instRepo, _ := newTestEvolver(0, 42, instruments)

	evolver.tick()

	for _, snap := range market.Snapshot() {
		if snap.Instrument.Price <= 0 {
			t.Errorf("%s: price went non-positive: %v", snap.Instrument.Symbol, snap.Instrument.Price)
		}
		if len(snap.History) != 2 {
			t.Errorf("%s: history length = %d, want 2", snap.Instrument.Symbol, len(snap.History))
		}
		prev, next := snap.History[0], snap.History[1]
		if next != snap.Instrument.Price {
			t.Errorf("%s: last history point %v != live price %v", snap.Instrument.Symbol, next, snap.Instrument.Price)
		}
		if want := domain.ChangePercent(prev, next); snap.Instrument.Change != want {
			t.Errorf("%s: Change = %v, want %v", snap.Instrument.Symbol, snap.Instrument.Change, want)
		}
	}
	if instRepo.saves != 1 {
		t.Errorf("instrument saves = %d, want 1 batched save per tick", instRepo.saves)
	}
}

func TestTick_HistoryStaysBounded(t *testing.T) {
	inst := &domain.Instrument{ID: "1", Symbol: "TECH", Price: 150.25}
	evolver, market, _, _ := newTestEvolver(0, 7, []*domain.Instrument{inst})

	full := make([]float64, HistoryLimit)
	for i := range full {
		full[i] = 100 + float64(i)
	}
	market.SeedHistory("1", full)

	for i := 0; i < 10; i++ {
		evolver.tick()
	}

	hist := market.Snapshot()[0].History
	if len(hist) != HistoryLimit {
		t.Errorf("history length = %d, want %d", len(hist), HistoryLimit)
	}
	if hist[len(hist)-1] != inst.Price {
		t.Errorf("last history point %v != live price %v", hist[len(hist)-1], inst.Price)
	}
}

func TestTick_SyntheticTradesMoveAPortfolio(t *testing.T) {
	instruments := []*domain.Instrument{
		{ID: "1", Symbol: "TECH", Price: 150.25},
		{ID: "2", Symbol: "FIN", Price: 95.80},
	}
	user := testUser(1, 1_000_000)
	evolver, _, _, _ := newTestEvolver(1, 42, instruments, user)

	for i := 0; i < 30; i++ {
		evolver.tick()
	}

	if user.Balance == 1_000_000 && len(user.Holdings()) == 0 {
		t.Fatal("expected synthetic activity to trade against the user portfolio")
	}
	if user.Balance < 0 {
		t.Errorf("Balance went negative: %v", user.Balance)
	}
	for sym, qty := range user.Holdings() {
		if qty <= 0 {
			t.Errorf("Holdings[%s] = %d, want > 0", sym, qty)
		}
	}
}

func TestTick_SyntheticSkippedOnUserLoadError(t *testing.T) {
	inst := &domain.Instrument{ID: "1", Symbol: "TECH", Price: 150.25}
	evolver, market, _, userRepo := newTestEvolver(1, 3, []*domain.Instrument{inst})
	userRepo.findAllErr = errors.New("db unavailable")

	evolver.tick()

	// Prices still evolve even when synthetic activity cannot run.
	if got := len(market.Snapshot()[0].History); got != 2 {
		t.Errorf("history length = %d, want 2", got)
	}
}

func TestTick_PersistFailureDoesNotAbort(t *testing.T) {
	inst := &domain.Instrument{ID: "1", Symbol: "TECH", Price: 150.25}
	evolver, market, instRepo, _ := newTestEvolver(0, 3, []*domain.Instrument{inst})
	instRepo.saveErr = errors.New("db unavailable")

	evolver.tick()
	evolver.tick()

	if got := len(market.Snapshot()[0].History); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	inst := &domain.Instrument{ID: "1", Symbol: "TECH", Price: 150.25}
	evolver, _, _, _ := newTestEvolver(0, 1, []*domain.Instrument{inst})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		evolver.Start(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("evolver did not stop after cancellation")
	}
}
