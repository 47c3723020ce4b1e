package engine

import (
	"sync"

	"github.com/google/btree"

	"github.com/efreitasn/papermarket/internal/domain"
)

// HistoryLimit is the maximum number of points retained per instrument
// price series. The oldest point is evicted on overflow.
const HistoryLimit = 250

// instrumentEntry orders instruments by symbol in the market index.
type instrumentEntry struct {
	symbol     string
	instrument *domain.Instrument
}

func entryLess(a, b instrumentEntry) bool {
	return a.symbol < b.symbol
}

// Market is the authoritative in-process market state: every instrument's
// live price plus its bounded in-memory price history. The mutex is the
// concurrency gate that serializes all market activity — trades, ticks,
// and reads alike. Methods suffixed Locked assume the caller holds it.
//
// Price histories are in-memory only and are lost on restart by design; a
// missing series is reseeded lazily from the live price on first access.
type Market struct {
	mu        sync.Mutex
	index     *btree.BTreeG[instrumentEntry] // symbol-ordered
	byID      map[string]*domain.Instrument
	histories map[string][]float64 // instrument ID → past prices, most-recent-last
}

// NewMarket builds a market over the given instruments. The market owns
// the instruments from this point on; callers must not mutate them.
func NewMarket(instruments []*domain.Instrument) *Market {
	const degree = 16
	m := &Market{
		index:     btree.NewG[instrumentEntry](degree, entryLess),
		byID:      make(map[string]*domain.Instrument, len(instruments)),
		histories: make(map[string][]float64, len(instruments)),
	}
	for _, inst := range instruments {
		m.index.ReplaceOrInsert(instrumentEntry{symbol: inst.Symbol, instrument: inst})
		m.byID[inst.ID] = inst
	}
	return m
}

// SeedHistory installs an initial price series for an instrument, keeping
// at most the newest HistoryLimit points. Used when bootstrapping a fresh
// database with canned series.
func (m *Market) SeedHistory(id string, prices []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(prices) == 0 {
		return
	}
	if len(prices) > HistoryLimit {
		prices = prices[len(prices)-HistoryLimit:]
	}
	m.histories[id] = append([]float64(nil), prices...)
}

// InstrumentSnapshot is a point-in-time copy of one instrument and its
// price history, safe to use outside the gate.
type InstrumentSnapshot struct {
	Instrument domain.Instrument
	History    []float64
}

// Snapshot returns a consistent copy of every instrument with its price
// history, ordered by symbol.
func (m *Market) Snapshot() []InstrumentSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]InstrumentSnapshot, 0, len(m.byID))
	m.index.Ascend(func(e instrumentEntry) bool {
		history := m.historyLocked(e.instrument)
		out = append(out, InstrumentSnapshot{
			Instrument: *e.instrument,
			History:    append([]float64(nil), history...),
		})
		return true
	})
	return out
}

// byIDLocked and bySymbolLocked are the two explicit lookup paths.
// Callers that accept either form compose them, trying the ID first.
func (m *Market) byIDLocked(id string) *domain.Instrument {
	return m.byID[id]
}

func (m *Market) bySymbolLocked(symbol string) *domain.Instrument {
	e, ok := m.index.Get(instrumentEntry{symbol: symbol})
	if !ok {
		return nil
	}
	return e.instrument
}

// resolveLocked looks an instrument up by ID, then by symbol.
func (m *Market) resolveLocked(key string) *domain.Instrument {
	if inst := m.byIDLocked(key); inst != nil {
		return inst
	}
	return m.bySymbolLocked(key)
}

// allLocked returns every instrument in symbol order.
func (m *Market) allLocked() []*domain.Instrument {
	out := make([]*domain.Instrument, 0, len(m.byID))
	m.index.Ascend(func(e instrumentEntry) bool {
		out = append(out, e.instrument)
		return true
	})
	return out
}

// historyLocked returns the live history series for inst, seeding a
// single-element series from the current price on first access.
func (m *Market) historyLocked(inst *domain.Instrument) []float64 {
	h, ok := m.histories[inst.ID]
	if !ok {
		h = []float64{inst.Price}
		m.histories[inst.ID] = h
	}
	return h
}

// appendPriceLocked records a committed price move: the series is seeded
// from the pre-move price if absent, the new price is appended, and the
// oldest point is evicted past HistoryLimit.
func (m *Market) appendPriceLocked(inst *domain.Instrument, prev float64) {
	h, ok := m.histories[inst.ID]
	if !ok {
		h = []float64{prev}
	}
	h = append(h, inst.Price)
	if len(h) > HistoryLimit {
		h = h[1:]
	}
	m.histories[inst.ID] = h
}
