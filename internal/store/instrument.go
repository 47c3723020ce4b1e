package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/efreitasn/papermarket/internal/domain"
)

// InstrumentStore is the gorm-backed instrument repository.
type InstrumentStore struct {
	db *gorm.DB
}

// NewInstrumentStore creates an InstrumentStore.
func NewInstrumentStore(db *gorm.DB) *InstrumentStore {
	return &InstrumentStore{db: db}
}

// ListAll returns every instrument ordered by symbol.
func (s *InstrumentStore) ListAll() ([]*domain.Instrument, error) {
	var instruments []*domain.Instrument
	if err := s.db.Order("symbol").Find(&instruments).Error; err != nil {
		return nil, err
	}
	return instruments, nil
}

// FindByID retrieves an instrument by its stable ID. It returns
// domain.ErrInstrumentNotFound if no row matches.
func (s *InstrumentStore) FindByID(id string) (*domain.Instrument, error) {
	var inst domain.Instrument
	if err := s.db.First(&inst, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInstrumentNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// FindBySymbol retrieves an instrument by its ticker symbol. It returns
// domain.ErrInstrumentNotFound if no row matches.
func (s *InstrumentStore) FindBySymbol(symbol string) (*domain.Instrument, error) {
	var inst domain.Instrument
	if err := s.db.First(&inst, "symbol = ?", symbol).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInstrumentNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// Save persists the instrument's current price and change.
func (s *InstrumentStore) Save(inst *domain.Instrument) error {
	return s.db.Save(inst).Error
}

// SaveAll persists a batch of instruments in one transaction.
func (s *InstrumentStore) SaveAll(instruments []*domain.Instrument) error {
	if len(instruments) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, inst := range instruments {
			if err := tx.Save(inst).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
