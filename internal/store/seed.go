package store

import (
	"gorm.io/gorm"

	"github.com/efreitasn/papermarket/internal/domain"
)

// seedInstrument pairs an instrument with its canned starting series.
type seedInstrument struct {
	instrument domain.Instrument
	history    []float64
}

// seedInstruments are installed into an empty database so a fresh server
// has a market to show.
var seedInstruments = []seedInstrument{
	{
		instrument: domain.Instrument{ID: "1", Symbol: "TECH", Name: "TechCorp", Price: 150.25},
		history:    []float64{120, 125, 130, 135, 140, 145, 148, 150, 152, 150.25},
	},
	{
		instrument: domain.Instrument{ID: "2", Symbol: "FIN", Name: "FinanceInc", Price: 95.8},
		history:    []float64{90, 92, 94, 93, 95, 96, 95.5, 96, 96.5, 95.8},
	},
	{
		instrument: domain.Instrument{ID: "3", Symbol: "ENERGY", Name: "EnergyPlus", Price: 78.5},
		history:    []float64{75, 76, 77, 78, 77.5, 78, 78.2, 78.8, 78.3, 78.5},
	},
	{
		instrument: domain.Instrument{ID: "4", Symbol: "HEALTH", Name: "HealthCare", Price: 210.1},
		history:    []float64{200, 202, 205, 207, 208, 209, 210, 210.5, 210.2, 210.1},
	},
}

// Bootstrap seeds the instrument table when it is empty. It returns the
// seed price histories (instrument ID → series) to install into the
// market, or nil when the table already had rows — histories are
// in-memory only, so an existing database reseeds them lazily from the
// persisted prices instead.
func Bootstrap(db *gorm.DB) (map[string][]float64, error) {
	var count int64
	if err := db.Model(&domain.Instrument{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, nil
	}

	histories := make(map[string][]float64, len(seedInstruments))
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, seed := range seedInstruments {
			inst := seed.instrument
			if err := tx.Create(&inst).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, seed := range seedInstruments {
		histories[seed.instrument.ID] = append([]float64(nil), seed.history...)
	}
	return histories, nil
}
