package domain

// Instrument is a tradable entity with a live price and a unique
// human-facing ticker symbol. Price and Change are mutated only by the
// engine while it holds its gate; instrument rows are never deleted.
type Instrument struct {
	ID     string  `gorm:"primaryKey;size:36" json:"id"`
	Symbol string  `gorm:"uniqueIndex;size:10;not null" json:"symbol"`
	Name   string  `gorm:"size:100;not null" json:"name"`
	Price  float64 `gorm:"not null" json:"price"`  // current price, always > 0
	Change float64 `gorm:"not null" json:"change"` // % delta vs the previous price, 2 decimals
}

// TableName sets the gorm table name.
func (Instrument) TableName() string { return "instruments" }
