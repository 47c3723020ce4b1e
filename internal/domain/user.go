package domain

import (
	"encoding/json"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBalance is the starting cash balance for newly registered users.
const DefaultBalance = 10000.0

// User is a registered market participant. Balance and HoldingsJSON
// together form the user's portfolio and are mutated only by the engine
// under its gate.
type User struct {
	ID           uint    `gorm:"primaryKey"`
	Username     string  `gorm:"size:64;not null"`
	Email        string  `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string  `gorm:"size:255;not null"`
	Balance      float64 `gorm:"not null;default:10000"`
	HoldingsJSON string  `gorm:"column:holdings_json;not null;default:'{}'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName sets the gorm table name.
func (User) TableName() string { return "users" }

// NewUser creates a user with a bcrypt-hashed password and the default
// starting portfolio.
func NewUser(username, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Balance:      DefaultBalance,
		HoldingsJSON: "{}",
	}, nil
}

// VerifyPassword reports whether password matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the stored hash with one derived from password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// Holdings decodes the persisted holdings blob (symbol → quantity).
// A corrupt or empty blob decodes to an empty map: a broken portfolio
// must never block a balance-only operation.
func (u *User) Holdings() map[string]int64 {
	if u.HoldingsJSON == "" {
		return make(map[string]int64)
	}
	holdings := make(map[string]int64)
	if err := json.Unmarshal([]byte(u.HoldingsJSON), &holdings); err != nil {
		return make(map[string]int64)
	}
	return holdings
}

// SetHoldings re-encodes the holdings map into the persisted blob.
// Non-positive quantities are dropped rather than stored: a symbol whose
// quantity reaches zero disappears from the portfolio.
func (u *User) SetHoldings(holdings map[string]int64) {
	clean := make(map[string]int64, len(holdings))
	for symbol, qty := range holdings {
		if qty > 0 {
			clean[symbol] = qty
		}
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return
	}
	u.HoldingsJSON = string(b)
}
