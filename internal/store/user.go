package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/efreitasn/papermarket/internal/domain"
)

// UserStore is the gorm-backed user repository.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. It returns domain.ErrEmailTaken if a user
// with the same email already exists.
func (s *UserStore) Create(user *domain.User) error {
	var count int64
	if err := s.db.Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrEmailTaken
	}
	return s.db.Create(user).Error
}

// FindByID retrieves a user by ID. It returns domain.ErrUserNotFound if
// no row matches.
func (s *UserStore) FindByID(id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves a user by email. It returns
// domain.ErrUserNotFound if no row matches.
func (s *UserStore) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAll returns every user.
func (s *UserStore) FindAll() ([]*domain.User, error) {
	var users []*domain.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Search returns users whose username contains name, case-insensitively.
func (s *UserStore) Search(name string) ([]*domain.User, error) {
	var users []*domain.User
	pattern := "%" + strings.ToLower(name) + "%"
	if err := s.db.Where("LOWER(username) LIKE ?", pattern).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Save persists the user's current balance and holdings.
func (s *UserStore) Save(user *domain.User) error {
	return s.db.Save(user).Error
}
