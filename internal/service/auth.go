package service

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/efreitasn/papermarket/internal/domain"
	"github.com/efreitasn/papermarket/internal/store"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

const minPasswordLen = 8

// PublicUser is the externally visible view of a user.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthService handles registration, login, and bearer-token session
// plumbing for the portfolio endpoints.
type AuthService struct {
	users  *store.UserStore
	secret []byte
	ttl    time.Duration
}

// NewAuthService creates an AuthService signing tokens with secret,
// valid for ttl.
func NewAuthService(users *store.UserStore, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{
		users:  users,
		secret: secret,
		ttl:    ttl,
	}
}

// Register validates the request and creates a user with the default
// starting portfolio.
func (s *AuthService) Register(username, email, password string) (*PublicUser, error) {
	if !usernameRegex.MatchString(username) {
		return nil, &domain.ValidationError{
			Message: "username must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !emailRegex.MatchString(email) {
		return nil, &domain.ValidationError{
			Message: "email must be a valid address",
		}
	}
	if len(password) < minPasswordLen {
		return nil, &domain.ValidationError{
			Message: fmt.Sprintf("password must be at least %d characters", minPasswordLen),
		}
	}

	user, err := domain.NewUser(username, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

// Login verifies the credentials and issues a signed bearer token.
func (s *AuthService) Login(email, password string) (string, *PublicUser, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if !user.VerifyPassword(password) {
		return "", nil, domain.ErrInvalidPassword
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, publicUser(user), nil
}

// Authenticate validates a bearer token and returns the acting user's ID.
func (s *AuthService) Authenticate(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	return uint(id), nil
}

// GetUser returns the public view of the user with the given ID.
func (s *AuthService) GetUser(id uint) (*PublicUser, error) {
	user, err := s.users.FindByID(id)
	if err != nil {
		return nil, err
	}
	return publicUser(user), nil
}

// ListUsers returns the public view of every user.
func (s *AuthService) ListUsers() ([]*PublicUser, error) {
	users, err := s.users.FindAll()
	if err != nil {
		return nil, err
	}
	out := make([]*PublicUser, len(users))
	for i, u := range users {
		out[i] = publicUser(u)
	}
	return out, nil
}

// SearchUsers returns the public view of users whose username contains
// name, case-insensitively. An empty name matches nobody.
func (s *AuthService) SearchUsers(name string) ([]*PublicUser, error) {
	if name == "" {
		return []*PublicUser{}, nil
	}
	users, err := s.users.Search(name)
	if err != nil {
		return nil, err
	}
	out := make([]*PublicUser, len(users))
	for i, u := range users {
		out[i] = publicUser(u)
	}
	return out, nil
}

// issueToken signs an HS256 token carrying the user ID as subject.
func (s *AuthService) issueToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func publicUser(u *domain.User) *PublicUser {
	return &PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
