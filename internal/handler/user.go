package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/papermarket/internal/domain"
	"github.com/efreitasn/papermarket/internal/service"
)

// UserHandler handles HTTP requests for user endpoints.
type UserHandler struct {
	authSvc *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authSvc *service.AuthService) *UserHandler {
	return &UserHandler{authSvc: authSvc}
}

// registerRequest is the JSON request body for POST /api/user/register.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest is the JSON request body for POST /api/user/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the JSON response for a successful login.
type loginResponse struct {
	Token string              `json:"token"`
	User  *service.PublicUser `json:"user"`
}

// Register handles POST /api/user/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.authSvc.Register(req.Username, req.Email, req.Password)
	if err != nil {
		mapUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/user/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	token, user, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		mapUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// GetByID handles GET /api/user/{id}.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a positive integer")
		return
	}

	user, err := h.authSvc.GetUser(uint(id))
	if err != nil {
		mapUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, user)
}

// ListAll handles GET /api/user/all.
func (h *UserHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers()
	if err != nil {
		mapUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// Search handles GET /api/user/search/{name}.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.SearchUsers(chi.URLParam(r, "name"))
	if err != nil {
		mapUserError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// mapUserError maps domain errors to HTTP responses for user endpoints.
func mapUserError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		WriteError(w, http.StatusBadRequest, "USERNAME_EXISTS", "Username already exists")
	case errors.Is(err, domain.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, domain.ErrInvalidPassword):
		WriteError(w, http.StatusUnauthorized, "INVALID_PASSWORD", "invalid password")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}
