package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/superdrive/vehicle-ledger/internal/auth"
	"github.com/superdrive/vehicle-ledger/internal/db"
	"github.com/superdrive/vehicle-ledger/internal/middleware"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

// AuthHandler serves login, registration and account self-service.
type AuthHandler struct {
	tokens *auth.Service
	users  db.UserStore
}

// NewAuthHandler creates the handler over a token service and user store.
func NewAuthHandler(tokens *auth.Service, users db.UserStore) *AuthHandler {
	return &AuthHandler{tokens: tokens, users: users}
}

var errInvalidRole = errors.New("invalid role")

type profileUpdateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	// Unknown account and wrong password answer identically
	user, err := h.users.FindUserByUsername(r.Context(), req.Username)
	if err != nil || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}

	resp, err := h.tokenResponse(user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	// Last login is bookkeeping; never fail the login over it
	if err := h.users.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.WithError(err).Warn("Failed to update last login")
	}

	writeJSON(w, http.StatusOK, resp)
}

// Register creates an account and logs it straight in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validateRegistration(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.users.FindUserByUsername(r.Context(), req.Username); err == nil {
		http.Error(w, "Username already exists", http.StatusConflict)
		return
	}
	if _, err := h.users.FindUserByEmail(r.Context(), req.Email); err == nil {
		http.Error(w, "Email already exists", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
	}
	if err := h.users.InsertUser(r.Context(), user); err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	resp, err := h.tokenResponse(&user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetProfile returns the authenticated user's account.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile applies partial changes to the authenticated account. Empty
// fields keep their current value.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" && req.Email != user.Email {
		if err := auth.ValidateEmail(req.Email); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if other, err := h.users.FindUserByEmail(r.Context(), req.Email); err == nil && other.ID != user.ID {
			http.Error(w, "Email already exists", http.StatusConflict)
			return
		}
		user.Email = req.Email
	}

	if err := h.users.UpdateUser(r.Context(), user.ID, *user); err != nil {
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully"})
}

// ChangePassword rotates the authenticated account's password after checking
// the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		http.Error(w, "Current password and new password are required", http.StatusBadRequest)
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.users.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.CurrentPassword) {
		http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}
	user.PasswordHash = hash
	if err := h.users.UpdateUser(r.Context(), user.ID, *user); err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *AuthHandler) tokenResponse(user *models.User) (models.LoginResponse, error) {
	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		return models.LoginResponse{}, err
	}
	refresh, err := h.tokens.GenerateRefreshToken()
	if err != nil {
		return models.LoginResponse{}, err
	}
	return models.LoginResponse{Token: token, RefreshToken: refresh, User: *user}, nil
}

func validateRegistration(req models.RegisterRequest) error {
	if err := auth.ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := auth.ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		return err
	}
	if !models.IsValidRole(req.Role) {
		return errInvalidRole
	}
	return nil
}
