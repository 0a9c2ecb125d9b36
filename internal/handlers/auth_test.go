package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/superdrive/vehicle-ledger/internal/auth"
	"github.com/superdrive/vehicle-ledger/internal/db"
	"github.com/superdrive/vehicle-ledger/internal/middleware"
	"github.com/superdrive/vehicle-ledger/internal/models"
)

func newAuthTestHandler(t *testing.T) (*AuthHandler, *db.MemoryUserStore) {
	t.Helper()
	store := db.NewMemoryUserStore()
	return NewAuthHandler(auth.NewService("test-secret", time.Hour), store), store
}

func callAuth(t *testing.T, handler http.HandlerFunc, method string, body interface{}, claims *models.Claims) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/auth", &buf)
	if claims != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserContextKey, claims))
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func registerOperator(t *testing.T, h *AuthHandler) models.LoginResponse {
	t.Helper()

	w := callAuth(t, h.Register, http.MethodPost, models.RegisterRequest{
		Username:  "joana",
		Email:     "joana@frota.example.com",
		Password:  "sim-password-1",
		FirstName: "Joana",
		LastName:  "Prado",
		Role:      models.RoleOperator,
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.LoginResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	created := registerOperator(t, h)
	assert.NotEmpty(t, created.Token)
	assert.NotEmpty(t, created.RefreshToken)
	assert.Equal(t, "joana", created.User.Username)

	w := callAuth(t, h.Login, http.MethodPost, models.LoginRequest{
		Username: "joana",
		Password: "sim-password-1",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, created.User.ID, resp.User.ID)

	// The issued token round-trips through the auth service
	claims, err := h.tokens.ValidateToken(resp.Token)
	assert.NoError(t, err)
	assert.Equal(t, created.User.ID, claims.UserID)
	assert.Equal(t, models.RoleOperator, claims.Role)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	h, store := newAuthTestHandler(t)
	created := registerOperator(t, h)

	w := callAuth(t, h.Login, http.MethodPost, models.LoginRequest{
		Username: "joana",
		Password: "sim-password-1",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := store.FindUserByID(context.Background(), created.User.ID)
	assert.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	registerOperator(t, h)

	cases := []struct {
		name string
		req  models.LoginRequest
		code int
	}{
		{"wrong password", models.LoginRequest{Username: "joana", Password: "wrong-password"}, http.StatusUnauthorized},
		{"unknown user", models.LoginRequest{Username: "nobody", Password: "sim-password-1"}, http.StatusUnauthorized},
		{"missing password", models.LoginRequest{Username: "joana"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := callAuth(t, h.Login, http.MethodPost, tc.req, nil)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	valid := models.RegisterRequest{
		Username: "carlos",
		Email:    "carlos@frota.example.com",
		Password: "sim-password-1",
		Role:     models.RoleViewer,
	}

	cases := []struct {
		name   string
		mutate func(r *models.RegisterRequest)
	}{
		{"short username", func(r *models.RegisterRequest) { r.Username = "ab" }},
		{"bad email", func(r *models.RegisterRequest) { r.Email = "carlos.example.com" }},
		{"short password", func(r *models.RegisterRequest) { r.Password = "short" }},
		{"unknown role", func(r *models.RegisterRequest) { r.Role = "superuser" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			w := callAuth(t, h.Register, http.MethodPost, req, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	registerOperator(t, h)

	w := callAuth(t, h.Register, http.MethodPost, models.RegisterRequest{
		Username: "joana",
		Email:    "other@frota.example.com",
		Password: "sim-password-1",
		Role:     models.RoleViewer,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = callAuth(t, h.Register, http.MethodPost, models.RegisterRequest{
		Username: "joana2",
		Email:    "joana@frota.example.com",
		Password: "sim-password-1",
		Role:     models.RoleViewer,
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetProfile(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	created := registerOperator(t, h)

	claims := &models.Claims{UserID: created.User.ID, Username: "joana", Role: models.RoleOperator}
	w := callAuth(t, h.GetProfile, http.MethodGet, nil, claims)
	assert.Equal(t, http.StatusOK, w.Code)

	var user models.User
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, created.User.ID, user.ID)
	assert.Equal(t, "joana@frota.example.com", user.Email)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestGetProfileWithoutClaims(t *testing.T) {
	h, _ := newAuthTestHandler(t)

	w := callAuth(t, h.GetProfile, http.MethodGet, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	h, store := newAuthTestHandler(t)
	created := registerOperator(t, h)
	claims := &models.Claims{UserID: created.User.ID, Username: "joana", Role: models.RoleOperator}

	w := callAuth(t, h.UpdateProfile, http.MethodPut, map[string]string{
		"first_name": "Joana Maria",
		"email":      "joana.maria@frota.example.com",
	}, claims)
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := store.FindUserByID(context.Background(), created.User.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Joana Maria", stored.FirstName)
	assert.Equal(t, "Prado", stored.LastName, "omitted fields keep their value")
	assert.Equal(t, "joana.maria@frota.example.com", stored.Email)
}

func TestUpdateProfileEmailConflict(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	created := registerOperator(t, h)

	w := callAuth(t, h.Register, http.MethodPost, models.RegisterRequest{
		Username: "carlos",
		Email:    "carlos@frota.example.com",
		Password: "sim-password-1",
		Role:     models.RoleViewer,
	}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	claims := &models.Claims{UserID: created.User.ID, Username: "joana", Role: models.RoleOperator}
	w = callAuth(t, h.UpdateProfile, http.MethodPut, map[string]string{
		"email": "carlos@frota.example.com",
	}, claims)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChangePassword(t *testing.T) {
	h, _ := newAuthTestHandler(t)
	created := registerOperator(t, h)
	claims := &models.Claims{UserID: created.User.ID, Username: "joana", Role: models.RoleOperator}

	w := callAuth(t, h.ChangePassword, http.MethodPost, map[string]string{
		"current_password": "wrong-password",
		"new_password":     "brand-new-password",
	}, claims)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = callAuth(t, h.ChangePassword, http.MethodPost, map[string]string{
		"current_password": "sim-password-1",
		"new_password":     "brand-new-password",
	}, claims)
	assert.Equal(t, http.StatusOK, w.Code)

	// Old password no longer logs in, the new one does
	w = callAuth(t, h.Login, http.MethodPost, models.LoginRequest{Username: "joana", Password: "sim-password-1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = callAuth(t, h.Login, http.MethodPost, models.LoginRequest{Username: "joana", Password: "brand-new-password"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
