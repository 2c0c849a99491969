package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/remnant-dksh/origin-engine/internal/apperrors"
	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
	"github.com/remnant-dksh/origin-engine/internal/logger"
	"github.com/remnant-dksh/origin-engine/internal/models"
	"github.com/remnant-dksh/origin-engine/internal/service/auth"
)

type AuthHandler struct {
	authService *auth.AuthService
	logger      logger.Logger
}

func NewAuth(authService *auth.AuthService, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

// UserData is the public projection of a user: no password hash ever
type UserData struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokensData is returned on registration and login
type TokensData struct {
	User         UserData `json:"user"`
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Name     string `json:"name" validate:"required,min=2"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Register(r.Context(), data.Email, data.Name, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmailTaken):
			render.Error(w, "Email already in use", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err.Error())
			render.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.SuccessStatus(w, http.StatusCreated, "Registration successful", TokensData{
		User:         toUserData(user),
		Token:        pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.authService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			// Same body for unknown email and wrong password
			render.Error(w, "Invalid email or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.Success(w, "Login successful", TokensData{
		User:         toUserData(user),
		Token:        pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RefreshData struct {
		Token string `json:"token"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	access, err := h.authService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenInvalid),
			errors.Is(err, apperrors.ErrRefreshTokenNotFound),
			errors.Is(err, apperrors.ErrRefreshTokenExpired),
			errors.Is(err, apperrors.ErrUserNotFound):
			// One answer for malformed, unknown and expired tokens
			render.Error(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("token refresh failed", "error", err.Error())
			render.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.Success(w, "Token refreshed", RefreshData{Token: access.Value})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken"`
	}

	// The refresh token is optional and a broken body shouldn't fail
	// logout, so decode leniently instead of using BindAndValidate
	var data LogoutRequest
	_ = json.NewDecoder(r.Body).Decode(&data)

	if err := h.authService.Logout(r.Context(), data.RefreshToken); err != nil {
		h.logger.Error("logout failed", "error", err.Error())
		render.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.Success(w, "Logout successful", nil)
}

func toUserData(user models.User) UserData {
	return UserData{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}
