package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/physai/textbook-backend/internal/auth"
	"github.com/physai/textbook-backend/internal/models"
)

type AuthHandler struct {
	gateway *auth.Gateway
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(gateway *auth.Gateway) *AuthHandler {
	return &AuthHandler{gateway: gateway}
}

type signupRequest struct {
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	SoftwareExperience string   `json:"software_experience"`
	HardwareExperience string   `json:"hardware_experience"`
	Interests          []string `json:"interests"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type authResponse struct {
	Account *auth.AccountSummary `json:"account"`
	Tokens  tokenResponse        `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type signoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func tokensOf(pair *auth.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RotatingCredential,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

// writeAuthError maps gateway errors onto the HTTP surface without leaking
// which part of a credential was wrong.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidOrExpiredSession):
		writeError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrStorageUnavailable):
		writeError(w, "service unavailable", http.StatusServiceUnavailable)
	default:
		writeError(w, "bad request", http.StatusBadRequest)
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	software, err := models.ParseSoftwareExperience(req.SoftwareExperience)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	hardware, err := models.ParseHardwareExperience(req.HardwareExperience)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, pair, err := h.gateway.Signup(r.Context(), auth.SignupInput{
		Email:              req.Email,
		Password:           req.Password,
		SoftwareExperience: software,
		HardwareExperience: hardware,
		Interests:          req.Interests,
	}, clientMeta(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, authResponse{Account: account, Tokens: tokensOf(pair)}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	account, pair, err := h.gateway.Signin(r.Context(), req.Email, req.Password, clientMeta(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, authResponse{Account: account, Tokens: tokensOf(pair)}, http.StatusOK)
}

// Signout revokes the presented rotating credential. Runs behind
// AuthMiddleware; revoking an already-revoked session still returns 200.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromContext(r.Context())
	if !ok {
		writeError(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	// body is optional; absent credential revokes every session of the account
	var req signoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.gateway.Signout(r.Context(), accountID, req.RefreshToken); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, map[string]string{"message": "signed out"}, http.StatusOK)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	pair, err := h.gateway.Refresh(r.Context(), req.RefreshToken, clientMeta(r))
	if err != nil {
		logger.Info("refresh rejected", slog.Any("err", err))
		writeAuthError(w, err)
		return
	}

	writeJSON(w, tokensOf(pair), http.StatusOK)
}
