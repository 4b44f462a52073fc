package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/username/settlementdash/backend/src/utils"
)

type UserHandler struct {
	authService *security.AuthService
	verifier    security.CredentialVerifier
}

func NewUserHandler(authService *security.AuthService, verifier security.CredentialVerifier) *UserHandler {
	return &UserHandler{
		authService: authService,
		verifier:    verifier,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        sessionInfo `json:"user"`
}

type sessionInfo struct {
	Username string `json:"username"`
	State    string `json:"state"`
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var credentials loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		log.Debug("Invalid login request body", "error", err)
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var session security.Session
	if err := session.Login(r.Context(), h.verifier, credentials.Username, credentials.Password); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			log.Info("Login rejected", "username", credentials.Username, "remoteAddr", r.RemoteAddr)
			utils.SendJSONError(w, "Invalid username or password", http.StatusUnauthorized)
			return
		}
		log.Error("Login failed", "username", credentials.Username, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	accessToken, claims, err := h.authService.GenerateToken(session.Username)
	if err != nil {
		log.Error("Failed to generate access token", "username", session.Username, "error", err)
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}

	log.Info("User logged in", "username", session.Username, "jti", claims.ID)
	utils.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: accessToken,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        sessionInfo{Username: session.Username, State: session.State.String()},
	})
}

// LogoutUserHandler revokes the presented token.
func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	session := security.SessionFromContext(r.Context())
	h.authService.Revoke(claims)
	session.Logout()

	logger.FromContext(r.Context()).Info("User logged out", "username", claims.Subject, "jti", claims.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	session := security.SessionFromContext(r.Context())
	if !session.Authorized() {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	utils.WriteJSON(w, http.StatusOK, sessionInfo{Username: session.Username, State: session.State.String()})
}
