package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/api/middleware"
	"github.com/oselu/walletpay/internal/service"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("login failed", zap.Error(err), zap.String("username", req.Username))
		RespondError(w, r, http.StatusInternalServerError, "auth/login-failed", "Failed to log in")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"sub":     user.ID.String(),
		"iss":     middleware.JWTIssuer(),
		"aud":     middleware.JWTAudience(),
		"iat":     now.Unix(),
		"exp":     now.Add(24 * time.Hour).Unix(),
	})

	signed, err := token.SignedString(middleware.JWTSecret())
	if err != nil {
		zap.L().Error("token signing failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-signing-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"token": signed})
}
