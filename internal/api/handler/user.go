package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.Password != req.Password2 {
		RespondError(w, r, http.StatusBadRequest, "user/password-mismatch", "Passwords don't match")
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("register failed", zap.Error(err), zap.String("username", req.Username))
		RespondError(w, r, http.StatusInternalServerError, "user/create-failed", "Failed to register user")
		return
	}

	RespondJSON(w, http.StatusCreated, user)
}

// List is admin-only; the router enforces the role.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		zap.L().Error("list users failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "user/list-failed", "Failed to list users")
		return
	}
	RespondJSON(w, http.StatusOK, users)
}
