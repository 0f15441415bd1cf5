package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/service"
)

type WalletHandler struct {
	wallets *service.WalletService
}

func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Type     string `json:"type"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	wallet, err := h.wallets.Create(r.Context(), actorID, req.Type, req.Currency)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("create wallet failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "wallet/create-failed", "Failed to create wallet")
		return
	}

	RespondJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	wallets, err := h.wallets.List(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list wallets failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "wallet/list-failed", "Failed to list wallets")
		return
	}
	RespondJSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	name := chi.URLParam(r, "name")
	wallet, err := h.wallets.Get(r.Context(), name, actorID)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("get wallet failed", zap.Error(err), zap.String("wallet", name))
		RespondError(w, r, http.StatusInternalServerError, "wallet/read-failed", "Failed to get wallet")
		return
	}
	RespondJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.wallets.Delete(r.Context(), name, actorID); err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("delete wallet failed", zap.Error(err), zap.String("wallet", name))
		RespondError(w, r, http.StatusInternalServerError, "wallet/delete-failed", "Failed to delete wallet")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"detail": fmt.Sprintf("Wallet %s deleted", name)})
}
