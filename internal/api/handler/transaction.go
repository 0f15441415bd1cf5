package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oselu/walletpay/internal/domain"
	"github.com/oselu/walletpay/internal/service"
)

type TransactionHandler struct {
	transfers    *service.TransferService
	transactions *service.TransactionService
}

func NewTransactionHandler(transfers *service.TransferService, transactions *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transfers: transfers, transactions: transactions}
}

// Create initiates a transfer from the requester's wallet.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Sender         string          `json:"sender"`
		Receiver       string          `json:"receiver"`
		TransferAmount json.RawMessage `json:"transfer_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	raw, err := amountString(req.TransferAmount)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "transfer/invalid-amount", err.Error())
		return
	}
	amount, err := domain.ParseAmount(raw)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "transfer/invalid-amount", err.Error())
		return
	}

	txn, err := h.transfers.Transfer(r.Context(), actorID, req.Sender, req.Receiver, amount)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("transfer failed", zap.Error(err),
			zap.String("sender", req.Sender),
			zap.String("receiver", req.Receiver),
		)
		RespondError(w, r, http.StatusInternalServerError, "transfer/settlement-failed", "Transfer could not be settled")
		return
	}

	RespondJSON(w, http.StatusCreated, txn)
}

// amountString normalizes the transfer_amount field, which clients send either
// as a decimal string ("10.00") or as a bare JSON number (10.00).
func amountString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("transfer_amount is required")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errors.New("transfer_amount must be a decimal string or number")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errors.New("transfer_amount must be a decimal string or number")
	}
	return n.String(), nil
}

// List returns all transactions touching any of the requester's wallets.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	txns, err := h.transactions.ListForUser(r.Context(), actorID)
	if err != nil {
		zap.L().Error("list transactions failed", zap.Error(err), zap.String("user_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "transaction/list-failed", "Failed to list transactions")
		return
	}
	RespondJSON(w, http.StatusOK, txns)
}

// Get returns one transaction when the requester participates in it.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-transaction-id", "Invalid transaction ID")
		return
	}

	txn, err := h.transactions.Get(r.Context(), id, actorID)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("get transaction failed", zap.Error(err), zap.String("transaction_id", id.String()))
		RespondError(w, r, http.StatusInternalServerError, "transaction/read-failed", "Failed to get transaction")
		return
	}
	RespondJSON(w, http.StatusOK, txn)
}

// ListForWallet returns transactions of one wallet owned by the requester.
func (h *TransactionHandler) ListForWallet(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	name := chi.URLParam(r, "name")
	txns, err := h.transactions.ListForWallet(r.Context(), name, actorID)
	if err != nil {
		if respondDomainError(w, r, err) {
			return
		}
		zap.L().Error("list wallet transactions failed", zap.Error(err), zap.String("wallet", name))
		RespondError(w, r, http.StatusInternalServerError, "transaction/list-failed", "Failed to list transactions")
		return
	}
	RespondJSON(w, http.StatusOK, txns)
}
