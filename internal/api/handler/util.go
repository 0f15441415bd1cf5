package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/oselu/walletpay/internal/api/middleware"
	"github.com/oselu/walletpay/internal/api/problem"
	"github.com/oselu/walletpay/internal/models"
	"github.com/oselu/walletpay/internal/service"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an RFC 7807 error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, false, errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid user_id in auth context")
	}

	return actorID, middleware.UserRoleFromContext(r.Context()) == "admin", nil
}

// mapDomainError translates typed service errors into HTTP problem responses.
// Not-found and not-owned collapse into the same 404 on purpose.
func mapDomainError(err error) (status int, problemType string, ok bool) {
	switch {
	case errors.Is(err, models.ErrWalletNotFound),
		errors.Is(err, models.ErrSenderNotFound),
		errors.Is(err, models.ErrReceiverNotFound),
		errors.Is(err, models.ErrTransactionNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound, "resource/not-found", true
	case errors.Is(err, models.ErrInvalidChoice):
		return http.StatusBadRequest, "wallet/invalid-choice", true
	case errors.Is(err, models.ErrWalletLimitExceeded):
		return http.StatusBadRequest, "wallet/limit-exceeded", true
	case errors.Is(err, models.ErrSameWallet):
		return http.StatusBadRequest, "transfer/same-wallet", true
	case errors.Is(err, models.ErrCurrencyMismatch):
		return http.StatusBadRequest, "transfer/currency-mismatch", true
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusBadRequest, "transfer/insufficient-funds", true
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "transfer/invalid-amount", true
	case errors.Is(err, models.ErrNotWalletOwner):
		return http.StatusForbidden, "transfer/not-wallet-owner", true
	case errors.Is(err, models.ErrReferentialRestriction):
		return http.StatusConflict, "wallet/referenced-by-transactions", true
	case errors.Is(err, models.ErrDuplicateUsername):
		return http.StatusConflict, "user/duplicate-username", true
	case errors.Is(err, models.ErrDuplicateName):
		return http.StatusConflict, "wallet/duplicate-name", true
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "auth/invalid-credentials", true
	case errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrMissingField):
		return http.StatusBadRequest, "user/invalid-registration", true
	default:
		return 0, "", false
	}
}

func respondDomainError(w http.ResponseWriter, r *http.Request, err error) bool {
	status, pType, ok := mapDomainError(err)
	if !ok {
		return false
	}
	RespondError(w, r, status, pType, err.Error())
	return true
}
