package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

// AccountsHandler handles chart-of-accounts API endpoints.
type AccountsHandler struct {
	accounts *ledger.Accounts
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(accounts *ledger.Accounts) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

// List handles GET /api/1/accounts.
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	accounts, err := h.accounts.List(activeOnly)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list accounts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
	})
}

// Get handles GET /api/1/accounts/{id}.
func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid account ID")
		return
	}

	account, err := h.accounts.Get(id)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Account not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to get account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
	})
}

// CreateAccountRequest represents the request to create an account.
type CreateAccountRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Create handles POST /api/1/accounts.
func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	account, err := h.accounts.Create(req.Code, req.Name, ledger.AccountType(req.Type))
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Reason)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"account": account,
	})
}
