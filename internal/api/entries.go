package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/go-ledger/pkg/ledger"
)

// EntriesHandler handles journal entry API endpoints.
type EntriesHandler struct {
	poster *ledger.Poster
}

// NewEntriesHandler creates a new EntriesHandler.
func NewEntriesHandler(poster *ledger.Poster) *EntriesHandler {
	return &EntriesHandler{poster: poster}
}

// List handles GET /api/1/entries.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	entries, err := h.poster.ListEntries(from, to)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list entries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

// Get handles GET /api/1/entries/{id}.
func (h *EntriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	entry, err := h.poster.GetEntry(id)
	if err != nil {
		if errors.Is(err, ledger.ErrEntryNotFound) {
			writeJSONError(w, http.StatusNotFound, "not_found", "Entry not found")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to get entry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry": entry,
	})
}

// PostEntryRequest represents the request to post a journal entry.
type PostEntryRequest struct {
	Date          string        `json:"date"`
	Description   string        `json:"description"`
	ReferenceType string        `json:"reference_type"`
	ReferenceID   *int64        `json:"reference_id,omitempty"`
	CreatedBy     string        `json:"created_by"`
	Lines         []ledger.Line `json:"lines"`
}

// Create handles POST /api/1/entries.
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	referenceType := ledger.ReferenceType(req.ReferenceType)
	if req.ReferenceType == "" {
		referenceType = ledger.ReferenceJournal
	}

	header := ledger.EntryHeader{
		Date:          req.Date,
		Description:   req.Description,
		ReferenceType: referenceType,
		ReferenceID:   req.ReferenceID,
		CreatedBy:     req.CreatedBy,
	}

	entry, err := h.poster.Post(header, req.Lines)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			writeJSONError(w, http.StatusUnprocessableEntity, "validation_failed", verr.Reason)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to post entry")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"entry": entry,
	})
}

// Delete handles DELETE /api/1/entries/{id}, reversing a manual entry.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseEntryID(w, r)
	if !ok {
		return
	}

	reason := r.URL.Query().Get("reason")
	if reason == "" {
		reason = "Manual journal void"
	}

	if err := h.poster.Reverse(id, reason); err != nil {
		switch {
		case errors.Is(err, ledger.ErrEntryNotFound):
			writeJSONError(w, http.StatusNotFound, "not_found", "Entry not found")
		case errors.Is(err, ledger.ErrNotReversible):
			writeJSONError(w, http.StatusForbidden, "not_reversible", "Only manually created entries can be reversed")
		default:
			writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to reverse entry")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/1/stats.
func (h *EntriesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.poster.Stats()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to get stats")
		return
	}

	body := map[string]interface{}{
		"total_entries":  stats.TotalEntries,
		"total_accounts": stats.TotalAccounts,
	}
	if stats.LastPosted.Valid {
		body["last_posted"] = stats.LastPosted.String
	}

	writeJSON(w, http.StatusOK, body)
}

func parseEntryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid entry ID")
		return 0, false
	}
	return id, true
}
