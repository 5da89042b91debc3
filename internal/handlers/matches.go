package handlers

import (
	"net/http"
	"strconv"
)

// ProcessedMatches lists the most recently reported matches
func (h *Handler) ProcessedMatches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.matches.RecentProcessed(r.Context(), limit)
	if err != nil {
		h.logger.Errorw("Failed to list processed matches", "error", err)
		h.errorResponse(w, http.StatusServiceUnavailable, "Ledger unavailable")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"matches": records,
		"count":   len(records),
	})
}
