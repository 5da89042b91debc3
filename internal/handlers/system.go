package handlers

import (
	"net/http"
)

// InstallDatabase creates the tracked-player and ledger tables
func (h *Handler) InstallDatabase(w http.ResponseWriter, r *http.Request) {
	if h.installer == nil {
		h.errorResponse(w, http.StatusConflict, "No relational store configured")
		return
	}

	results := map[string]string{"postgres": "success"}
	status := http.StatusOK
	if err := h.installer.EnsureSchema(r.Context()); err != nil {
		h.logger.Errorw("failed to execute schema", "db", "PostgreSQL", "error", err)
		results["postgres"] = "failed: " + err.Error()
		status = http.StatusInternalServerError
	} else {
		h.logger.Infow("successfully installed schema", "db", "PostgreSQL")
	}

	h.jsonResponse(w, status, map[string]interface{}{
		"status":  "completed",
		"results": results,
		"error":   status != http.StatusOK,
	})
}
