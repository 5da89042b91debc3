package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/squadwatch/pubg-tracker/internal/logic"
	"github.com/squadwatch/pubg-tracker/internal/models"
	"github.com/squadwatch/pubg-tracker/internal/players"
	"github.com/squadwatch/pubg-tracker/internal/pubg"
)

// RegisterPlayer starts tracking a player
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)

	var req models.RegisterPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Handle is required and at most 64 characters")
		return
	}

	player, err := h.players.RegisterPlayer(r.Context(), req.Handle, req.Shard)
	if err != nil {
		h.playerError(w, err, req.Handle, req.Shard)
		return
	}

	h.logger.Infow("Player registered", "handle", player.Handle, "shard", player.Shard, "account_id", player.AccountID)
	h.jsonResponse(w, http.StatusCreated, player)
}

// UnregisterPlayer stops tracking a player
func (h *Handler) UnregisterPlayer(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	shard := r.URL.Query().Get("shard")

	if err := h.players.UnregisterPlayer(r.Context(), handle, shard); err != nil {
		h.playerError(w, err, handle, shard)
		return
	}

	h.logger.Infow("Player unregistered", "handle", handle, "shard", shard)
	w.WriteHeader(http.StatusNoContent)
}

// ListPlayers returns every tracked player
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.players.ListPlayers(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list players", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to list players")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"players": list,
		"count":   len(list),
	})
}

func (h *Handler) playerError(w http.ResponseWriter, err error, handle, shard string) {
	switch {
	case errors.Is(err, logic.ErrInvalidHandle), errors.Is(err, logic.ErrUnknownShard):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, players.ErrPlayerExists):
		h.errorResponse(w, http.StatusConflict, "Player is already tracked")
	case errors.Is(err, players.ErrPlayerNotTracked):
		h.errorResponse(w, http.StatusNotFound, "Player is not tracked")
	case errors.Is(err, pubg.ErrPlayerNotFound):
		h.errorResponse(w, http.StatusNotFound, "Player not found on PUBG")
	case pubg.IsTransient(err):
		h.errorResponse(w, http.StatusServiceUnavailable, "PUBG API unavailable, try again later")
	default:
		h.logger.Errorw("Player command failed", "handle", handle, "shard", shard, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
