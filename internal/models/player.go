package models

import "time"

// TrackedPlayer is a player whose matches are reported
type TrackedPlayer struct {
	Handle    string    `json:"handle"`
	AccountID string    `json:"account_id,omitempty"` // empty until resolved
	Shard     string    `json:"shard"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolved reports whether the account id is known
func (p TrackedPlayer) Resolved() bool {
	return p.AccountID != ""
}

// RegisterPlayerRequest is the body of POST /api/v1/players
type RegisterPlayerRequest struct {
	Handle string `json:"handle" validate:"required,max=64"`
	Shard  string `json:"shard" validate:"omitempty,max=32"`
}
