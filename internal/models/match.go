package models

import "time"

// CombatKind identifies the type of a combat event
type CombatKind string

const (
	CombatKill  CombatKind = "kill"
	CombatKnock CombatKind = "knock"
)

// UnknownWeapon is used when telemetry does not name the damage causer
const UnknownWeapon = "unknown"

// MatchSummary is the fully aggregated result of a single match, handed to a
// notification sink exactly once.
type MatchSummary struct {
	MatchID          string       `json:"match_id"`
	Shard            string       `json:"shard"`
	CreatedAt        time.Time    `json:"created_at"`
	MapName          string       `json:"map_name"`
	GameMode         string       `json:"game_mode"`
	Duration         int          `json:"duration"` // seconds
	Teams            []TeamResult `json:"teams"`
	TrackedHandles   []string     `json:"tracked_handles"`
	TelemetryMissing bool         `json:"telemetry_missing"`
}

// TeamResult is a squad's final standing
type TeamResult struct {
	TeamID    int            `json:"team_id"`
	Placement int            `json:"placement"`
	SquadSize int            `json:"squad_size"`
	Players   []PlayerResult `json:"players"`
}

// TotalKills sums kills over the squad
func (t TeamResult) TotalKills() int {
	total := 0
	for _, p := range t.Players {
		total += p.Kills
	}
	return total
}

// TotalKnocks sums knocks over the squad
func (t TeamResult) TotalKnocks() int {
	total := 0
	for _, p := range t.Players {
		total += p.Knocks
	}
	return total
}

// TotalDamage sums damage over the squad
func (t TeamResult) TotalDamage() float64 {
	total := 0.0
	for _, p := range t.Players {
		total += p.DamageDealt
	}
	return total
}

// PlayerResult holds one participant's stat line and kill/knock timeline
type PlayerResult struct {
	Handle            string        `json:"handle"`
	AccountID         string        `json:"account_id"`
	Kills             int           `json:"kills"`
	HeadshotKills     int           `json:"headshot_kills"`
	Knocks            int           `json:"knocks"`
	DamageDealt       float64       `json:"damage_dealt"`
	Assists           int           `json:"assists"`
	TimeSurvived      float64       `json:"time_survived"` // seconds
	LongestKill       float64       `json:"longest_kill"`  // meters
	DistanceTravelled float64       `json:"distance_travelled"`
	Revives           int           `json:"revives"`
	Events            []CombatEvent `json:"events"`
}

// HeadshotRatio returns headshot kills over kills, guarding against zero kills
func (p PlayerResult) HeadshotRatio() float64 {
	kills := p.Kills
	if kills < 1 {
		kills = 1
	}
	return float64(p.HeadshotKills) / float64(kills)
}

// CombatEvent is a kill or knock attributed to the attacker's timeline
type CombatEvent struct {
	Kind     CombatKind `json:"kind"`
	Offset   float64    `json:"offset"` // seconds since match start
	Attacker string     `json:"attacker"`
	Victim   string     `json:"victim"`
	Weapon   string     `json:"weapon"`
	Distance float64    `json:"distance"` // meters
}

// ProcessedMatchRecord marks a match as already reported
type ProcessedMatchRecord struct {
	MatchID     string    `json:"match_id"`
	ProcessedAt time.Time `json:"processed_at"`
}
