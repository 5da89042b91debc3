package models

import "time"

// RosterEntry is one match participant as reported by the match endpoint.
// The combat counters are the API's own totals, used only when telemetry is
// unavailable.
type RosterEntry struct {
	Handle        string
	AccountID     string
	TeamID        int
	Placement     int
	DamageDealt   float64
	Assists       int
	Revives       int
	TimeSurvived  float64 // seconds, zero when unknown
	WalkDistance  float64
	RideDistance  float64
	SwimDistance  float64
	Kills         int
	HeadshotKills int
	Knocks        int
	LongestKill   float64
}

// CombatLogEntry is a normalised kill or knock read from match telemetry.
// Weapon and Distance are optional; nil means the field was absent.
type CombatLogEntry struct {
	Kind      CombatKind
	Timestamp time.Time
	Attacker  string
	Victim    string
	Weapon    *string
	Distance  *float64 // meters
	Headshot  bool
}
