package pubg

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

const (
	eventMatchStart = "LogMatchStart"
	eventPlayerKill = "LogPlayerKillV2"
	eventMakeGroggy = "LogPlayerMakeGroggy"

	headshotReason = "HeadShot"
	cmPerMeter     = 100.0
)

// Telemetry is the combat-relevant subset of a match telemetry file
type Telemetry struct {
	MatchStart time.Time // zero when the file has no LogMatchStart
	Entries    []models.CombatLogEntry
	Skipped    int // malformed entries that were dropped
}

type envelope struct {
	Type string `json:"_T"`
	Date string `json:"_D"`
}

type character struct {
	Name      string `json:"name"`
	TeamID    int    `json:"teamId"`
	AccountID string `json:"accountId"`
}

type damageInfo struct {
	DamageCauserName *string  `json:"damageCauserName"`
	DamageReason     string   `json:"damageReason"`
	Distance         *float64 `json:"distance"` // centimetres
}

type playerKillEvent struct {
	Killer           *character  `json:"killer"`
	Finisher         *character  `json:"finisher"`
	Victim           *character  `json:"victim"`
	KillerDamageInfo *damageInfo `json:"killerDamageInfo"`
	FinishDamageInfo *damageInfo `json:"finishDamageInfo"`
	IsSuicide        bool        `json:"isSuicide"`
}

type makeGroggyEvent struct {
	Attacker         *character `json:"attacker"`
	Victim           *character `json:"victim"`
	DamageCauserName *string    `json:"damageCauserName"`
	DamageReason     string     `json:"damageReason"`
	Distance         *float64   `json:"distance"` // centimetres
}

var errSkipEntry = errors.New("malformed telemetry entry")

// decodeTelemetry streams the top-level array so the raw file is never
// unmarshalled into a single tree of interfaces.
func decodeTelemetry(body []byte) (*Telemetry, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read telemetry: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, errors.New("telemetry is not a JSON array")
	}

	tel := &Telemetry{}
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("read telemetry entry %d: %w", len(tel.Entries)+tel.Skipped, err)
		}
		if err := tel.add(raw); err != nil {
			tel.Skipped++
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read telemetry end: %w", err)
	}
	return tel, nil
}

func (t *Telemetry) add(raw json.RawMessage) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return errSkipEntry
	}

	switch env.Type {
	case eventMatchStart, eventPlayerKill, eventMakeGroggy:
	default:
		return nil
	}

	ts, err := time.Parse(time.RFC3339Nano, env.Date)
	if err != nil {
		return errSkipEntry
	}

	switch env.Type {
	case eventMatchStart:
		if t.MatchStart.IsZero() {
			t.MatchStart = ts
		}
	case eventPlayerKill:
		var ev playerKillEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return errSkipEntry
		}
		entry, ok := killEntry(ts, ev)
		if !ok {
			return errSkipEntry
		}
		t.Entries = append(t.Entries, entry)
	case eventMakeGroggy:
		var ev makeGroggyEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return errSkipEntry
		}
		if ev.Victim == nil || ev.Victim.Name == "" {
			return errSkipEntry
		}
		entry := models.CombatLogEntry{
			Kind:      models.CombatKnock,
			Timestamp: ts,
			Victim:    ev.Victim.Name,
			Weapon:    nonEmpty(ev.DamageCauserName),
			Distance:  meters(ev.Distance),
			Headshot:  ev.DamageReason == headshotReason,
		}
		if ev.Attacker != nil {
			entry.Attacker = ev.Attacker.Name
		}
		t.Entries = append(t.Entries, entry)
	}
	return nil
}

// killEntry credits the finisher when there is one, otherwise the player who
// dealt the knock. Suicides and environment kills keep the victim but carry
// no attacker.
func killEntry(ts time.Time, ev playerKillEvent) (models.CombatLogEntry, bool) {
	if ev.Victim == nil || ev.Victim.Name == "" {
		return models.CombatLogEntry{}, false
	}
	entry := models.CombatLogEntry{
		Kind:      models.CombatKill,
		Timestamp: ts,
		Victim:    ev.Victim.Name,
	}

	var info *damageInfo
	switch {
	case ev.Finisher != nil && ev.Finisher.Name != "":
		entry.Attacker = ev.Finisher.Name
		info = ev.FinishDamageInfo
	case ev.Killer != nil && ev.Killer.Name != "":
		entry.Attacker = ev.Killer.Name
		info = ev.KillerDamageInfo
	}
	if info == nil {
		info = ev.KillerDamageInfo
	}
	if info != nil {
		entry.Weapon = nonEmpty(info.DamageCauserName)
		entry.Distance = meters(info.Distance)
		entry.Headshot = info.DamageReason == headshotReason
	}
	if ev.IsSuicide || entry.Attacker == entry.Victim {
		entry.Attacker = ""
	}
	return entry, true
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func meters(cm *float64) *float64 {
	if cm == nil {
		return nil
	}
	m := *cm / cmPerMeter
	return &m
}
