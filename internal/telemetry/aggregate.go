// Package telemetry turns a match roster and its combat log into ordered
// team and player results.
package telemetry

import (
	"sort"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

type playerAcc struct {
	result   models.PlayerResult
	teamID   int
	rosterTS float64
	deathAt  float64
	died     bool
}

// Aggregate computes per-team and per-player results. It is pure: the same
// inputs always give the same output regardless of log order.
//
// Teams are ordered by placement (ties by team id); players within a team by
// kills desc, damage desc, handle asc. Events are attributed to the attacker
// only. Log entries whose attacker is not on the roster are not counted, but
// a kill still records the victim's death. A zero matchStart falls back to the
// earliest log timestamp.
func Aggregate(roster []models.RosterEntry, log []models.CombatLogEntry, matchStart time.Time, duration int) []models.TeamResult {
	if len(roster) == 0 {
		return nil
	}
	if matchStart.IsZero() {
		matchStart = earliest(log)
	}

	players := make(map[string]*playerAcc, len(roster))
	order := make([]*playerAcc, 0, len(roster))
	placements := make(map[int]int)
	for _, e := range roster {
		if _, dup := players[e.Handle]; dup {
			continue
		}
		acc := &playerAcc{
			result: models.PlayerResult{
				Handle:            e.Handle,
				AccountID:         e.AccountID,
				DamageDealt:       e.DamageDealt,
				Assists:           e.Assists,
				Revives:           e.Revives,
				DistanceTravelled: e.WalkDistance + e.RideDistance + e.SwimDistance,
				Events:            []models.CombatEvent{},
			},
			teamID:   e.TeamID,
			rosterTS: e.TimeSurvived,
		}
		players[e.Handle] = acc
		order = append(order, acc)
		if p, ok := placements[e.TeamID]; !ok || (e.Placement > 0 && (p <= 0 || e.Placement < p)) {
			placements[e.TeamID] = e.Placement
		}
	}

	for _, entry := range log {
		offset := entry.Timestamp.Sub(matchStart).Seconds()
		if offset < 0 {
			offset = 0
		}

		if entry.Kind == models.CombatKill {
			if victim, ok := players[entry.Victim]; ok && (!victim.died || offset < victim.deathAt) {
				victim.died = true
				victim.deathAt = offset
			}
		}

		attacker, ok := players[entry.Attacker]
		if !ok || entry.Attacker == "" {
			continue
		}

		distance := 0.0
		if entry.Distance != nil && *entry.Distance > 0 {
			distance = *entry.Distance
		}
		weapon := models.UnknownWeapon
		if entry.Weapon != nil && *entry.Weapon != "" {
			weapon = WeaponName(*entry.Weapon)
		}

		switch entry.Kind {
		case models.CombatKill:
			attacker.result.Kills++
			if entry.Headshot {
				attacker.result.HeadshotKills++
			}
			if distance > attacker.result.LongestKill {
				attacker.result.LongestKill = distance
			}
		case models.CombatKnock:
			attacker.result.Knocks++
		default:
			continue
		}

		attacker.result.Events = append(attacker.result.Events, models.CombatEvent{
			Kind:     entry.Kind,
			Offset:   offset,
			Attacker: entry.Attacker,
			Victim:   entry.Victim,
			Weapon:   weapon,
			Distance: distance,
		})
	}

	teams := make(map[int]*models.TeamResult)
	var teamOrder []*models.TeamResult
	for _, acc := range order {
		acc.result.TimeSurvived = survival(acc, duration)
		sortEvents(acc.result.Events)

		team, ok := teams[acc.teamID]
		if !ok {
			team = &models.TeamResult{TeamID: acc.teamID, Placement: placements[acc.teamID]}
			teams[acc.teamID] = team
			teamOrder = append(teamOrder, team)
		}
		team.Players = append(team.Players, acc.result)
	}

	results := make([]models.TeamResult, 0, len(teamOrder))
	for _, team := range teamOrder {
		sortPlayers(team.Players)
		team.SquadSize = len(team.Players)
		results = append(results, *team)
	}
	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := rank(results[i].Placement), rank(results[j].Placement)
		if pi != pj {
			return pi < pj
		}
		return results[i].TeamID < results[j].TeamID
	})
	return results
}

// survival prefers the telemetry death offset, then the roster figure, then
// the full match length, never exceeding the match length.
func survival(acc *playerAcc, duration int) float64 {
	var t float64
	switch {
	case acc.died:
		t = acc.deathAt
	case acc.rosterTS > 0:
		t = acc.rosterTS
	default:
		t = float64(duration)
	}
	if duration > 0 && t > float64(duration) {
		t = float64(duration)
	}
	return t
}

// rank sorts unknown placements after every known one
func rank(placement int) int {
	if placement <= 0 {
		return int(^uint(0) >> 1)
	}
	return placement
}

func sortPlayers(ps []models.PlayerResult) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Kills != ps[j].Kills {
			return ps[i].Kills > ps[j].Kills
		}
		if ps[i].DamageDealt != ps[j].DamageDealt {
			return ps[i].DamageDealt > ps[j].DamageDealt
		}
		return ps[i].Handle < ps[j].Handle
	})
}

// sortEvents orders by offset, breaking ties deterministically so the result
// does not depend on log order.
func sortEvents(events []models.CombatEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		if a.Kind != b.Kind {
			return a.Kind == models.CombatKnock
		}
		if a.Victim != b.Victim {
			return a.Victim < b.Victim
		}
		if a.Weapon != b.Weapon {
			return a.Weapon < b.Weapon
		}
		return a.Distance < b.Distance
	})
}

func earliest(log []models.CombatLogEntry) time.Time {
	var first time.Time
	for _, e := range log {
		if first.IsZero() || e.Timestamp.Before(first) {
			first = e.Timestamp
		}
	}
	return first
}

// FilterTeams keeps only the teams with a player whose handle or account id
// is in keys.
func FilterTeams(teams []models.TeamResult, keys []string) []models.TeamResult {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			want[k] = struct{}{}
		}
	}
	var out []models.TeamResult
	for _, team := range teams {
		for _, p := range team.Players {
			_, byHandle := want[p.Handle]
			_, byAccount := want[p.AccountID]
			if byHandle || byAccount {
				out = append(out, team)
				break
			}
		}
	}
	return out
}

// ApplyRosterTotals fills kill, headshot, knock and longest-kill counters from
// the match endpoint's own totals. Used when telemetry is unavailable so the
// stat lines are not all zero; timelines stay empty.
func ApplyRosterTotals(teams []models.TeamResult, roster []models.RosterEntry) []models.TeamResult {
	byHandle := make(map[string]models.RosterEntry, len(roster))
	for _, e := range roster {
		if _, dup := byHandle[e.Handle]; !dup {
			byHandle[e.Handle] = e
		}
	}

	out := make([]models.TeamResult, len(teams))
	for i, team := range teams {
		team.Players = append([]models.PlayerResult(nil), team.Players...)
		for j := range team.Players {
			e, ok := byHandle[team.Players[j].Handle]
			if !ok {
				continue
			}
			team.Players[j].Kills = e.Kills
			team.Players[j].HeadshotKills = e.HeadshotKills
			team.Players[j].Knocks = e.Knocks
			team.Players[j].LongestKill = e.LongestKill
		}
		sortPlayers(team.Players)
		out[i] = team
	}
	return out
}
