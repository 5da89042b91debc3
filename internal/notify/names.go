package notify

import (
	"hash/fnv"
	"strings"
)

var mapNames = map[string]string{
	"Baltic_Main":     "Erangel",
	"Erangel_Main":    "Erangel",
	"Chimera_Main":    "Paramo",
	"Desert_Main":     "Miramar",
	"DihorOtok_Main":  "Vikendi",
	"Heaven_Main":     "Haven",
	"Kiki_Main":       "Deston",
	"Range_Main":      "Camp Jackal",
	"Savage_Main":     "Sanhok",
	"Summerland_Main": "Karakin",
	"Tiger_Main":      "Taego",
	"Neon_Main":       "Rondo",
}

var gameModes = map[string]string{
	"duo":                "Duo TPP",
	"duo-fpp":            "Duo FPP",
	"solo":               "Solo TPP",
	"solo-fpp":           "Solo FPP",
	"squad":              "Squad TPP",
	"squad-fpp":          "Squad FPP",
	"normal-duo":         "Normal Duo TPP",
	"normal-duo-fpp":     "Normal Duo FPP",
	"normal-solo":        "Normal Solo TPP",
	"normal-solo-fpp":    "Normal Solo FPP",
	"normal-squad":       "Normal Squad TPP",
	"normal-squad-fpp":   "Normal Squad FPP",
	"conquest-squad-fpp": "Conquest Squad FPP",
	"esports-squad-fpp":  "Esports Squad FPP",
	"lab-tpp":            "Lab TPP",
	"lab-fpp":            "Lab FPP",
	"tdm":                "Team Deathmatch",
	"ibr":                "Intense Battle Royale",
}

// MapName returns the display name of a map id
func MapName(id string) string {
	if name, ok := mapNames[id]; ok {
		return name
	}
	return id
}

// GameMode returns the display name of a game mode id
func GameMode(id string) string {
	if name, ok := gameModes[strings.ToLower(id)]; ok {
		return name
	}
	return id
}

// MatchColor derives a stable embed colour from the match id
func MatchColor(matchID string) int {
	h := fnv.New32a()
	h.Write([]byte(matchID))
	return int(h.Sum32() & 0xFFFFFF)
}
