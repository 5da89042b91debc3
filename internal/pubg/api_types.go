package pubg

import "encoding/json"

// JSON:API documents returned by api.pubg.com. Only the fields the tracker
// reads are declared; everything else is ignored by encoding/json.

type resourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type relationship struct {
	Data []resourceRef `json:"data"`
}

type playerResource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		Name    string `json:"name"`
		ShardID string `json:"shardId"`
	} `json:"attributes"`
	Relationships struct {
		Matches relationship `json:"matches"`
	} `json:"relationships"`
}

type playersResponse struct {
	Data []playerResource `json:"data"`
}

type playerResponse struct {
	Data playerResource `json:"data"`
}

type matchResource struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes struct {
		CreatedAt     string `json:"createdAt"`
		Duration      int    `json:"duration"`
		GameMode      string `json:"gameMode"`
		MapName       string `json:"mapName"`
		ShardID       string `json:"shardId"`
		IsCustomMatch bool   `json:"isCustomMatch"`
	} `json:"attributes"`
	Relationships struct {
		Rosters relationship `json:"rosters"`
		Assets  relationship `json:"assets"`
	} `json:"relationships"`
}

type includedResource struct {
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	Attributes    json.RawMessage `json:"attributes"`
	Relationships struct {
		Participants relationship `json:"participants"`
	} `json:"relationships"`
}

type matchResponse struct {
	Data     matchResource      `json:"data"`
	Included []includedResource `json:"included"`
}

type participantAttributes struct {
	Stats struct {
		Name          string  `json:"name"`
		PlayerID      string  `json:"playerId"`
		Kills         int     `json:"kills"`
		HeadshotKills int     `json:"headshotKills"`
		DBNOs         int     `json:"DBNOs"`
		DamageDealt   float64 `json:"damageDealt"`
		Assists       int     `json:"assists"`
		Revives       int     `json:"revives"`
		TimeSurvived  float64 `json:"timeSurvived"`
		WalkDistance  float64 `json:"walkDistance"`
		RideDistance  float64 `json:"rideDistance"`
		SwimDistance  float64 `json:"swimDistance"`
		WinPlace      int     `json:"winPlace"`
		LongestKill   float64 `json:"longestKill"`
	} `json:"stats"`
}

type rosterAttributes struct {
	Stats struct {
		Rank   int `json:"rank"`
		TeamID int `json:"teamId"`
	} `json:"stats"`
	Won string `json:"won"`
}

type assetAttributes struct {
	Name string `json:"name"`
	URL  string `json:"URL"`
}
