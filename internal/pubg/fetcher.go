package pubg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

// MatchDetail is a decoded match document: the summary skeleton without teams,
// the flat roster and the telemetry asset location.
type MatchDetail struct {
	Summary      models.MatchSummary
	Roster       []models.RosterEntry
	TelemetryURL string
}

// Duration returns the match length in seconds
func (d MatchDetail) Duration() int {
	return d.Summary.Duration
}

// Fetcher is the high-level view of the PUBG API used by the monitor and the
// command surface.
type Fetcher struct {
	client *Client
}

// NewFetcher wraps a client
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

func (f *Fetcher) shardURL(shard string, path string) string {
	return f.client.baseURL + "/shards/" + url.PathEscape(shard) + path
}

// ResolveAccountID looks up the account id for a handle on a shard
func (f *Fetcher) ResolveAccountID(ctx context.Context, handle, shard string) (string, error) {
	if strings.TrimSpace(handle) == "" {
		return "", fmt.Errorf("%w: empty handle", ErrPlayerNotFound)
	}

	q := url.Values{}
	q.Set("filter[playerNames]", handle)
	body, err := f.client.get(ctx, request{
		endpoint: "players",
		url:      f.shardURL(shard, "/players?"+q.Encode()),
		api:      true,
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return "", fmt.Errorf("%w: %s on %s", ErrPlayerNotFound, handle, shard)
		}
		return "", fmt.Errorf("resolve %s: %w", handle, err)
	}

	var resp playersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: players: %v", ErrMalformedResponse, err)
	}
	for _, p := range resp.Data {
		if p.ID == "" {
			continue
		}
		// The API matches names case-sensitively but be tolerant of echoes
		if p.Attributes.Name == "" || strings.EqualFold(p.Attributes.Name, handle) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s on %s", ErrPlayerNotFound, handle, shard)
}

// ListRecentMatches returns the player's match ids, most recent first
func (f *Fetcher) ListRecentMatches(ctx context.Context, accountID, shard string) ([]string, error) {
	body, err := f.client.get(ctx, request{
		endpoint: "player",
		url:      f.shardURL(shard, "/players/"+url.PathEscape(accountID)),
		api:      true,
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: account %s", ErrPlayerNotFound, accountID)
		}
		return nil, fmt.Errorf("list matches for %s: %w", accountID, err)
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: player: %v", ErrMalformedResponse, err)
	}

	refs := resp.Data.Relationships.Matches.Data
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.ID != "" {
			ids = append(ids, ref.ID)
		}
	}
	return ids, nil
}

// FetchMatchDetail retrieves and validates a match document
func (f *Fetcher) FetchMatchDetail(ctx context.Context, matchID, shard string) (*MatchDetail, error) {
	body, err := f.client.get(ctx, request{
		endpoint: "match",
		url:      f.shardURL(shard, "/matches/"+url.PathEscape(matchID)),
		api:      true,
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMatchGone, matchID)
		}
		return nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}
	return decodeMatch(body, shard)
}

func decodeMatch(body []byte, shard string) (*MatchDetail, error) {
	var resp matchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: match: %v", ErrMalformedResponse, err)
	}

	data := resp.Data
	if data.Type != "match" || data.ID == "" {
		return nil, fmt.Errorf("%w: match document has type %q id %q", ErrMalformedResponse, data.Type, data.ID)
	}
	createdAt, err := time.Parse(time.RFC3339, data.Attributes.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: match %s createdAt: %v", ErrMalformedResponse, data.ID, err)
	}
	if data.Attributes.ShardID != "" {
		shard = data.Attributes.ShardID
	}

	detail := &MatchDetail{
		Summary: models.MatchSummary{
			MatchID:   data.ID,
			Shard:     shard,
			CreatedAt: createdAt.UTC(),
			MapName:   data.Attributes.MapName,
			GameMode:  data.Attributes.GameMode,
			Duration:  data.Attributes.Duration,
		},
	}

	participants := make(map[string]participantAttributes)
	type team struct {
		id, rank int
		members  []string
	}
	var teams []team

	for _, inc := range resp.Included {
		switch inc.Type {
		case "participant":
			var attrs participantAttributes
			if err := json.Unmarshal(inc.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("%w: participant %s: %v", ErrMalformedResponse, inc.ID, err)
			}
			participants[inc.ID] = attrs
		case "roster":
			var attrs rosterAttributes
			if err := json.Unmarshal(inc.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("%w: roster %s: %v", ErrMalformedResponse, inc.ID, err)
			}
			t := team{id: attrs.Stats.TeamID, rank: attrs.Stats.Rank}
			for _, ref := range inc.Relationships.Participants.Data {
				t.members = append(t.members, ref.ID)
			}
			teams = append(teams, t)
		case "asset":
			var attrs assetAttributes
			if err := json.Unmarshal(inc.Attributes, &attrs); err != nil {
				continue
			}
			if strings.EqualFold(attrs.Name, "telemetry") && attrs.URL != "" {
				detail.TelemetryURL = attrs.URL
			}
		}
	}

	for _, t := range teams {
		for _, pid := range t.members {
			p, ok := participants[pid]
			if !ok || p.Stats.Name == "" {
				continue
			}
			placement := t.rank
			if placement <= 0 {
				placement = p.Stats.WinPlace
			}
			detail.Roster = append(detail.Roster, models.RosterEntry{
				Handle:       p.Stats.Name,
				AccountID:    p.Stats.PlayerID,
				TeamID:       t.id,
				Placement:    placement,
				DamageDealt:  p.Stats.DamageDealt,
				Assists:      p.Stats.Assists,
				Revives:      p.Stats.Revives,
				TimeSurvived: p.Stats.TimeSurvived,
				WalkDistance: p.Stats.WalkDistance,
				RideDistance: p.Stats.RideDistance,
				SwimDistance: p.Stats.SwimDistance,

				Kills:         p.Stats.Kills,
				HeadshotKills: p.Stats.HeadshotKills,
				Knocks:        p.Stats.DBNOs,
				LongestKill:   p.Stats.LongestKill,
			})
		}
	}

	if len(detail.Roster) == 0 {
		return nil, fmt.Errorf("%w: match %s has no roster", ErrMalformedResponse, data.ID)
	}
	return detail, nil
}

// FetchTelemetry downloads and decodes the telemetry asset. Any failure is
// reported as ErrTelemetryUnavailable except an authentication failure or
// cancellation, which callers must see as such.
func (f *Fetcher) FetchTelemetry(ctx context.Context, assetURL string) (*Telemetry, error) {
	if assetURL == "" {
		return nil, fmt.Errorf("%w: no telemetry asset", ErrTelemetryUnavailable)
	}
	body, err := f.client.get(ctx, request{
		endpoint: "telemetry",
		url:      assetURL,
	})
	if err != nil {
		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTelemetryUnavailable, err)
	}

	tel, err := decodeTelemetry(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTelemetryUnavailable, err)
	}
	if tel.Skipped > 0 {
		f.client.logger.Warnw("Skipped malformed telemetry entries",
			"url", assetURL,
			"skipped", tel.Skipped,
		)
	}
	return tel, nil
}
