package notify

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/squadwatch/pubg-tracker/internal/models"
)

const (
	// MaxEmbedsPerMessage is Discord's per-message embed limit
	MaxEmbedsPerMessage = 10
	// MaxMessageChars is Discord's limit on the combined text of a message's embeds
	MaxMessageChars = 6000

	maxDescriptionLen = 4096
	playerEmbedColor  = 0x2f3136
	matchTimeLayout   = "2006/01/02 15:04"
	replayURLFormat   = "https://pubg.sh/%s/%s/%s"
	profileURLFormat  = "https://pubg.op.gg/user/%s"
)

// Renderer turns a summary into Discord embeds. The zero value renders times
// in UTC.
type Renderer struct {
	Location *time.Location
}

// Embeds renders one match embed per tracked squad followed by an embed per
// squad member.
func (r Renderer) Embeds(s models.MatchSummary) []*discordgo.MessageEmbed {
	var embeds []*discordgo.MessageEmbed
	for _, team := range s.Teams {
		embeds = append(embeds, r.matchEmbed(s, team))
		for _, p := range team.Players {
			embeds = append(embeds, r.playerEmbed(s, p))
		}
	}
	return embeds
}

// Chunk splits embeds into groups Discord accepts in a single message: at
// most MaxEmbedsPerMessage embeds and MaxMessageChars characters each.
func Chunk(embeds []*discordgo.MessageEmbed) [][]*discordgo.MessageEmbed {
	var chunks [][]*discordgo.MessageEmbed
	var current []*discordgo.MessageEmbed
	size := 0
	for _, e := range embeds {
		n := EmbedLength(e)
		if len(current) > 0 && (len(current) == MaxEmbedsPerMessage || size+n > MaxMessageChars) {
			chunks = append(chunks, current)
			current, size = nil, 0
		}
		current = append(current, e)
		size += n
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// EmbedLength counts the characters Discord charges against MaxMessageChars
func EmbedLength(e *discordgo.MessageEmbed) int {
	if e == nil {
		return 0
	}
	n := utf8.RuneCountInString(e.Title) + utf8.RuneCountInString(e.Description)
	if e.Footer != nil {
		n += utf8.RuneCountInString(e.Footer.Text)
	}
	if e.Author != nil {
		n += utf8.RuneCountInString(e.Author.Name)
	}
	for _, f := range e.Fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

func (r Renderer) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r Renderer) matchEmbed(s models.MatchSummary, team models.TeamResult) *discordgo.MessageEmbed {
	placement := "N/A"
	if team.Placement > 0 {
		placement = fmt.Sprintf("#%d", team.Placement)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "⏰ **%s**\n", s.CreatedAt.In(r.location()).Format(matchTimeLayout))
	fmt.Fprintf(&b, "🗺️ **%s** • %s\n\n", MapName(s.MapName), GameMode(s.GameMode))
	b.WriteString("**Team Performance**\n")
	fmt.Fprintf(&b, "🏆 Placement: **%s**\n", placement)
	fmt.Fprintf(&b, "👥 Squad Size: **%d players**\n\n", team.SquadSize)
	b.WriteString("**Combat Summary**\n")
	fmt.Fprintf(&b, "⚔️ Total Kills: **%d**\n", team.TotalKills())
	fmt.Fprintf(&b, "🔻 Total Knocks: **%d**\n", team.TotalKnocks())
	fmt.Fprintf(&b, "💥 Total Damage: **%d**", round(team.TotalDamage()))
	if s.TelemetryMissing {
		b.WriteString("\n\n⚠️ Telemetry unavailable, kill timeline omitted")
	}

	return &discordgo.MessageEmbed{
		Title:       "🎮 PUBG Match Summary",
		Description: truncate(b.String()),
		Color:       MatchColor(s.MatchID),
		Timestamp:   s.CreatedAt.UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "PUBG Match Tracker - " + s.MatchID,
		},
	}
}

func (r Renderer) playerEmbed(s models.MatchSummary, p models.PlayerResult) *discordgo.MessageEmbed {
	var b strings.Builder
	fmt.Fprintf(&b, "⚔️ Kills: %d (%d headshots)\n", p.Kills, p.HeadshotKills)
	fmt.Fprintf(&b, "🔻 Knocks: %d\n", p.Knocks)
	fmt.Fprintf(&b, "💥 Damage: %d (%d assists)\n", round(p.DamageDealt), p.Assists)
	fmt.Fprintf(&b, "🎯 Headshot %%: %d%%\n", round(p.HeadshotRatio()*100))
	fmt.Fprintf(&b, "⏰ Survival: %dmin\n", round(p.TimeSurvived/60))
	fmt.Fprintf(&b, "📏 Longest Kill: %dm\n", round(p.LongestKill))
	fmt.Fprintf(&b, "👣 Distance: %.1fkm", p.DistanceTravelled/1000)
	if p.Revives > 0 {
		fmt.Fprintf(&b, "\n🚑 Revives: %d", p.Revives)
	}
	shard := s.Shard
	if shard == "" {
		shard = "steam"
	}
	fmt.Fprintf(&b, "\n🎯 [2D Replay](%s)", fmt.Sprintf(replayURLFormat, url.PathEscape(p.Handle), shard, s.MatchID))

	if len(p.Events) > 0 {
		b.WriteString("\n*** KILLS & DBNOs ***")
		for _, ev := range p.Events {
			b.WriteString("\n")
			b.WriteString(EventLine(ev))
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Player: " + p.Handle,
		Description: truncate(b.String()),
		Color:       playerEmbedColor,
	}
}

// EventLine formats a timeline entry as "`MM:SS` ⚔️ Killed - [victim](profile) (weapon, Nm)"
func EventLine(ev models.CombatEvent) string {
	action := "🔻 Knocked"
	if ev.Kind == models.CombatKill {
		action = "⚔️ Killed"
	}
	profile := fmt.Sprintf(profileURLFormat, url.PathEscape(ev.Victim))
	return fmt.Sprintf("`%s` %s - [%s](%s) (%s, %dm)",
		Clock(ev.Offset), action, ev.Victim, profile, ev.Weapon, round(ev.Distance))
}

// Clock formats seconds since match start as MM:SS
func Clock(offset float64) string {
	if offset < 0 {
		offset = 0
	}
	secs := int(offset)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func round(f float64) int {
	return int(math.Round(f))
}

// truncate keeps a description inside Discord's limit, cutting at a line
// break or else on a rune boundary
func truncate(s string) string {
	if len(s) <= maxDescriptionLen {
		return s
	}
	const marker = "\n…"
	end := maxDescriptionLen - len(marker)
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + marker
}
