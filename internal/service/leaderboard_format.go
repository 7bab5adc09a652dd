package service

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"tft-leaderboard-bot/internal/domain"
)

const leaderboardPageSize = 10

const (
	viewStandings = "standings"
	viewHistory   = "history"
)

var placementMedals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// FormatLeaderboard renders one page of a snapshot as Telegram HTML with its navigation keyboard.
func FormatLeaderboard(snap domain.Snapshot, view string, page int) (string, gotgbot.InlineKeyboardMarkup) {
	if view != viewHistory {
		view = viewStandings
	}
	players := snap.Leaderboard.Players

	totalPages := int(math.Ceil(float64(len(players)) / float64(leaderboardPageSize)))
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	start := page * leaderboardPageSize
	end := start + leaderboardPageSize
	if end > len(players) {
		end = len(players)
	}

	var builder strings.Builder
	if view == viewHistory {
		builder.WriteString("📜 <b>Recent placements</b>\n\n")
	} else {
		builder.WriteString("🏆 <b>TFT Leaderboard</b>\n\n")
	}
	if snap.Leaderboard.MissingAPIKey {
		builder.WriteString("⚠️ " + html.EscapeString(domain.MissingAPIKeyMessage) + "\n\n")
	}

	if len(players) == 0 {
		builder.WriteString("No players configured.")
	}
	for i, p := range players[start:end] {
		position := start + i + 1
		if view == viewHistory {
			builder.WriteString(formatHistoryLine(p))
		} else {
			builder.WriteString(formatStandingLine(position, p))
		}
		builder.WriteString("\n")
	}

	if totalPages > 1 {
		fmt.Fprintf(&builder, "\nPage %d/%d", page+1, totalPages)
	}
	if !snap.UpdatedAt.IsZero() {
		fmt.Fprintf(&builder, "\n<i>Updated %s UTC</i>", snap.UpdatedAt.UTC().Format("2006-01-02 15:04"))
	}

	return builder.String(), buildLeaderboardKeyboard(view, page, totalPages)
}

func formatStandingLine(position int, p domain.PlayerRecord) string {
	name := html.EscapeString(p.GameName)
	if p.Err {
		return fmt.Sprintf("%d. %s · ⚠️ %s", position, name, html.EscapeString(p.Message))
	}
	return fmt.Sprintf("%d. <b>%s</b> · %s", position, name, FormatStanding(p.Standing))
}

func formatHistoryLine(p domain.PlayerRecord) string {
	name := html.EscapeString(p.GameName)
	if p.Err {
		return fmt.Sprintf("%s · ⚠️ %s", name, html.EscapeString(p.Message))
	}
	if len(p.Positions) == 0 {
		return fmt.Sprintf("%s · no recent games", name)
	}
	return fmt.Sprintf("%s · %s (avg %.1f)", name, FormatPositions(p.Positions), AveragePlacement(p.Positions))
}

// FormatStanding renders e.g. "Gold II · 40 LP · 12W/30L (29%)". Unranked players get "Unranked".
func FormatStanding(s *domain.RankedStanding) string {
	if s == nil {
		return "Unranked"
	}
	tier, err := domain.ParseTier(s.Tier)
	if err == nil && tier == domain.TierUnranked {
		return "Unranked"
	}
	label := titleCase(s.Tier)
	if rank := domain.DisplayRank(s); rank != "" {
		label += " " + rank
	}
	line := fmt.Sprintf("%s · %d LP · %dW/%dL", label, s.LeaguePoints, s.Wins, s.Losses)
	if s.Wins+s.Losses > 0 {
		line += fmt.Sprintf(" (%.0f%%)", s.WinRate())
	}
	return line
}

// FormatPositions lists placements most recent first, with medals for the top three.
func FormatPositions(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		if medal, ok := placementMedals[p]; ok {
			parts[i] = medal
		} else {
			parts[i] = fmt.Sprintf("%d", p)
		}
	}
	return strings.Join(parts, " ")
}

func AveragePlacement(positions []int) float64 {
	if len(positions) == 0 {
		return 0
	}
	sum := 0
	for _, p := range positions {
		sum += p
	}
	return float64(sum) / float64(len(positions))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func buildLeaderboardKeyboard(activeView string, page, totalPages int) gotgbot.InlineKeyboardMarkup {
	views := []struct {
		key   string
		label string
	}{
		{viewStandings, "Standings"},
		{viewHistory, "Recent games"},
	}

	var viewButtons []gotgbot.InlineKeyboardButton
	for _, v := range views {
		label := v.label
		if v.key == activeView {
			label = "✅ " + label
		}
		viewButtons = append(viewButtons, gotgbot.InlineKeyboardButton{
			Text:         label,
			CallbackData: fmt.Sprintf("lb:%s:0", v.key),
		})
	}
	rows := [][]gotgbot.InlineKeyboardButton{viewButtons}

	if totalPages > 1 {
		var navButtons []gotgbot.InlineKeyboardButton
		if page > 0 {
			navButtons = append(navButtons, gotgbot.InlineKeyboardButton{
				Text:         "⬅️ Back",
				CallbackData: fmt.Sprintf("lb:%s:%d", activeView, page-1),
			})
		}
		if page < totalPages-1 {
			navButtons = append(navButtons, gotgbot.InlineKeyboardButton{
				Text:         "Next ➡️",
				CallbackData: fmt.Sprintf("lb:%s:%d", activeView, page+1),
			})
		}
		if len(navButtons) > 0 {
			rows = append(rows, navButtons)
		}
	}

	return gotgbot.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// parseLeaderboardCallback reads "lb:<view>:<page>". Malformed pages fall back to 0.
func parseLeaderboardCallback(data string) (view string, page int, ok bool) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 || parts[0] != "lb" {
		return "", 0, false
	}
	page, err := strconv.Atoi(parts[2])
	if err != nil {
		page = 0
	}
	return parts[1], page, true
}
