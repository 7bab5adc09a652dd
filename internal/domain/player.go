package domain

import (
	"encoding/json"
	"strings"
)

const (
	RankedQueue      = "RANKED_TFT"
	StandardGameType = "standard"

	MissingAPIKeyMessage = "API Key is missing."
	UnknownErrorMessage  = "Unknown error"
)

// PlayerIdentity is a configured player. Name may carry a "#tag" suffix.
type PlayerIdentity struct {
	Name  string
	PUUID string
}

// GameName returns the name without its "#tag" suffix.
func (p PlayerIdentity) GameName() string {
	name, _, _ := strings.Cut(p.Name, "#")
	return name
}

type RankedStanding struct {
	Tier         string
	Division     string
	LeaguePoints int
	Wins         int
	Losses       int
}

// UnrankedStanding is used when a player has no entry in the ranked queue.
func UnrankedStanding() RankedStanding {
	return RankedStanding{Tier: TierUnranked.String()}
}

// WinRate returns wins/(wins+losses) as a percentage, 0 when no games were played.
func (s RankedStanding) WinRate() float64 {
	games := s.Wins + s.Losses
	if games == 0 {
		return 0
	}
	return float64(s.Wins) * 100 / float64(games)
}

type MatchPlacement struct {
	Placement int
	PlayedAt  int64 // epoch millis
}

// PlayerRecord is one leaderboard row. Standing is nil for error records.
type PlayerRecord struct {
	GameName  string
	Standing  *RankedStanding
	Positions []int
	Score     int
	Err       bool
	Message   string
}

// ErrorRecord builds a row that carries only the name and an explanation.
func ErrorRecord(gameName, message string) PlayerRecord {
	return PlayerRecord{
		GameName:  gameName,
		Positions: []int{},
		Err:       true,
		Message:   message,
	}
}

type playerRecordJSON struct {
	GameName     string  `json:"gameName"`
	Tier         *string `json:"tier,omitempty"`
	Rank         *string `json:"rank,omitempty"`
	LeaguePoints *int    `json:"leaguePoints,omitempty"`
	Wins         *int    `json:"wins,omitempty"`
	Losses       *int    `json:"losses,omitempty"`
	RankScore    int     `json:"rankScore"`
	Error        bool    `json:"error,omitempty"`
	Message      string  `json:"message,omitempty"`
	Positions    []int   `json:"positions"`
}

// MarshalJSON flattens the standing into the row, omitting it for error records.
func (r PlayerRecord) MarshalJSON() ([]byte, error) {
	out := playerRecordJSON{
		GameName:  r.GameName,
		RankScore: r.Score,
		Error:     r.Err,
		Message:   r.Message,
		Positions: r.Positions,
	}
	if out.Positions == nil {
		out.Positions = []int{}
	}
	if s := r.Standing; s != nil {
		tier, lp, wins, losses := s.Tier, s.LeaguePoints, s.Wins, s.Losses
		out.Tier, out.LeaguePoints, out.Wins, out.Losses = &tier, &lp, &wins, &losses
		if s.Division != "" {
			division := s.Division
			out.Rank = &division
		}
	}
	return json.Marshal(out)
}

func (r *PlayerRecord) UnmarshalJSON(data []byte) error {
	var in playerRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = PlayerRecord{
		GameName:  in.GameName,
		Positions: in.Positions,
		Score:     in.RankScore,
		Err:       in.Error,
		Message:   in.Message,
	}
	if r.Positions == nil {
		r.Positions = []int{}
	}
	if in.Tier != nil {
		s := &RankedStanding{Tier: *in.Tier}
		if in.Rank != nil {
			s.Division = *in.Rank
		}
		if in.LeaguePoints != nil {
			s.LeaguePoints = *in.LeaguePoints
		}
		if in.Wins != nil {
			s.Wins = *in.Wins
		}
		if in.Losses != nil {
			s.Losses = *in.Losses
		}
		r.Standing = s
	}
	return nil
}

// Leaderboard is the full ranked result of one refresh cycle.
type Leaderboard struct {
	Players       []PlayerRecord `json:"players"`
	MissingAPIKey bool           `json:"missingApiKey"`
}
