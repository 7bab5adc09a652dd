package riot

// LeagueEntry is one element of the league-by-puuid response.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type Match struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID string `json:"match_id"`
}

type MatchInfo struct {
	GameType     string        `json:"tft_game_type"`
	GameDatetime int64         `json:"game_datetime"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	PUUID     string `json:"puuid"`
	Placement int    `json:"placement"`
}

// Participant returns the participant entry for puuid, if present.
func (m *Match) Participant(puuid string) (Participant, bool) {
	for _, p := range m.Info.Participants {
		if p.PUUID == puuid {
			return p, true
		}
	}
	return Participant{}, false
}
