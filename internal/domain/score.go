package domain

import (
	"errors"
	"sort"
)

const (
	tierWeight     = 10000
	divisionWeight = 1000
)

// RankScore folds tier, division and league points into one comparable integer.
// Tier dominates division, which dominates league points, as long as LP stays below 1000.
//
// An unknown tier scores 0 and returns ErrUnknownTier. An unknown division below apex
// counts as 0 and returns ErrUnknownDivision alongside the score.
func RankScore(s *RankedStanding) (int, error) {
	if s == nil || s.Tier == "" {
		return 0, nil
	}
	tier, err := ParseTier(s.Tier)
	if err != nil {
		return 0, err
	}
	if tier.Apex() {
		return int(tier)*tierWeight + s.LeaguePoints, nil
	}
	division, err := ParseDivision(s.Division)
	score := int(tier)*tierWeight + int(division)*divisionWeight + s.LeaguePoints
	return score, err
}

// RankProblem is a scoring error for one record.
type RankProblem struct {
	GameName string
	Err      error
}

// Rank scores every record and sorts them best first. Ties keep their input order.
// Scoring problems are returned one per affected record, in input order; they never drop a record.
func Rank(records []PlayerRecord) []RankProblem {
	var problems []RankProblem
	for i := range records {
		score, err := RankScore(records[i].Standing)
		records[i].Score = score
		if err != nil {
			problems = append(problems, RankProblem{GameName: records[i].GameName, Err: err})
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	return problems
}

// IsUnknownRank reports whether err came from an unrecognised tier or division.
func IsUnknownRank(err error) bool {
	return errors.Is(err, ErrUnknownTier) || errors.Is(err, ErrUnknownDivision)
}

// StandingsChanged reports whether the visible standings differ between two boards:
// order of players, error state, tier, division or league points.
func StandingsChanged(prev, next Leaderboard) bool {
	if prev.MissingAPIKey != next.MissingAPIKey || len(prev.Players) != len(next.Players) {
		return true
	}
	for i := range prev.Players {
		a, b := prev.Players[i], next.Players[i]
		if a.GameName != b.GameName || a.Err != b.Err || a.Score != b.Score {
			return true
		}
		if (a.Standing == nil) != (b.Standing == nil) {
			return true
		}
		if a.Standing != nil && (a.Standing.Tier != b.Standing.Tier || a.Standing.Division != b.Standing.Division) {
			return true
		}
	}
	return false
}
