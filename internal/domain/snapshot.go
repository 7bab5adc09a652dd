package domain

import "time"

// Snapshot is a leaderboard as published at one point in time.
type Snapshot struct {
	ID          string      `json:"id"`
	Leaderboard Leaderboard `json:"leaderboard"`
	UpdatedAt   time.Time   `json:"lastUpdated"`
}

func (s Snapshot) IsZero() bool {
	return s.ID == "" && s.UpdatedAt.IsZero()
}
