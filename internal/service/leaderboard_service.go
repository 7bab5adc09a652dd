package service

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
)

type PlayerFetcher interface {
	Fetch(ctx context.Context, player domain.PlayerIdentity) domain.PlayerRecord
}

// LeaderboardService fans out one fetch per configured player and ranks the results.
type LeaderboardService struct {
	fetcher PlayerFetcher
	players []domain.PlayerIdentity
	apiKey  string
}

func NewLeaderboardService(fetcher PlayerFetcher, players []domain.PlayerIdentity, apiKey string) *LeaderboardService {
	return &LeaderboardService{fetcher: fetcher, players: players, apiKey: apiKey}
}

// Build never fails: every configured player yields exactly one row.
func (s *LeaderboardService) Build(ctx context.Context) domain.Leaderboard {
	if strings.TrimSpace(s.apiKey) == "" {
		log.Warn("riot api key is missing, skipping fetch")
		records := make([]domain.PlayerRecord, len(s.players))
		for i, p := range s.players {
			records[i] = domain.ErrorRecord(p.GameName(), domain.MissingAPIKeyMessage)
		}
		return domain.Leaderboard{Players: records, MissingAPIKey: true}
	}

	records := make([]domain.PlayerRecord, len(s.players))
	var wg sync.WaitGroup
	for i, p := range s.players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records[i] = s.fetcher.Fetch(ctx, p)
		}()
	}
	wg.Wait()

	for _, p := range domain.Rank(records) {
		entry := log.WithError(p.Err).WithField("player", p.GameName)
		if domain.IsUnknownRank(p.Err) {
			entry.Warn("unrecognised rank from upstream, scored as 0")
		} else {
			entry.Error("failed to score player")
		}
	}
	return domain.Leaderboard{Players: records}
}
