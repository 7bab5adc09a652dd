package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tft-leaderboard-bot/internal/cache"
	"tft-leaderboard-bot/internal/domain"
	"tft-leaderboard-bot/internal/riot"
)

// RiotAPI is the subset of the Riot TFT API the fetcher needs. *riot.Client implements it.
type RiotAPI interface {
	LeagueEntries(ctx context.Context, puuid string) ([]riot.LeagueEntry, error)
	MatchIDs(ctx context.Context, puuid string, start, count int) ([]string, error)
	Match(ctx context.Context, matchID string) (*riot.Match, error)
}

type FetchOptions struct {
	MatchPages    int
	MatchPageSize int
	// MatchPageDelay spaces match-id page requests; the first page goes out immediately.
	MatchPageDelay time.Duration
	HistoryPolicy  domain.HistoryPolicy
}

func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		MatchPages:     4,
		MatchPageSize:  3,
		MatchPageDelay: time.Second,
		HistoryPolicy:  domain.HistoryPartial,
	}
}

// RankFetcher builds one PlayerRecord from the standing and recent match history.
type RankFetcher struct {
	api   RiotAPI
	cache cache.MatchCache
	opts  FetchOptions
}

// NewRankFetcher accepts a nil cache.
func NewRankFetcher(api RiotAPI, matchCache cache.MatchCache, opts FetchOptions) *RankFetcher {
	if opts.HistoryPolicy == "" {
		opts.HistoryPolicy = domain.HistoryPartial
	}
	return &RankFetcher{api: api, cache: matchCache, opts: opts}
}

func (f *RankFetcher) Fetch(ctx context.Context, player domain.PlayerIdentity) domain.PlayerRecord {
	gameName := player.GameName()
	logger := log.WithField("player", player.Name)

	var (
		wg          sync.WaitGroup
		standing    domain.RankedStanding
		standingErr error
		positions   []int
		historyErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		standing, standingErr = f.fetchStanding(ctx, player.PUUID)
	}()
	go func() {
		defer wg.Done()
		positions, historyErr = f.fetchPositions(ctx, player.PUUID)
	}()
	wg.Wait()

	if standingErr != nil {
		logger.WithError(standingErr).Error("failed to fetch ranked standing")
		return domain.ErrorRecord(gameName, errorMessage(standingErr))
	}
	if historyErr != nil {
		if f.opts.HistoryPolicy == domain.HistoryError {
			logger.WithError(historyErr).Error("failed to fetch match history")
			return domain.ErrorRecord(gameName, errorMessage(historyErr))
		}
		logger.WithError(historyErr).Warn("match history aborted")
		positions = nil
	}
	if positions == nil {
		positions = []int{}
	}

	return domain.PlayerRecord{
		GameName:  gameName,
		Standing:  &standing,
		Positions: positions,
	}
}

func (f *RankFetcher) fetchStanding(ctx context.Context, puuid string) (domain.RankedStanding, error) {
	entries, err := f.api.LeagueEntries(ctx, puuid)
	if err != nil {
		return domain.RankedStanding{}, err
	}
	for _, e := range entries {
		if e.QueueType == domain.RankedQueue {
			return domain.RankedStanding{
				Tier:         e.Tier,
				Division:     e.Rank,
				LeaguePoints: e.LeaguePoints,
				Wins:         e.Wins,
				Losses:       e.Losses,
			}, nil
		}
	}
	return domain.UnrankedStanding(), nil
}

// fetchPositions returns placements from recent standard matches, most recent first.
func (f *RankFetcher) fetchPositions(ctx context.Context, puuid string) ([]int, error) {
	ids, err := f.fetchMatchIDs(ctx, puuid)
	if err != nil {
		return nil, err
	}
	placements, err := f.fetchPlacements(ctx, puuid, ids)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].PlayedAt > placements[j].PlayedAt
	})
	positions := make([]int, len(placements))
	for i, p := range placements {
		positions[i] = p.Placement
	}
	return positions, nil
}

// fetchMatchIDs pages through recent match ids, one request per tick.
func (f *RankFetcher) fetchMatchIDs(ctx context.Context, puuid string) ([]string, error) {
	var tick <-chan time.Time
	if f.opts.MatchPageDelay > 0 && f.opts.MatchPages > 1 {
		ticker := time.NewTicker(f.opts.MatchPageDelay)
		defer ticker.Stop()
		tick = ticker.C
	}

	size := f.opts.MatchPageSize
	seen := make(map[string]bool)
	var ids []string
	for page := 0; page < f.opts.MatchPages; page++ {
		if page > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return f.historyFailure(ids, ctx.Err())
			case <-tick:
			}
		}

		got, err := f.api.MatchIDs(ctx, puuid, page*size, size)
		if err != nil {
			return f.historyFailure(ids, fmt.Errorf("match ids page %d: %w", page, err))
		}
		for _, id := range got {
			// ids shift between pages when a new match lands mid-pagination
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if len(got) < size {
			break
		}
	}
	return ids, nil
}

func (f *RankFetcher) historyFailure(gathered []string, err error) ([]string, error) {
	if f.opts.HistoryPolicy == domain.HistoryPartial {
		log.WithError(err).Warn("match id pagination stopped early")
		return gathered, nil
	}
	return nil, err
}

func (f *RankFetcher) fetchPlacements(ctx context.Context, puuid string, ids []string) ([]domain.MatchPlacement, error) {
	results := make([]*domain.MatchPlacement, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			m, err := f.match(gctx, id)
			if err != nil {
				if f.opts.HistoryPolicy == domain.HistoryPartial {
					log.WithError(err).WithField("match_id", id).Warn("skipping match")
					return nil
				}
				return fmt.Errorf("match %s: %w", id, err)
			}
			if p, ok := placementOf(m, puuid); ok {
				results[i] = &p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	placements := make([]domain.MatchPlacement, 0, len(results))
	for _, p := range results {
		if p != nil {
			placements = append(placements, *p)
		}
	}
	return placements, nil
}

func (f *RankFetcher) match(ctx context.Context, matchID string) (*riot.Match, error) {
	if f.cache != nil {
		if m, ok := f.cache.Get(ctx, matchID); ok {
			return m, nil
		}
	}
	m, err := f.api.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Put(ctx, matchID, m)
	}
	return m, nil
}

// placementOf yields a placement only for standard matches the player took part in.
func placementOf(m *riot.Match, puuid string) (domain.MatchPlacement, bool) {
	if m == nil || m.Info.GameType != domain.StandardGameType {
		return domain.MatchPlacement{}, false
	}
	p, ok := m.Participant(puuid)
	if !ok || p.Placement <= 0 {
		return domain.MatchPlacement{}, false
	}
	return domain.MatchPlacement{Placement: p.Placement, PlayedAt: m.Info.GameDatetime}, true
}

func errorMessage(err error) string {
	if text := riot.StatusText(err); text != "" {
		return text
	}
	return domain.UnknownErrorMessage
}
