package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"tft-leaderboard-bot/internal/cache"
	"tft-leaderboard-bot/internal/domain"
	"tft-leaderboard-bot/internal/riot"
)

func testOptions(policy domain.HistoryPolicy) FetchOptions {
	return FetchOptions{
		MatchPages:     4,
		MatchPageSize:  3,
		MatchPageDelay: 0,
		HistoryPolicy:  policy,
	}
}

var alice = domain.PlayerIdentity{Name: "Alice#EUW", PUUID: "alice"}

func seedAlice(api *fakeAPI) {
	api.league["alice"] = []riot.LeagueEntry{
		{QueueType: "RANKED_TFT_DOUBLE_UP", Tier: "DIAMOND", Rank: "I", LeaguePoints: 99},
		{QueueType: "RANKED_TFT", Tier: "GOLD", Rank: "II", LeaguePoints: 40, Wins: 12, Losses: 30},
	}
	api.ids["alice"] = []string{"m1", "m2", "m3", "m4", "m5"}
	api.addMatch("m1", "standard", 5000, map[string]int{"alice": 2, "bob": 1})
	api.addMatch("m2", "pairs", 4000, map[string]int{"alice": 1})
	api.addMatch("m3", "standard", 9000, map[string]int{"alice": 7})
	api.addMatch("m4", "standard", 1000, map[string]int{"alice": 4})
	api.addMatch("m5", "standard", 3000, map[string]int{"bob": 3})
}

func TestFetch_Example(t *testing.T) {
	api := newFakeAPI()
	seedAlice(api)
	f := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))

	rec := f.Fetch(context.Background(), alice)

	assert.Equal(t, "Alice", rec.GameName)
	assert.Equal(t, false, rec.Err)
	assert.Equal(t, &domain.RankedStanding{Tier: "GOLD", Division: "II", LeaguePoints: 40, Wins: 12, Losses: 30}, rec.Standing)
	// m2 is not standard, m5 has no alice; the rest ordered by time desc
	assert.Equal(t, []int{7, 2, 4}, rec.Positions)

	score, err := domain.RankScore(rec.Standing)
	assert.Equal(t, nil, err)
	assert.Equal(t, 43040, score)
}

func TestFetch_Unranked(t *testing.T) {
	api := newFakeAPI()
	api.league["u"] = []riot.LeagueEntry{{QueueType: "RANKED_TFT_TURBO", Tier: "HYPER"}}
	f := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))

	rec := f.Fetch(context.Background(), domain.PlayerIdentity{Name: "u#1", PUUID: "u"})

	assert.Equal(t, &domain.RankedStanding{Tier: "UNRANKED"}, rec.Standing)
	if rec.Positions == nil {
		t.Error("positions should be an empty list, not nil")
	}
	assert.Equal(t, 0, len(rec.Positions))
}

func TestFetch_StandingFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"status text", &riot.APIError{StatusCode: 403, Status: "Forbidden"}, "Forbidden"},
		{"network", errBoom, "Unknown error"},
		{"status without text", &riot.APIError{StatusCode: 599}, "Unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			seedAlice(api)
			api.leagueErr["alice"] = tt.err
			f := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))

			rec := f.Fetch(context.Background(), alice)

			assert.Equal(t, true, rec.Err)
			assert.Equal(t, tt.wantMsg, rec.Message)
			assert.Equal(t, "Alice", rec.GameName)
			if rec.Standing != nil {
				t.Errorf("error record carries standing %+v", rec.Standing)
			}
		})
	}
}

func TestFetch_Pagination(t *testing.T) {
	api := newFakeAPI()
	api.league["p"] = nil
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("m%d", i)
		api.ids["p"] = append(api.ids["p"], id)
		api.addMatch(id, "standard", int64(100-i), map[string]int{"p": i%8 + 1})
	}
	f := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))

	rec := f.Fetch(context.Background(), domain.PlayerIdentity{Name: "p", PUUID: "p"})

	assert.Equal(t, []int{0, 1, 2, 3}, api.pages)
	assert.Equal(t, int64(12), api.matchCalls.Load())
	assert.Equal(t, 12, len(rec.Positions))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 1, 2, 3, 4}, rec.Positions)
}

func TestFetch_PaginationStopsOnShortPage(t *testing.T) {
	api := newFakeAPI()
	api.ids["p"] = []string{"a", "b", "c", "d"}
	f := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))

	f.Fetch(context.Background(), domain.PlayerIdentity{Name: "p", PUUID: "p"})

	assert.Equal(t, []int{0, 1}, api.pages)
}

func TestFetch_PageDelay(t *testing.T) {
	api := newFakeAPI()
	for i := 0; i < 9; i++ {
		api.ids["p"] = append(api.ids["p"], fmt.Sprintf("m%d", i))
	}
	opts := testOptions(domain.HistoryPartial)
	opts.MatchPageDelay = 20 * time.Millisecond
	f := NewRankFetcher(api, nil, opts)

	start := time.Now()
	f.Fetch(context.Background(), domain.PlayerIdentity{Name: "p", PUUID: "p"})
	elapsed := time.Since(start)

	// 4 pages, 3 waits between them
	if elapsed < 60*time.Millisecond {
		t.Errorf("pagination took %v, want at least 60ms", elapsed)
	}
}

func TestFetch_HistoryPolicies(t *testing.T) {
	tests := []struct {
		name          string
		policy        domain.HistoryPolicy
		wantErr       bool
		wantPositions []int
	}{
		{"partial drops failed match", domain.HistoryPartial, false, []int{7, 4}},
		{"abort empties history", domain.HistoryAbort, false, []int{}},
		{"error flags the row", domain.HistoryError, true, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			seedAlice(api)
			api.matchErr["m1"] = &riot.APIError{StatusCode: 503, Status: "Service Unavailable"}
			f := NewRankFetcher(api, nil, testOptions(tt.policy))

			rec := f.Fetch(context.Background(), alice)

			assert.Equal(t, tt.wantErr, rec.Err)
			assert.Equal(t, tt.wantPositions, rec.Positions)
			if tt.wantErr {
				assert.Equal(t, "Service Unavailable", rec.Message)
			} else if rec.Standing == nil || rec.Standing.Tier != "GOLD" {
				t.Errorf("standing = %+v, want GOLD kept", rec.Standing)
			}
		})
	}
}

func TestFetch_PageFailure(t *testing.T) {
	api := newFakeAPI()
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("m%d", i)
		api.ids["p"] = append(api.ids["p"], id)
		api.addMatch(id, "standard", int64(100-i), map[string]int{"p": 1})
	}
	api.pageErr[2] = errBoom

	partial := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))
	rec := partial.Fetch(context.Background(), domain.PlayerIdentity{Name: "p", PUUID: "p"})
	assert.Equal(t, 6, len(rec.Positions))

	abort := NewRankFetcher(api, nil, testOptions(domain.HistoryAbort))
	rec = abort.Fetch(context.Background(), domain.PlayerIdentity{Name: "p", PUUID: "p"})
	assert.Equal(t, 0, len(rec.Positions))
	assert.Equal(t, false, rec.Err)
}

func TestFetch_DuplicateIDsAcrossPages(t *testing.T) {
	api := newFakeAPI()
	api.ids["p"] = []string{"a", "b", "c", "c", "d", "e"}
	api.addMatch("a", "standard", 6, map[string]int{"p": 1})
	api.addMatch("b", "standard", 5, map[string]int{"p": 2})
	api.addMatch("c", "standard", 4, map[string]int{"p": 3})
	api.addMatch("d", "standard", 3, map[string]int{"p": 4})
	api.addMatch("e", "standard", 2, map[string]int{"p": 5})
	f := NewRankFetcher(api, nil, testOptions(domain.HistoryPartial))

	rec := f.Fetch(context.Background(), domain.PlayerIdentity{Name: "p", PUUID: "p"})

	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.Positions)
	assert.Equal(t, int64(5), api.matchCalls.Load())
}

func TestFetch_UsesMatchCache(t *testing.T) {
	api := newFakeAPI()
	seedAlice(api)
	mc := cache.NewMemoryMatchCache(time.Hour)
	f := NewRankFetcher(api, mc, testOptions(domain.HistoryPartial))

	first := f.Fetch(context.Background(), alice)
	calls := api.matchCalls.Load()
	second := f.Fetch(context.Background(), alice)

	assert.Equal(t, int64(5), calls)
	assert.Equal(t, calls, api.matchCalls.Load())
	assert.Equal(t, first.Positions, second.Positions)
}

func TestPlacementOf(t *testing.T) {
	standard := &riot.Match{Info: riot.MatchInfo{
		GameType:     "standard",
		GameDatetime: 42,
		Participants: []riot.Participant{{PUUID: "x", Placement: 3}, {PUUID: "y", Placement: 0}},
	}}
	turbo := &riot.Match{Info: riot.MatchInfo{
		GameType:     "turbo",
		Participants: []riot.Participant{{PUUID: "x", Placement: 1}},
	}}

	p, ok := placementOf(standard, "x")
	assert.T(t, ok)
	assert.Equal(t, domain.MatchPlacement{Placement: 3, PlayedAt: 42}, p)

	_, ok = placementOf(standard, "y")
	assert.T(t, !ok)
	_, ok = placementOf(standard, "missing")
	assert.T(t, !ok)
	_, ok = placementOf(turbo, "x")
	assert.T(t, !ok)
	_, ok = placementOf(nil, "x")
	assert.T(t, !ok)
}
