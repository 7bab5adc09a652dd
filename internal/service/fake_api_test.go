package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"tft-leaderboard-bot/internal/riot"
)

var errBoom = errors.New("boom")

type fakeAPI struct {
	mu        sync.Mutex
	league    map[string][]riot.LeagueEntry
	leagueErr map[string]error
	ids       map[string][]string
	pageErr   map[int]error
	matches   map[string]*riot.Match
	matchErr  map[string]error

	calls      atomic.Int64
	matchCalls atomic.Int64
	pages      []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		league:    make(map[string][]riot.LeagueEntry),
		leagueErr: make(map[string]error),
		ids:       make(map[string][]string),
		pageErr:   make(map[int]error),
		matches:   make(map[string]*riot.Match),
		matchErr:  make(map[string]error),
	}
}

func (f *fakeAPI) LeagueEntries(_ context.Context, puuid string) ([]riot.LeagueEntry, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.leagueErr[puuid]; err != nil {
		return nil, err
	}
	return f.league[puuid], nil
}

func (f *fakeAPI) MatchIDs(_ context.Context, puuid string, start, count int) ([]string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	page := start / count
	f.pages = append(f.pages, page)
	if err := f.pageErr[page]; err != nil {
		return nil, err
	}
	all := f.ids[puuid]
	if start >= len(all) {
		return []string{}, nil
	}
	end := start + count
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeAPI) Match(_ context.Context, matchID string) (*riot.Match, error) {
	f.calls.Add(1)
	f.matchCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.matchErr[matchID]; err != nil {
		return nil, err
	}
	m, ok := f.matches[matchID]
	if !ok {
		return nil, &riot.APIError{StatusCode: 404, Status: "Not Found", Path: "/tft/match/v1/matches/" + matchID}
	}
	return m, nil
}

func (f *fakeAPI) addMatch(id, gameType string, playedAt int64, placements map[string]int) {
	m := &riot.Match{
		Metadata: riot.MatchMetadata{MatchID: id},
		Info:     riot.MatchInfo{GameType: gameType, GameDatetime: playedAt},
	}
	for puuid, place := range placements {
		m.Info.Participants = append(m.Info.Participants, riot.Participant{PUUID: puuid, Placement: place})
	}
	f.matches[id] = m
}
