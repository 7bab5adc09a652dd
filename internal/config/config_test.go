package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
)

func TestParseDevIDs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int64
	}{
		{"empty", "", nil},
		{"single", "123", []int64{123}},
		{"multiple", "123,456,789", []int64{123, 456, 789}},
		{"with spaces", " 123 , 456 , 789 ", []int64{123, 456, 789}},
		{"invalid entries skipped", "123,abc,456", []int64{123, 456}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDevIDs(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("parseDevIDs(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseDevIDs(%q)[%d] = %d, want %d", tt.raw, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestParsePlayers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []domain.PlayerIdentity
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "Alice#EUW=p1", []domain.PlayerIdentity{{Name: "Alice#EUW", PUUID: "p1"}}, false},
		{"semicolons", "Alice#EUW=p1;Bob#EUW=p2", []domain.PlayerIdentity{
			{Name: "Alice#EUW", PUUID: "p1"}, {Name: "Bob#EUW", PUUID: "p2"},
		}, false},
		{"newlines and blanks", "Alice#EUW = p1\n\n Bob#EUW=p2 \r\n;", []domain.PlayerIdentity{
			{Name: "Alice#EUW", PUUID: "p1"}, {Name: "Bob#EUW", PUUID: "p2"},
		}, false},
		{"no separator", "Alice#EUW", nil, true},
		{"missing puuid", "Alice#EUW=", nil, true},
		{"missing name", "=p1", nil, true},
		{"duplicate puuid", "Alice#EUW=p1;Alt#EUW=p1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePlayers(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePlayers(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParsePlayers(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParsePlayers(%q)[%d] = %+v, want %+v", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PLAYERS", "Alice#EUW=p1")
	t.Setenv("RIOT_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RiotAPIKey != "" {
		t.Errorf("RiotAPIKey = %q, want empty", cfg.RiotAPIKey)
	}
	if cfg.RiotPlatform != "euw1" || cfg.RiotRegion != "europe" {
		t.Errorf("routing = %s/%s, want euw1/europe", cfg.RiotPlatform, cfg.RiotRegion)
	}
	if cfg.RefreshInterval != 6*time.Minute {
		t.Errorf("RefreshInterval = %s, want 6m", cfg.RefreshInterval)
	}
	if cfg.MatchPages != 4 || cfg.MatchPageSize != 3 || cfg.MatchPageDelay != time.Second {
		t.Errorf("pagination = %d x %d every %s, want 4 x 3 every 1s", cfg.MatchPages, cfg.MatchPageSize, cfg.MatchPageDelay)
	}
	if cfg.HistoryPolicy != domain.HistoryPartial {
		t.Errorf("HistoryPolicy = %q, want partial", cfg.HistoryPolicy)
	}
	if cfg.LogLevel != log.InfoLevel {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PLAYERS", "Alice#EUW=p1;Bob#EUW=p2")
	t.Setenv("RIOT_API_KEY", "RGAPI-x")
	t.Setenv("REFRESH_INTERVAL", "360000")
	t.Setenv("MATCH_PAGE_DELAY", "250ms")
	t.Setenv("HISTORY_FAILURE_POLICY", "Abort")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Players) != 2 {
		t.Errorf("Players = %v, want 2 entries", cfg.Players)
	}
	if cfg.RefreshInterval != 6*time.Minute {
		t.Errorf("RefreshInterval = %s, want 6m from milliseconds", cfg.RefreshInterval)
	}
	if cfg.MatchPageDelay != 250*time.Millisecond {
		t.Errorf("MatchPageDelay = %s, want 250ms", cfg.MatchPageDelay)
	}
	if cfg.HistoryPolicy != domain.HistoryAbort {
		t.Errorf("HistoryPolicy = %q, want abort", cfg.HistoryPolicy)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("HTTPAddr = %q, want disabled", cfg.HTTPAddr)
	}
	if cfg.LogLevel != log.DebugLevel {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing players", map[string]string{"PLAYERS": ""}},
		{"bad player", map[string]string{"PLAYERS": "nobody"}},
		{"bad interval", map[string]string{"PLAYERS": "A#1=p", "REFRESH_INTERVAL": "soon"}},
		{"zero interval", map[string]string{"PLAYERS": "A#1=p", "REFRESH_INTERVAL": "0s"}},
		{"bad pages", map[string]string{"PLAYERS": "A#1=p", "MATCH_PAGES": "x"}},
		{"zero page size", map[string]string{"PLAYERS": "A#1=p", "MATCH_PAGE_SIZE": "0"}},
		{"bad policy", map[string]string{"PLAYERS": "A#1=p", "HISTORY_FAILURE_POLICY": "retry"}},
		{"bad log level", map[string]string{"PLAYERS": "A#1=p", "LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %v succeeded, want error", tt.env)
			}
		})
	}
}
