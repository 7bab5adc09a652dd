package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
)

type Config struct {
	RiotAPIKey   string
	RiotPlatform string
	RiotRegion   string
	Players      []domain.PlayerIdentity

	BotToken string
	DevIDs   []int64

	DBPath         string
	HTTPAddr       string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MatchCacheFile string
	MatchCacheTTL  time.Duration

	// SnapshotRetention is how many stored snapshots survive pruning. 0 keeps all.
	SnapshotRetention int

	RefreshInterval time.Duration
	RequestTimeout  time.Duration
	MatchPages      int
	MatchPageSize   int
	MatchPageDelay  time.Duration
	HistoryPolicy   domain.HistoryPolicy

	LogLevel log.Level
}

// Load reads the environment, after an optional .env file in the working directory.
// A missing Riot API key is not an error: the leaderboard then runs in its degraded mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	players, err := ParsePlayers(os.Getenv("PLAYERS"))
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("PLAYERS environment variable is required")
	}

	cfg := &Config{
		RiotAPIKey:     os.Getenv("RIOT_API_KEY"),
		RiotPlatform:   getEnvOrDefault("RIOT_PLATFORM", "euw1"),
		RiotRegion:     getEnvOrDefault("RIOT_REGION", "europe"),
		Players:        players,
		BotToken:       os.Getenv("BOT_TOKEN"),
		DevIDs:         parseDevIDs(os.Getenv("DEV_IDS")),
		DBPath:         getEnvOrDefault("DB_PATH", "leaderboard.db"),
		HTTPAddr:       getEnvOrDefault("HTTP_ADDR", ":8080"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		MatchCacheFile: getEnvOrDefault("MATCH_CACHE_FILE", "match_cache.json"),
	}
	// HTTP_ADDR set to an empty value disables the HTTP server.
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}

	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SnapshotRetention, err = getInt("SNAPSHOT_RETENTION", 500); err != nil {
		return nil, err
	}
	if cfg.MatchCacheTTL, err = getDuration("MATCH_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration("REFRESH_INTERVAL", 6*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.MatchPages, err = getInt("MATCH_PAGES", 4); err != nil {
		return nil, err
	}
	if cfg.MatchPageSize, err = getInt("MATCH_PAGE_SIZE", 3); err != nil {
		return nil, err
	}
	if cfg.MatchPageDelay, err = getDuration("MATCH_PAGE_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.HistoryPolicy, err = domain.ParseHistoryPolicy(os.Getenv("HISTORY_FAILURE_POLICY")); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = log.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", cfg.RefreshInterval)
	}
	if cfg.MatchPages < 1 || cfg.MatchPageSize < 1 {
		return nil, fmt.Errorf("MATCH_PAGES and MATCH_PAGE_SIZE must be at least 1")
	}
	return cfg, nil
}

// ParsePlayers reads "Name#Tag=puuid" entries separated by ';' or newlines.
// Blank entries are skipped; malformed ones are an error.
func ParsePlayers(raw string) ([]domain.PlayerIdentity, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})

	var players []domain.PlayerIdentity
	seen := make(map[string]bool)
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		name, puuid, ok := strings.Cut(f, "=")
		name, puuid = strings.TrimSpace(name), strings.TrimSpace(puuid)
		if !ok || name == "" || puuid == "" {
			return nil, fmt.Errorf("invalid player entry %q (want Name#Tag=puuid)", f)
		}
		if seen[puuid] {
			return nil, fmt.Errorf("duplicate player puuid for %q", name)
		}
		seen[puuid] = true
		players = append(players, domain.PlayerIdentity{Name: name, PUUID: puuid})
	}
	return players, nil
}

func parseDevIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

// getDuration accepts Go durations ("6m") or a bare number of milliseconds ("360000").
func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
