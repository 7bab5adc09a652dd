package cache

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"tft-leaderboard-bot/internal/riot"
)

// MatchCache stores match details by id. Finished matches never change upstream.
type MatchCache interface {
	Get(ctx context.Context, matchID string) (*riot.Match, bool)
	Put(ctx context.Context, matchID string, match *riot.Match)
}

type cachedMatch struct {
	Match    *riot.Match `json:"match"`
	StoredAt int64       `json:"stored_at"`
}

// MemoryMatchCache is an in-process MatchCache with a TTL and JSON file persistence.
type MemoryMatchCache struct {
	matches sync.Map // map[string]cachedMatch
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryMatchCache(ttl time.Duration) *MemoryMatchCache {
	return &MemoryMatchCache{ttl: ttl, now: time.Now}
}

func (c *MemoryMatchCache) Get(_ context.Context, matchID string) (*riot.Match, bool) {
	val, ok := c.matches.Load(matchID)
	if !ok {
		return nil, false
	}
	entry := val.(cachedMatch)
	if c.expired(entry, c.now().Unix()) {
		c.matches.Delete(matchID)
		return nil, false
	}
	return entry.Match, true
}

func (c *MemoryMatchCache) Put(_ context.Context, matchID string, match *riot.Match) {
	c.matches.Store(matchID, cachedMatch{Match: match, StoredAt: c.now().Unix()})
}

func (c *MemoryMatchCache) Len() int {
	n := 0
	c.matches.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Prune drops expired entries and returns how many were removed.
func (c *MemoryMatchCache) Prune() int {
	cutoff := c.now().Unix()
	removed := 0
	c.matches.Range(func(key, value interface{}) bool {
		if c.expired(value.(cachedMatch), cutoff) {
			c.matches.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

func (c *MemoryMatchCache) expired(entry cachedMatch, now int64) bool {
	return c.ttl > 0 && entry.StoredAt < now-int64(c.ttl.Seconds())
}

// SaveToFile writes a snapshot atomically (tmp file + rename).
func (c *MemoryMatchCache) SaveToFile(path string) error {
	snap := make(map[string]cachedMatch)
	c.matches.Range(func(key, value interface{}) bool {
		snap[key.(string)] = value.(cachedMatch)
		return true
	})

	jsonData, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFromFile restores a snapshot, skipping expired entries. A missing file is not an error.
func (c *MemoryMatchCache) LoadFromFile(path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snap map[string]cachedMatch
	if err := json.Unmarshal(bytes, &snap); err != nil {
		return err
	}
	now := c.now().Unix()
	for id, entry := range snap {
		if entry.Match == nil || c.expired(entry, now) {
			continue
		}
		c.matches.Store(id, entry)
	}
	return nil
}
