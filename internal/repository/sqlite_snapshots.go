package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tft-leaderboard-bot/internal/domain"
)

// ErrNoSnapshot is returned by Latest before the first refresh has been stored.
var ErrNoSnapshot = errors.New("no snapshot stored")

type SnapshotRepo struct {
	db *sql.DB
}

func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save stores the leaderboard and returns the snapshot with its assigned id.
func (r *SnapshotRepo) Save(lb domain.Leaderboard, at time.Time) (domain.Snapshot, error) {
	payload, err := json.Marshal(lb.Players)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}
	snap := domain.Snapshot{
		ID:          uuid.NewString(),
		Leaderboard: lb,
		UpdatedAt:   at.UTC(),
	}
	_, err = r.db.Exec(`
		INSERT INTO snapshots (id, created_at, missing_api_key, payload) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.UpdatedAt.UnixMilli(), lb.MissingAPIKey, string(payload))
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func (r *SnapshotRepo) Latest() (domain.Snapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, created_at, missing_api_key, payload
		FROM snapshots
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, ErrNoSnapshot
	}
	return snap, err
}

// List returns up to limit snapshots, newest first.
func (r *SnapshotRepo) List(limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		return []domain.Snapshot{}, nil
	}
	rows, err := r.db.Query(`
		SELECT id, created_at, missing_api_key, payload
		FROM snapshots
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snaps := []domain.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Prune keeps the newest keep snapshots and deletes the rest.
func (r *SnapshotRepo) Prune(keep int) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (domain.Snapshot, error) {
	var (
		snap      domain.Snapshot
		createdAt int64
		payload   string
	)
	if err := row.Scan(&snap.ID, &createdAt, &snap.Leaderboard.MissingAPIKey, &payload); err != nil {
		return domain.Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(payload), &snap.Leaderboard.Players); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	snap.UpdatedAt = time.UnixMilli(createdAt).UTC()
	return snap, nil
}
