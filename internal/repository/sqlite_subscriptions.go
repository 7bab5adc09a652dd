package repository

import (
	"database/sql"
	"errors"
	"time"
)

type Subscription struct {
	ChatID      int64
	CreatedAt   time.Time
	OnlyChanges bool
}

// SubscriptionRepo stores the chats that receive leaderboard posts.
type SubscriptionRepo struct {
	db *sql.DB
}

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Subscribe adds the chat, or updates its mode when already present.
// It reports whether the chat is new.
func (r *SubscriptionRepo) Subscribe(chatId int64, onlyChanges bool, at time.Time) (bool, error) {
	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO subscriptions (chat_id, created_at, only_changes) VALUES (?, ?, ?)`,
		chatId, at.UnixMilli(), onlyChanges)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	_, err = r.db.Exec(`UPDATE subscriptions SET only_changes = ? WHERE chat_id = ?`, onlyChanges, chatId)
	return false, err
}

// Unsubscribe reports whether the chat was subscribed.
func (r *SubscriptionRepo) Unsubscribe(chatId int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM subscriptions WHERE chat_id = ?`, chatId)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SubscriptionRepo) Get(chatId int64) (Subscription, bool, error) {
	sub := Subscription{ChatID: chatId}
	var createdAt int64
	err := r.db.QueryRow(`SELECT created_at, only_changes FROM subscriptions WHERE chat_id = ?`,
		chatId).Scan(&createdAt, &sub.OnlyChanges)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, false, nil
		}
		return Subscription{}, false, err
	}
	sub.CreatedAt = time.UnixMilli(createdAt).UTC()
	return sub, true, nil
}

func (r *SubscriptionRepo) List() ([]Subscription, error) {
	rows, err := r.db.Query(`SELECT chat_id, created_at, only_changes FROM subscriptions ORDER BY chat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var (
			sub       Subscription
			createdAt int64
		)
		if err := rows.Scan(&sub.ChatID, &createdAt, &sub.OnlyChanges); err != nil {
			return nil, err
		}
		sub.CreatedAt = time.UnixMilli(createdAt).UTC()
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
