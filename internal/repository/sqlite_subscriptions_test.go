package repository

import (
	"testing"
	"time"
)

func TestSubscribe(t *testing.T) {
	repo := NewSubscriptionRepo(setupDB(t))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	created, err := repo.Subscribe(100, true, now)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !created {
		t.Error("first Subscribe() should report a new chat")
	}

	created, err = repo.Subscribe(100, false, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second Subscribe() error = %v", err)
	}
	if created {
		t.Error("second Subscribe() should not report a new chat")
	}

	sub, ok, err := repo.Get(100)
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if sub.OnlyChanges {
		t.Error("mode should be updated to every cycle")
	}
	if !sub.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want original %v", sub.CreatedAt, now)
	}
}

func TestGet_Unknown(t *testing.T) {
	repo := NewSubscriptionRepo(setupDB(t))

	_, ok, err := repo.Get(42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() found a chat that never subscribed")
	}
}

func TestUnsubscribe(t *testing.T) {
	repo := NewSubscriptionRepo(setupDB(t))
	if _, err := repo.Subscribe(100, true, time.Now()); err != nil {
		t.Fatal(err)
	}

	removed, err := repo.Unsubscribe(100)
	if err != nil || !removed {
		t.Fatalf("Unsubscribe() = %v, %v; want true", removed, err)
	}
	removed, err = repo.Unsubscribe(100)
	if err != nil || removed {
		t.Fatalf("second Unsubscribe() = %v, %v; want false", removed, err)
	}
}

func TestListSubscriptions(t *testing.T) {
	repo := NewSubscriptionRepo(setupDB(t))
	now := time.Now()
	for _, id := range []int64{300, -100, 200} {
		if _, err := repo.Subscribe(id, id > 0, now); err != nil {
			t.Fatal(err)
		}
	}

	subs, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []int64{-100, 200, 300}
	if len(subs) != len(want) {
		t.Fatalf("List() = %d chats, want %d", len(subs), len(want))
	}
	for i, id := range want {
		if subs[i].ChatID != id {
			t.Errorf("List()[%d] = %d, want %d", i, subs[i].ChatID, id)
		}
	}
	if subs[0].OnlyChanges {
		t.Error("chat -100 subscribed to every cycle")
	}
}
