package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tft-leaderboard-bot/internal/domain"
)

var (
	ErrRefreshInProgress = errors.New("leaderboard refresh already in progress")
	ErrStopped           = errors.New("leaderboard scheduler stopped")
)

type Builder interface {
	Build(ctx context.Context) domain.Leaderboard
}

// SnapshotStore persists published snapshots. Optional.
type SnapshotStore interface {
	Save(lb domain.Leaderboard, at time.Time) (domain.Snapshot, error)
	Latest() (domain.Snapshot, error)
}

// Listener is called after every published refresh. prev is zero on the first one.
type Listener func(prev, next domain.Snapshot)

// Scheduler rebuilds the leaderboard on a fixed interval and keeps the latest result.
// The next cycle is armed only after the current one finishes, so cycles never overlap.
type Scheduler struct {
	builder  Builder
	store    SnapshotStore
	interval time.Duration
	now      func() time.Time

	refreshing sync.Mutex

	mu        sync.RWMutex
	latest    domain.Snapshot
	listeners []Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// stopMu orders wg.Add against the wg.Wait in Stop.
	stopMu  sync.Mutex
	stopped bool
}

func NewScheduler(builder Builder, store SnapshotStore, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		builder:  builder,
		store:    store,
		interval: interval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnUpdate registers a listener. Call before Start.
func (s *Scheduler) OnUpdate(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Start restores the last stored snapshot, runs a cycle right away and then one per interval.
func (s *Scheduler) Start() {
	s.restore()
	if !s.track() {
		return
	}
	go s.loop()
}

// Stop cancels any in-flight cycle and waits for background work to finish.
func (s *Scheduler) Stop() {
	s.stopMu.Lock()
	s.stopped = true
	s.cancel()
	s.stopMu.Unlock()
	s.wg.Wait()
}

// track registers background work with Stop. It is false once Stop has begun.
func (s *Scheduler) track() bool {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

// Latest returns the most recent snapshot and whether one exists yet.
func (s *Scheduler) Latest() (domain.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, !s.latest.IsZero()
}

// Refresh runs a cycle now and waits for it. It fails fast when a cycle is already running.
// The cycle is cancelled by either ctx or Stop, and Stop waits for it.
func (s *Scheduler) Refresh(ctx context.Context) (domain.Snapshot, error) {
	if !s.refreshing.TryLock() {
		return domain.Snapshot{}, ErrRefreshInProgress
	}
	defer s.refreshing.Unlock()
	if !s.track() {
		return domain.Snapshot{}, ErrStopped
	}
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(s.ctx, cancel)()
	return s.cycle(ctx), nil
}

// RefreshAsync starts a cycle in the background.
func (s *Scheduler) RefreshAsync() error {
	if !s.refreshing.TryLock() {
		return ErrRefreshInProgress
	}
	if !s.track() {
		s.refreshing.Unlock()
		return ErrStopped
	}
	go func() {
		defer s.wg.Done()
		defer s.refreshing.Unlock()
		s.cycle(s.ctx)
	}()
	return nil
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	s.tick()
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
			s.tick()
			timer.Reset(s.interval)
		}
	}
}

func (s *Scheduler) tick() {
	if !s.refreshing.TryLock() {
		log.Debug("manual refresh running, skipping scheduled cycle")
		return
	}
	defer s.refreshing.Unlock()
	s.cycle(s.ctx)
}

func (s *Scheduler) cycle(ctx context.Context) domain.Snapshot {
	started := s.now()
	lb := s.builder.Build(ctx)
	if ctx.Err() != nil {
		log.WithError(ctx.Err()).Warn("leaderboard refresh interrupted, keeping previous result")
		snap, _ := s.Latest()
		return snap
	}

	next := domain.Snapshot{Leaderboard: lb, UpdatedAt: s.now().UTC()}
	if s.store != nil {
		saved, err := s.store.Save(lb, next.UpdatedAt)
		if err != nil {
			log.WithError(err).Error("failed to persist leaderboard snapshot")
		} else {
			next = saved
		}
	}

	s.mu.Lock()
	prev := s.latest
	s.latest = next
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"players":  len(lb.Players),
		"took":     s.now().Sub(started).Round(time.Millisecond),
		"snapshot": next.ID,
	}).Info("leaderboard refreshed")

	for _, l := range listeners {
		l(prev, next)
	}
	return next
}

func (s *Scheduler) restore() {
	if s.store == nil {
		return
	}
	snap, err := s.store.Latest()
	if err != nil {
		log.WithError(err).Debug("no stored snapshot to restore")
		return
	}
	s.mu.Lock()
	if s.latest.IsZero() {
		s.latest = snap
	}
	s.mu.Unlock()
	log.WithField("snapshot", snap.ID).Info("restored last leaderboard snapshot")
}
