// Package notifications holds the console's notification list: seeded
// once from the backend backlog, grown by push deliveries, mutated by the
// operator and written through to durable storage after every change.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/logger"
	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/normalize"
	"github.com/nhle/fleetbell/internal/observability/metrics"
	"github.com/nhle/fleetbell/internal/push"
	"github.com/nhle/fleetbell/internal/store"
)

// StorageKey is the durable key holding the JSON-encoded list.
const StorageKey = "notifications"

// BacklogSource returns the unread backlog at session start.
type BacklogSource interface {
	FetchUnread(ctx context.Context) ([]model.Notification, error)
}

// Snapshot is a consistent view of the store for consumers.
type Snapshot struct {
	Items       []model.Notification
	UnreadCount int
	Loading     bool
	Err         error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store is the session's notification state. All methods are safe for
// concurrent use; every mutation computes from the state current at the
// time it runs.
type Store struct {
	kv      store.KeyValueStore
	backlog BacklogSource
	logger  *zap.Logger

	mu          sync.Mutex
	items       []model.Notification
	loading     bool
	err         error
	seedStarted bool
	disposed    bool
	seeded      chan struct{}
	subs        map[int]chan Snapshot
	nextSub     int
}

// New returns an empty, unseeded Store.
func New(kv store.KeyValueStore, backlog BacklogSource, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		backlog: backlog,
		logger:  logger.L(),
		items:   []model.Notification{},
		seeded:  make(chan struct{}),
		subs:    make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create returns a Store whose backlog seed is already in flight. The
// store reports Loading until the seed resolves.
func Create(ctx context.Context, kv store.KeyValueStore, backlog BacklogSource, opts ...Option) *Store {
	s := New(kv, backlog, opts...)
	if s.beginSeed() {
		go s.finishSeed(ctx)
	}
	return s
}

// Seed fetches the backlog and blocks until it is applied. Only the first
// call on a store does anything.
func (s *Store) Seed(ctx context.Context) {
	if s.beginSeed() {
		s.finishSeed(ctx)
	}
}

// Seeded is closed once the seed has resolved, successfully or not.
func (s *Store) Seeded() <-chan struct{} {
	return s.seeded
}

func (s *Store) beginSeed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seedStarted || s.disposed {
		return false
	}
	s.seedStarted = true
	s.loading = true
	s.publishLocked()
	return true
}

// finishSeed applies the backlog. Items that arrived before the backlog
// resolved stay in front of it.
func (s *Store) finishSeed(ctx context.Context) {
	defer close(s.seeded)

	backlog, err := s.backlog.FetchUnread(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		s.logger.Debug("Dropping backlog resolved after dispose")
		return
	}

	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Error("Failed to fetch notification backlog", zap.Error(err))
		s.publishLocked()
		return
	}

	items := make([]model.Notification, 0, len(s.items)+len(backlog))
	items = append(items, s.items...)
	items = append(items, backlog...)
	s.items = items

	s.logger.Info("Notification backlog loaded",
		zap.Int("backlog", len(backlog)),
		zap.Int("total", len(items)),
	)
	s.commitLocked()
}

// Append puts n at the front of the list as unread.
func (s *Store) Append(n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	n.Read = false
	items := make([]model.Notification, 0, len(s.items)+1)
	items = append(items, n)
	items = append(items, s.items...)
	s.items = items

	s.commitLocked()
}

// MarkAsRead marks the item at index read. Out-of-range indices are
// ignored.
func (s *Store) MarkAsRead(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || index < 0 || index >= len(s.items) {
		return
	}

	s.items[index].Read = true
	s.commitLocked()
}

// MarkAllAsRead marks every item read.
func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	for i := range s.items {
		s.items[i].Read = true
	}
	s.commitLocked()
}

// DeleteNotification removes the item at index; later items shift down
// by one. Out-of-range indices are ignored.
func (s *Store) DeleteNotification(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || index < 0 || index >= len(s.items) {
		return
	}

	items := make([]model.Notification, 0, len(s.items)-1)
	items = append(items, s.items[:index]...)
	items = append(items, s.items[index+1:]...)
	s.items = items

	s.commitLocked()
}

// DeleteAllNotifications empties the list.
func (s *Store) DeleteAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}

	s.items = []model.Notification{}
	s.commitLocked()
}

// UnreadCount returns the number of unread items.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unreadCount(s.items)
}

// Items returns a copy of the list, newest first.
func (s *Store) Items() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Notification(nil), s.items...)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel that receives the latest Snapshot after
// every change. Slow readers only see the most recent state. The channel
// is closed by cancel or Dispose.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if s.disposed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Dispose ends the session. Subscribers are closed; a seed still in flight
// and any later mutation are ignored. Nothing is flushed.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Receiver returns a push handler that normalizes each delivery and
// appends it.
func (s *Store) Receiver(n *normalize.Normalizer) push.Handler {
	return func(payload model.PushPayload) {
		s.Append(n.Now(payload))
	}
}

// commitLocked persists the list and notifies subscribers.
func (s *Store) commitLocked() {
	s.persistLocked()
	metrics.UnreadNotifications.Set(float64(unreadCount(s.items)))
	s.publishLocked()
}

func (s *Store) persistLocked() {
	err := s.write()
	metrics.NotificationsPersisted.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to persist notifications",
			zap.Int("count", len(s.items)),
			zap.Error(err),
		)
	}
}

func (s *Store) write() error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("marshaling notifications: %w", err)
	}
	if err := s.kv.Put(context.Background(), StorageKey, data); err != nil {
		return fmt.Errorf("writing notifications: %w", err)
	}
	return nil
}

func (s *Store) publishLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       append([]model.Notification(nil), s.items...),
		UnreadCount: unreadCount(s.items),
		Loading:     s.loading,
		Err:         s.err,
	}
}

func unreadCount(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

// LoadPersisted decodes the list last written to kv. It returns an empty
// list when nothing was written.
func LoadPersisted(ctx context.Context, kv store.KeyValueStore) ([]model.Notification, error) {
	data, err := kv.Get(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []model.Notification{}, nil
		}
		return nil, fmt.Errorf("reading persisted notifications: %w", err)
	}

	var items []model.Notification
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding persisted notifications: %w", err)
	}
	return items, nil
}
