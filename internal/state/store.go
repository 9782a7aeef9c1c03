// Package state holds the latest weather snapshot for presentation code.
package state

import (
	"sync"
	"time"

	"github.com/vzahanych/weather-snapshot/internal/snapshot"
)

// Store keeps the current snapshot and fans updates out to subscribers.
// Each subscriber has a one-slot buffer holding the newest snapshot it has
// not read yet, so a slow reader never blocks Publish.
type Store struct {
	mutex       sync.RWMutex
	current     *snapshot.Snapshot
	updatedAt   time.Time
	loading     int
	version     uint64
	subscribers map[int]chan *snapshot.Snapshot
	nextID      int
}

func NewStore(initial *snapshot.Snapshot) *Store {
	return &Store{
		current:     initial,
		updatedAt:   time.Now(),
		subscribers: make(map[int]chan *snapshot.Snapshot),
	}
}

func (s *Store) Current() *snapshot.Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.current
}

func (s *Store) UpdatedAt() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.updatedAt
}

// Version counts publishes. Zero means only the initial snapshot has
// been seen.
func (s *Store) Version() uint64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.version
}

// Publish replaces the current snapshot and notifies every subscriber.
func (s *Store) Publish(snap *snapshot.Snapshot) {
	if snap == nil {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.current = snap
	s.updatedAt = time.Now()
	s.version++

	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}

		// drop the unread one
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

// Subscribe registers a listener. The returned function unsubscribes and
// closes the channel; calling it more than once is safe.
func (s *Store) Subscribe() (<-chan *snapshot.Snapshot, func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan *snapshot.Snapshot, 1)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

func (s *Store) Subscribers() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.subscribers)
}

// StartLoading marks a refresh as running. Calls nest.
func (s *Store) StartLoading() {
	s.mutex.Lock()
	s.loading++
	s.mutex.Unlock()
}

func (s *Store) FinishLoading() {
	s.mutex.Lock()
	if s.loading > 0 {
		s.loading--
	}
	s.mutex.Unlock()
}

func (s *Store) Loading() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.loading > 0
}
