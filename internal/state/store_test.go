package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-snapshot/internal/snapshot"
)

func snapAt(day string) *snapshot.Snapshot {
	s := snapshot.Placeholder(time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC))
	s.CurrentDay = day
	return s
}

func TestStore_CurrentStartsWithInitial(t *testing.T) {
	initial := snapAt("Wait")
	store := NewStore(initial)

	assert.Same(t, initial, store.Current())
	assert.False(t, store.Loading())
	assert.False(t, store.UpdatedAt().IsZero())
	assert.Zero(t, store.Version())
}

func TestStore_PublishNotifiesSubscribers(t *testing.T) {
	store := NewStore(snapAt("Wait"))

	first, unsubFirst := store.Subscribe()
	defer unsubFirst()
	second, unsubSecond := store.Subscribe()
	defer unsubSecond()

	monday := snapAt("Monday")
	store.Publish(monday)

	assert.Same(t, monday, <-first)
	assert.Same(t, monday, <-second)
	assert.Same(t, monday, store.Current())
	assert.Equal(t, uint64(1), store.Version())
}

func TestStore_UnsubscribeStopsDelivery(t *testing.T) {
	store := NewStore(snapAt("Wait"))

	ch, unsub := store.Subscribe()
	require.Equal(t, 1, store.Subscribers())

	unsub()
	unsub()
	assert.Equal(t, 0, store.Subscribers())

	store.Publish(snapAt("Monday"))

	_, open := <-ch
	assert.False(t, open)
}

func TestStore_SlowSubscriberGetsLatest(t *testing.T) {
	store := NewStore(snapAt("Wait"))

	ch, unsub := store.Subscribe()
	defer unsub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, day := range []string{"Monday", "Tuesday", "Wednesday"} {
			store.Publish(snapAt(day))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on an unread subscriber")
	}

	got := <-ch
	assert.Equal(t, "Wednesday", got.CurrentDay)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot %q", extra.CurrentDay)
	default:
	}
}

func TestStore_PublishNilIgnored(t *testing.T) {
	initial := snapAt("Wait")
	store := NewStore(initial)

	store.Publish(nil)
	assert.Same(t, initial, store.Current())
}

func TestStore_Loading(t *testing.T) {
	store := NewStore(nil)

	store.StartLoading()
	store.StartLoading()
	assert.True(t, store.Loading())

	store.FinishLoading()
	assert.True(t, store.Loading())

	store.FinishLoading()
	store.FinishLoading()
	assert.False(t, store.Loading())
}

func TestStore_ConcurrentPublishAndSubscribe(t *testing.T) {
	store := NewStore(snapAt("Wait"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Publish(snapAt("Monday"))
		}()
		go func() {
			defer wg.Done()
			ch, unsub := store.Subscribe()
			select {
			case <-ch:
			default:
			}
			unsub()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, store.Subscribers())
	assert.Equal(t, "Monday", store.Current().CurrentDay)
}
