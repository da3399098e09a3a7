package watch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persons-api/internal/model/person"
	"github.com/zhouzirui/persons-api/internal/service/watch"
)

func TestHubDeliversStoreWrites(t *testing.T) {
	hub := watch.NewHub(4)
	store, err := person.NewMemoryStore(nil, person.WithNotifier(hub))
	require.NoError(t, err)

	sub := hub.Subscribe()
	defer sub.Close()

	stored, err := store.Add(context.Background(), person.Person{Name: "Alice"})
	require.NoError(t, err)

	msg := <-sub.C
	assert.Equal(t, person.EventCreated, msg.Type)
	assert.Equal(t, stored, msg.Person)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := watch.NewHub(1)
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	hub.Notify(person.Event{Kind: person.EventCreated, Person: person.Person{ID: 1, Name: "Alice"}})
	<-fast.C
	hub.Notify(person.Event{Kind: person.EventDeleted, Person: person.Person{ID: 1, Name: "Alice"}})

	first, ok := <-slow.C
	require.True(t, ok)
	assert.Equal(t, person.EventCreated, first.Type)
	_, ok = <-slow.C
	assert.False(t, ok, "slow subscriber should be closed")

	second := <-fast.C
	assert.Equal(t, person.EventDeleted, second.Type)
	assert.Equal(t, 1, hub.Len())
}

func TestHubSubscriptionClose(t *testing.T) {
	hub := watch.NewHub(0)
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.Len())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Len())
	_, ok := <-sub.C
	assert.False(t, ok)
}

func TestHubClose(t *testing.T) {
	hub := watch.NewHub(2)
	sub := hub.Subscribe()

	hub.Close()
	_, ok := <-sub.C
	assert.False(t, ok)

	late := hub.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Len())

	hub.Notify(person.Event{Kind: person.EventUpdated})
}
