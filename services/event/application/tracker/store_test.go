package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/voyagewatch/services/event/domain"
	"github.com/ghuser/voyagewatch/services/event/domain/models"
)

func TestEventStore_AddFromChannelIsIdempotent(t *testing.T) {
	s := NewEventStore(nil)
	e := newEvent("a", models.EventTypeShipwreck)

	assert.True(t, s.AddFromChannel(e))
	assert.Equal(t, 1, s.Len())

	assert.False(t, s.AddFromChannel(e))
	assert.Equal(t, 1, s.Len())

	// same id, different content: still the first record wins
	other := newEvent("a", models.EventTypeStorm)
	assert.False(t, s.AddFromChannel(other))
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, models.EventTypeShipwreck, got.Type)
}

func TestEventStore_AddLocalAbsorbsEcho(t *testing.T) {
	s := NewEventStore(nil)
	e := newEvent("local-1", models.EventTypePvP)

	require.NoError(t, s.AddLocal(e))
	assert.False(t, s.AddFromChannel(e), "echo of a local event must be absorbed")
	assert.Equal(t, []string{"local-1"}, ids(s.All()))
}

func TestEventStore_AddLocalRejectsDuplicateID(t *testing.T) {
	s := NewEventStore(nil)
	require.True(t, s.AddFromChannel(newEvent("x", models.EventTypeStorm)))

	err := s.AddLocal(newEvent("x", models.EventTypeShipwreck))
	require.ErrorIs(t, err, domain.ErrDuplicateEventID)
	assert.Equal(t, 1, s.Len())
}

func TestEventStore_PreservesFirstSeenOrder(t *testing.T) {
	s := NewEventStore(nil)
	s.AddFromChannel(newEvent("c", models.EventTypeStorm))
	require.NoError(t, s.AddLocal(newEvent("a", models.EventTypePvP)))
	s.AddFromChannel(newEvent("b", models.EventTypeShipwreck))

	// re-delivery after a reconnect must not move anything
	s.AddFromChannel(newEvent("c", models.EventTypeStorm))
	s.AddFromChannel(newEvent("a", models.EventTypePvP))

	assert.Equal(t, []string{"c", "a", "b"}, ids(s.All()))
}

func TestEventStore_AllReturnsSnapshot(t *testing.T) {
	s := NewEventStore(nil)
	s.AddFromChannel(newEvent("a", models.EventTypeStorm))

	snap := s.All()
	snap[0].Description = "mutated"
	s.AddFromChannel(newEvent("b", models.EventTypeStorm))

	assert.Len(t, snap, 1)
	got, _ := s.Get("a")
	assert.Empty(t, got.Description)
}

func TestEventStore_OnChangeFiresOnlyOnInsert(t *testing.T) {
	calls := 0
	s := NewEventStore(func() { calls++ })

	s.AddFromChannel(newEvent("a", models.EventTypeStorm))
	s.AddFromChannel(newEvent("a", models.EventTypeStorm))
	_ = s.AddLocal(newEvent("a", models.EventTypeStorm))
	_ = s.AddLocal(newEvent("b", models.EventTypeStorm))

	assert.Equal(t, 2, calls)
}

func TestEventStore_ConcurrentInsertsKeepOnePerID(t *testing.T) {
	s := NewEventStore(nil)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.AddFromChannel(newEvent(string(rune('a'+i%26)), models.EventTypeStorm))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 26, s.Len())
}
