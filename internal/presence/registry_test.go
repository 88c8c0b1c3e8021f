package presence_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawroom/internal/presence"
)

func TestMemoryRegistry_JoinLeaveSingleSession(t *testing.T) {
	reg := presence.NewMemoryRegistry()

	sessions := reg.Join(1, 10, "alice")
	assert.Equal(t, 1, sessions, "first session should report the user as newly online")
	assert.Equal(t, 1, reg.Occupants(1))

	gone := reg.Leave(1, 10)
	assert.True(t, gone, "last session leaving should report the user offline")
	assert.Equal(t, 0, reg.Occupants(1))
}

func TestMemoryRegistry_MultiTabCountsOneOccupant(t *testing.T) {
	reg := presence.NewMemoryRegistry()

	assert.Equal(t, 1, reg.Join(1, 10, "alice"))
	assert.Equal(t, 2, reg.Join(1, 10, "alice"), "second tab must increment the session count")
	assert.Equal(t, 1, reg.Occupants(1), "two tabs are still one occupant")

	snapshot := reg.Snapshot(1)
	require.Len(t, snapshot, 1)
	assert.Equal(t, uint(10), snapshot[0].UserID)

	assert.False(t, reg.Leave(1, 10), "closing one of two tabs does not take the user offline")
	assert.True(t, reg.Leave(1, 10))
	assert.Equal(t, 0, reg.Occupants(1))
}

func TestMemoryRegistry_SnapshotOrderedByUserID(t *testing.T) {
	reg := presence.NewMemoryRegistry()
	reg.Join(1, 30, "carol")
	reg.Join(1, 10, "alice")
	reg.Join(1, 20, "bob")

	snapshot := reg.Snapshot(1)
	require.Len(t, snapshot, 3)
	assert.Equal(t, uint(10), snapshot[0].UserID)
	assert.Equal(t, uint(20), snapshot[1].UserID)
	assert.Equal(t, uint(30), snapshot[2].UserID)
	assert.Equal(t, "alice", snapshot[0].DisplayName)
}

func TestMemoryRegistry_LeaveUnknownIsNoop(t *testing.T) {
	reg := presence.NewMemoryRegistry()
	assert.False(t, reg.Leave(1, 10))

	reg.Join(1, 10, "alice")
	assert.False(t, reg.Leave(2, 10), "leaving a different room must not touch the user's presence")
	assert.Equal(t, 1, reg.Occupants(1))
}

func TestMemoryRegistry_RoomsAreIndependent(t *testing.T) {
	reg := presence.NewMemoryRegistry()
	reg.Join(1, 10, "alice")
	reg.Join(2, 10, "alice")

	assert.Equal(t, 1, reg.Occupants(1))
	assert.Equal(t, 1, reg.Occupants(2))

	assert.True(t, reg.Leave(1, 10))
	assert.Equal(t, 0, reg.Occupants(1))
	assert.Equal(t, 1, reg.Occupants(2))
}

func TestMemoryRegistry_ConcurrentJoinsAndLeaves(t *testing.T) {
	reg := presence.NewMemoryRegistry()
	const tabs = 50

	var wg sync.WaitGroup
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Join(1, 10, "alice")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reg.Occupants(1))

	offline := 0
	var mu sync.Mutex
	for i := 0; i < tabs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.Leave(1, 10) {
				mu.Lock()
				offline++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, offline, "exactly one leave should observe the offline transition")
	assert.Equal(t, 0, reg.Occupants(1))
}
