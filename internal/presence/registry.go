// Package presence tracks which users are live in which room.
//
// The registry is transient, per-process state. It is not the source of truth
// for membership: the session gateway validates membership before every Join,
// and the registry is rebuilt empty on process restart. Keeping it behind an
// interface lets the hub be tested without a transport and leaves room for a
// distributed implementation later.
package presence

import (
	"sort"
	"sync"
)

// Entry is one user's live presence in a room. Presence is reported at user
// granularity: a user with two tabs open is a single entry with Sessions == 2.
type Entry struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Sessions    int    `json:"-"`
}

// Registry maps rooms to the set of currently-connected users.
type Registry interface {
	// Join records one more live session for the user and returns the user's
	// session count afterwards (1 means the user just came online here).
	Join(roomID, userID uint, displayName string) int

	// Leave drops one live session and reports whether the user is now fully
	// offline in the room. Leave of an unknown user is a no-op returning false.
	Leave(roomID, userID uint) bool

	// Snapshot returns the room's de-duplicated occupants, ordered by user ID.
	Snapshot(roomID uint) []Entry

	// Occupants returns the number of distinct users present in the room.
	Occupants(roomID uint) int
}

// MemoryRegistry is the in-process Registry implementation. A single mutex
// serializes concurrent join/leave: two tabs of the same user joining at once
// cannot race the session count into an inconsistent state.
type MemoryRegistry struct {
	mu    sync.Mutex
	rooms map[uint]map[uint]*Entry
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rooms: make(map[uint]map[uint]*Entry)}
}

func (r *MemoryRegistry) Join(roomID, userID uint, displayName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[uint]*Entry)
		r.rooms[roomID] = room
	}
	entry, ok := room[userID]
	if !ok {
		entry = &Entry{UserID: userID, DisplayName: displayName}
		room[userID] = entry
	}
	entry.Sessions++
	return entry.Sessions
}

func (r *MemoryRegistry) Leave(roomID, userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	entry, ok := room[userID]
	if !ok {
		return false
	}
	entry.Sessions--
	if entry.Sessions > 0 {
		return false
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
	return true
}

func (r *MemoryRegistry) Snapshot(roomID uint) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.rooms[roomID]
	entries := make([]Entry, 0, len(room))
	for _, entry := range room {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries
}

func (r *MemoryRegistry) Occupants(roomID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}
