package engine

import "sync"

// SessionRegistry maps a live connection to the room it last joined.
// Its only job is resolving an ungraceful disconnect, which carries no
// roomID of its own, to a leave command against the right room.
type SessionRegistry struct {
	mu    sync.RWMutex
	rooms map[string]string
}

// NewSessionRegistry constructs an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{rooms: map[string]string{}}
}

// Add records the room a connection belongs to.
func (r *SessionRegistry) Add(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[connID] = roomID
}

// Room returns the room a connection last joined, if any.
func (r *SessionRegistry) Room(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.rooms[connID]
	return roomID, ok
}

// Remove forgets a connection.
func (r *SessionRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, connID)
}
