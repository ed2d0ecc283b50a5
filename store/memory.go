package store

import (
	"sync"

	"github.com/sosajseba/dirty-minded-socket/game"
)

// InMemoryRoomStore is a RoomStore for tests and local runs. Rooms
// are cloned on the way in and out so callers never share state with
// the store.
type InMemoryRoomStore struct {
	mu    sync.RWMutex
	rooms map[string]*game.Room
}

// NewInMemoryRoomStore constructs an empty InMemoryRoomStore.
func NewInMemoryRoomStore() *InMemoryRoomStore {
	return &InMemoryRoomStore{rooms: map[string]*game.Room{}}
}

func (s *InMemoryRoomStore) Load(roomID string) (*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return room.Clone(), nil
}

func (s *InMemoryRoomStore) Save(room *game.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[room.RoomID] = room.Clone()
	return nil
}

func (s *InMemoryRoomStore) Delete(roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, roomID)
	return nil
}

func (s *InMemoryRoomStore) Close() error {
	return nil
}
