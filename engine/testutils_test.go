package engine

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sosajseba/dirty-minded-socket/game"
	"github.com/sosajseba/dirty-minded-socket/protocol"
	"github.com/sosajseba/dirty-minded-socket/store"
)

// fakeBroadcaster records frames and group membership instead of
// writing to sockets.
type fakeBroadcaster struct {
	mu         sync.Mutex
	roomFrames map[string][]protocol.Frame
	connFrames map[string][]protocol.Frame
	members    map[string]map[string]bool
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		roomFrames: map[string][]protocol.Frame{},
		connFrames: map[string][]protocol.Frame{},
		members:    map[string]map[string]bool{},
	}
}

func (f *fakeBroadcaster) AddToRoom(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[roomID] == nil {
		f.members[roomID] = map[string]bool{}
	}
	f.members[roomID][connID] = true
}

func (f *fakeBroadcaster) RemoveFromRoom(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[roomID], connID)
}

func (f *fakeBroadcaster) ToRoom(roomID string, frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var decoded protocol.Frame
	_ = json.Unmarshal(frame, &decoded)
	f.roomFrames[roomID] = append(f.roomFrames[roomID], decoded)
}

func (f *fakeBroadcaster) ToConn(connID string, frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var decoded protocol.Frame
	_ = json.Unmarshal(frame, &decoded)
	f.connFrames[connID] = append(f.connFrames[connID], decoded)
}

func (f *fakeBroadcaster) roomEvents(roomID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := []string{}
	for _, frame := range f.roomFrames[roomID] {
		events = append(events, frame.Event)
	}
	return events
}

func (f *fakeBroadcaster) connEvents(connID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := []string{}
	for _, frame := range f.connFrames[connID] {
		events = append(events, frame.Event)
	}
	return events
}

func (f *fakeBroadcaster) isMember(roomID, connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][connID]
}

// lastRoom decodes the room snapshot out of the most recent frame
// whose payload carries one.
func (f *fakeBroadcaster) lastRoom(t *testing.T, roomID string) *game.Room {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	frames := f.roomFrames[roomID]
	for i := len(frames) - 1; i >= 0; i-- {
		var update protocol.RoomUpdate
		if err := json.Unmarshal(frames[i].Data, &update); err == nil && update.Room != nil {
			return update.Room
		}
	}
	t.Fatalf("no room snapshot broadcast for %s", roomID)
	return nil
}

// failingStore wraps a real store and fails writes on demand.
type failingStore struct {
	store.RoomStore
	failSaves   bool
	failDeletes bool
}

func (s *failingStore) Save(room *game.Room) error {
	if s.failSaves {
		return errors.New("disk on fire")
	}
	return s.RoomStore.Save(room)
}

func (s *failingStore) Delete(roomID string) error {
	if s.failDeletes {
		return errors.New("disk on fire")
	}
	return s.RoomStore.Delete(roomID)
}

// gatedStore blocks loads of one room until its gate opens, to
// simulate a slow durable read.
type gatedStore struct {
	store.RoomStore
	slowRoomID string
	entered    chan struct{}
	gate       chan struct{}
}

func newGatedStore(inner store.RoomStore, slowRoomID string) *gatedStore {
	return &gatedStore{
		RoomStore:  inner,
		slowRoomID: slowRoomID,
		entered:    make(chan struct{}),
		gate:       make(chan struct{}),
	}
}

func (s *gatedStore) Load(roomID string) (*game.Room, error) {
	if roomID == s.slowRoomID {
		close(s.entered)
		<-s.gate
	}
	return s.RoomStore.Load(roomID)
}

func newTestLobby(s store.RoomStore, opts Opts) (*Lobby, *fakeBroadcaster) {
	if s == nil {
		s = store.NewInMemoryRoomStore()
	}
	lobby := NewLobby(s, opts)
	broadcaster := newFakeBroadcaster()
	lobby.SetBroadcaster(broadcaster)
	return lobby, broadcaster
}

// dispatchWait sends a command and blocks until the actor applied it.
func dispatchWait(t *testing.T, l *Lobby, cmd Command) error {
	t.Helper()

	cmd.Reply = make(chan error, 1)
	if err := l.Dispatch(cmd); err != nil {
		return err
	}
	return <-cmd.Reply
}

func createRoom(t *testing.T, l *Lobby, roomID, connID string) {
	t.Helper()

	err := dispatchWait(t, l, Command{
		Event:  protocol.EventCreateRoom,
		ConnID: connID,
		RoomID: roomID,
		Player: game.Player{ID: connID, Name: "player " + connID},
	})
	require.NoError(t, err)
}

func joinRoom(t *testing.T, l *Lobby, roomID, connID string) {
	t.Helper()

	err := dispatchWait(t, l, Command{
		Event:  protocol.EventJoinRoom,
		ConnID: connID,
		RoomID: roomID,
		Player: game.Player{ID: connID, Name: "player " + connID},
	})
	require.NoError(t, err)
}
