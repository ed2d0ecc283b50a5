package engine

import (
	"errors"
	"log"
	"sync"

	"github.com/sosajseba/dirty-minded-socket/game"
	"github.com/sosajseba/dirty-minded-socket/protocol"
	"github.com/sosajseba/dirty-minded-socket/store"
)

// Opts carries the gameplay settings every room shares.
type Opts struct {
	// Capacity is the maximum number of players per room.
	Capacity int
	// HandSize is the number of white cards dealt to each player.
	HandSize int
}

// Lobby routes commands to the actor owning their room, spawning or
// reviving actors as needed. It also owns the session registry.
type Lobby struct {
	store       store.RoomStore
	opts        Opts
	sessions    *SessionRegistry
	broadcaster Broadcaster

	mu     sync.Mutex
	actors map[string]*RoomActor
}

// NewLobby constructs a Lobby on top of a room store. A broadcaster
// must be attached with SetBroadcaster before commands are
// dispatched.
func NewLobby(s store.RoomStore, opts Opts) *Lobby {
	return &Lobby{
		store:    s,
		opts:     opts,
		sessions: NewSessionRegistry(),
		actors:   map[string]*RoomActor{},
	}
}

// SetBroadcaster attaches the transport the lobby emits through.
func (l *Lobby) SetBroadcaster(b Broadcaster) {
	l.broadcaster = b
}

// Sessions exposes the session registry.
func (l *Lobby) Sessions() *SessionRegistry {
	return l.sessions
}

// Dispatch queues a command for its room's actor. A create-room
// command may spawn a fresh actor; any other command for a room with
// no live actor first tries to revive the room from the store, which
// is how rooms survive a process restart.
func (l *Lobby) Dispatch(cmd Command) error {
	l.mu.Lock()
	actor, ok := l.actors[cmd.RoomID]
	l.mu.Unlock()

	if !ok {
		var err error
		actor, err = l.revive(cmd)
		if err != nil {
			return err
		}
	}

	// sent outside the lock: a full mailbox must not stall other rooms
	actor.cmds <- cmd
	return nil
}

// revive spawns an actor for a room with no live one, loading any
// persisted snapshot first. The load happens outside the lobby lock
// so a slow durable read never stalls dispatch for other rooms.
func (l *Lobby) revive(cmd Command) (*RoomActor, error) {
	room, err := l.store.Load(cmd.RoomID)
	switch {
	case err == nil:
		// revived after a restart; a duplicate create for a revived
		// room is the actor's no-op to handle
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	case cmd.Event == protocol.EventCreateRoom:
		room = nil
	default:
		return nil, ErrRoomNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if actor, ok := l.actors[cmd.RoomID]; ok {
		// another dispatcher spawned it while we were loading
		return actor, nil
	}
	return l.spawn(cmd.RoomID, room), nil
}

// HandleDisconnect resolves a closed connection to a leave command
// via the session registry.
func (l *Lobby) HandleDisconnect(connID string) {
	roomID, ok := l.sessions.Room(connID)
	l.sessions.Remove(connID)
	if !ok {
		return
	}

	err := l.Dispatch(Command{
		Event:    eventLeave,
		ConnID:   connID,
		RoomID:   roomID,
		PlayerID: connID,
	})
	if err != nil {
		log.Printf("disconnect of %s: %v", connID, err)
	}
}

// spawn must be called with l.mu held.
func (l *Lobby) spawn(roomID string, room *game.Room) *RoomActor {
	actor := newRoomActor(roomID, room, l)
	l.actors[roomID] = actor
	go actor.run()
	return actor
}

// remove forgets an actor once its room is destroyed.
func (l *Lobby) remove(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.actors, roomID)
}
