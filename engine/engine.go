// Package engine serializes all mutations of a room behind a per-room
// actor. Commands for the same room apply strictly one at a time in
// arrival order; commands for different rooms never block one another.
package engine

import (
	"errors"

	"github.com/sosajseba/dirty-minded-socket/game"
)

var (
	// ErrRoomNotFound means a command addressed an unknown or
	// destroyed room. Such commands are dropped and logged; nothing
	// is broadcast.
	ErrRoomNotFound = errors.New("room not found")

	// ErrPersistence means the durable write failed. The command's
	// in-memory mutation is discarded and no broadcast is sent.
	ErrPersistence = errors.New("persistence failure")
)

// Broadcaster delivers outbound frames and owns room group
// membership. The transport implements it; broadcast is best-effort,
// at-most-once.
type Broadcaster interface {
	AddToRoom(roomID, connID string)
	RemoveFromRoom(roomID, connID string)
	ToRoom(roomID string, frame []byte)
	ToConn(connID string, frame []byte)
}

// Command is one decoded inbound event addressed to a room. One
// struct covers every event; which fields matter depends on Event.
type Command struct {
	Event     string
	ConnID    string
	RoomID    string
	Player    game.Player
	Message   string
	White     []int
	Black     []int
	PlayerID  string
	CardIndex int
	WinnerID  string

	// Reply, when non-nil, receives the result of applying the
	// command. It must be buffered; the actor never blocks on it.
	Reply chan error
}

// eventLeave is the internal command a disconnect resolves to.
const eventLeave = "leave"
