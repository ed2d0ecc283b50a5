// Package store is the persistence port for room snapshots. The
// stored representation keeps player order and full deck contents
// exactly as the engine saved them.
package store

import (
	"errors"

	"github.com/sosajseba/dirty-minded-socket/game"
)

// ErrNotFound means no snapshot exists for the requested room.
var ErrNotFound = errors.New("room not found")

// RoomStore loads, saves and deletes durable room snapshots.
type RoomStore interface {
	Load(roomID string) (*game.Room, error)
	Save(room *game.Room) error
	Delete(roomID string) error
	Close() error
}
