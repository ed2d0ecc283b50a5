package game

import "errors"

var (
	// ErrRoomFull is surfaced to the joining connection only; the room
	// itself is left untouched.
	ErrRoomFull = errors.New("room is full")

	// ErrNoPlayers guards operations that need at least one player.
	ErrNoPlayers = errors.New("no players in the room")

	ErrDuplicatePlayer = errors.New("player is already in the room")
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownCard     = errors.New("card index out of range")
	ErrGameStarted     = errors.New("game has already started")
	ErrGameNotStarted  = errors.New("game has not started")

	// ErrNoMoreBlackCards means the round index ran past the prompt
	// sequence; the game is over.
	ErrNoMoreBlackCards = errors.New("no black cards left")
)
