// Package protocol defines the wire events exchanged with clients.
// Every message is a single JSON frame: {"event": ..., "data": ...}.
package protocol

import (
	"encoding/json"

	"github.com/sosajseba/dirty-minded-socket/game"
)

// Inbound events.
const (
	EventCreateRoom            = "create-room"
	EventJoinRoom              = "join-room"
	EventMessage               = "message"
	EventInitialCardsOrder     = "initial-cards-order"
	EventCardsDistribution     = "cards-distribution"
	EventCardsReplacement      = "cards-replacement"
	EventPlayerPickedWhiteCard = "player-picked-white-card"
	EventWinnerGetsOnePoint    = "winner-gets-one-point"
	EventCurrentBlackCard      = "current-black-card"
	EventNextTurn              = "next-turn"
)

// Outbound events.
const (
	EventRoomUpdated      = "room-updated"
	EventNewPlayer        = "new-player"
	EventRoomIsFull       = "room-is-full"
	EventReceive          = "receive"
	EventUserDisconnected = "user-disconnected"
	EventGameOver         = "game-over"
	EventError            = "error"
)

// Frame is the envelope for every message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame marshals an event and its payload into a wire-ready frame.
func NewFrame(event string, data interface{}) ([]byte, error) {
	frame := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

type CreateRoom struct {
	RoomID string      `json:"roomId"`
	Player game.Player `json:"creatorPlayer"`
}

type JoinRoom struct {
	RoomID string      `json:"roomId"`
	Player game.Player `json:"player"`
}

type Chat struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

type Decks struct {
	WhiteCards []int `json:"whiteCards"`
	BlackCards []int `json:"blackCards"`
}

type Pick struct {
	PlayerID  string `json:"playerId"`
	CardIndex int    `json:"cardIndex"`
}

type Winner struct {
	WinnerID string `json:"winnerId"`
}

type RoomUpdate struct {
	Room *game.Room `json:"room"`
}

type NewPlayer struct {
	Room   *game.Room  `json:"room"`
	Joiner game.Player `json:"joiner"`
}

type BlackCard struct {
	Card  int `json:"card"`
	Round int `json:"round"`
}

type Turn struct {
	ReaderID string `json:"readerId"`
	Round    int    `json:"round"`
}

type Disconnected struct {
	PlayerID string     `json:"playerId"`
	Room     *game.Room `json:"room"`
}

type Error struct {
	Error string `json:"error"`
}
