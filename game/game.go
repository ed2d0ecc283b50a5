package game

import (
	"math/rand"

	"github.com/sosajseba/dirty-minded-socket/deck"
)

// Player is one connected participant in a room. ID is derived from
// the connection and is unique within the room.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"admin"`
	Score   int    `json:"score"`
	Hand    []int  `json:"cards"`
}

// Room is the full state of one game session. Player order is
// significant: turn rotation and card distribution both follow it, so
// it must survive persistence round-trips unchanged.
//
// A Room is a plain in-memory value. None of its methods are safe for
// concurrent use; serializing access per room is the engine's job.
type Room struct {
	RoomID      string   `json:"roomId"`
	Players     []Player `json:"players"`
	WhiteCards  []int    `json:"whiteCards"`
	BlackCards  []int    `json:"blackCards"`
	Round       int      `json:"round"`
	ReaderID    string   `json:"readerId,omitempty"`
	GameStarted bool     `json:"gameStarted"`
	GameOver    bool     `json:"gameOver"`
}

// NewRoom constructs a room containing only its creator, who is the
// room admin.
func NewRoom(roomID string, creator Player) *Room {
	creator.IsAdmin = true
	creator.Score = 0
	creator.Hand = nil

	return &Room{
		RoomID:  roomID,
		Players: []Player{creator},
	}
}

// Clone returns a deep copy of the room. The engine applies commands
// to a clone so a failed persistence write leaves the authoritative
// copy untouched.
func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Hand = append([]int(nil), p.Hand...)
		clone.Players[i] = p
	}
	clone.WhiteCards = append([]int(nil), r.WhiteCards...)
	clone.BlackCards = append([]int(nil), r.BlackCards...)
	return &clone
}

// FindPlayer returns the player with the given id, if present.
func (r *Room) FindPlayer(id string) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i], true
		}
	}
	return nil, false
}

// Join appends a player to the room. The new player is never an
// admin; the admin seat belongs to the creator until they leave.
func (r *Room) Join(p Player, capacity int) error {
	if len(r.Players) >= capacity {
		return ErrRoomFull
	}
	if _, ok := r.FindPlayer(p.ID); ok {
		return ErrDuplicatePlayer
	}

	p.IsAdmin = false
	p.Score = 0
	p.Hand = nil
	r.Players = append(r.Players, p)
	return nil
}

// SetDecks installs the white (answer) and black (prompt) decks. Only
// valid before the game has started.
func (r *Room) SetDecks(whiteCards, blackCards []int) error {
	if r.GameStarted {
		return ErrGameStarted
	}

	r.WhiteCards = append([]int(nil), whiteCards...)
	r.BlackCards = append([]int(nil), blackCards...)
	return nil
}

// DealInitialHands gives every player handSize cards, in player
// order, and marks the game as started.
func (r *Room) DealInitialHands(handSize int) error {
	if r.GameStarted {
		return ErrGameStarted
	}
	if len(r.Players) == 0 {
		return ErrNoPlayers
	}

	hands, rotated, err := deck.Deal(r.WhiteCards, len(r.Players), handSize)
	if err != nil {
		return err
	}

	for i := range r.Players {
		r.Players[i].Hand = hands[i]
	}
	r.WhiteCards = rotated
	r.GameStarted = true
	return nil
}

// Replenish adds one replacement card to every hand except the
// current reader's, in player order.
func (r *Room) Replenish() error {
	if !r.GameStarted {
		return ErrGameNotStarted
	}

	numHands := 0
	for _, p := range r.Players {
		if p.ID != r.ReaderID {
			numHands++
		}
	}

	drawn, rotated, err := deck.Replace(r.WhiteCards, numHands)
	if err != nil {
		return err
	}

	next := 0
	for i := range r.Players {
		if r.Players[i].ID == r.ReaderID {
			continue
		}
		r.Players[i].Hand = append(r.Players[i].Hand, drawn[next])
		next++
	}
	r.WhiteCards = rotated
	return nil
}

// AdvanceTurn rotates the reader seat and moves to the next round.
func (r *Room) AdvanceTurn() error {
	readerID, err := NextReader(r.Players, r.ReaderID)
	if err != nil {
		return err
	}

	r.ReaderID = readerID
	r.Round++
	return nil
}

// CurrentBlackCard derives the active prompt card from the round
// counter. ErrNoMoreBlackCards means the prompt sequence is spent.
func (r *Room) CurrentBlackCard() (int, error) {
	if r.Round >= len(r.BlackCards) {
		return 0, ErrNoMoreBlackCards
	}
	return r.BlackCards[r.Round], nil
}

// EndGame marks the room's game as finished.
func (r *Room) EndGame() {
	r.GameOver = true
}

// RecordPick validates a player's card pick. It changes no state; the
// pick is purely a broadcast trigger.
func (r *Room) RecordPick(playerID string, cardIndex int) error {
	p, ok := r.FindPlayer(playerID)
	if !ok {
		return ErrUnknownPlayer
	}
	if cardIndex < 0 || cardIndex >= len(p.Hand) {
		return ErrUnknownCard
	}
	return nil
}

// AwardPoint gives the round's winner one point.
func (r *Room) AwardPoint(winnerID string) error {
	p, ok := r.FindPlayer(winnerID)
	if !ok {
		return ErrUnknownPlayer
	}
	p.Score++
	return nil
}

// Leave removes a player from the room. If the room empties, empty is
// true and the room should be destroyed. If the departing player was
// the admin, a remaining player is promoted at random and returned.
// If the departing player was the reader, the seat passes to the next
// player in rotation so the reader always refers to a present player;
// the round does not advance.
func (r *Room) Leave(playerID string) (promoted *Player, empty bool, err error) {
	idx := -1
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false, ErrUnknownPlayer
	}

	wasAdmin := r.Players[idx].IsAdmin

	// computed before removal to keep the rotation position
	nextReader := r.ReaderID
	if r.Players[idx].ID == r.ReaderID {
		nextReader, _ = NextReader(r.Players, r.ReaderID)
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if len(r.Players) == 0 {
		r.ReaderID = ""
		return nil, true, nil
	}
	r.ReaderID = nextReader

	if wasAdmin {
		i := rand.Intn(len(r.Players))
		r.Players[i].IsAdmin = true
		promoted = &r.Players[i]
	}
	return promoted, false, nil
}
