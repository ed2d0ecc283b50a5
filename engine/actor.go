package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sosajseba/dirty-minded-socket/game"
	"github.com/sosajseba/dirty-minded-socket/protocol"
)

const mailboxSize = 64

// destroyGrace is how long a destroyed actor keeps draining late
// sends from dispatchers that grabbed it before it was unregistered.
const destroyGrace = 5 * time.Second

// RoomActor owns the authoritative in-memory copy of one room. It is
// the only goroutine that mutates the room, the only issuer of
// persistence writes for it, and it always persists before it
// broadcasts.
type RoomActor struct {
	roomID string
	room   *game.Room
	cmds   chan Command
	lobby  *Lobby

	// touched by the actor goroutine only
	destroyed bool
}

func newRoomActor(roomID string, room *game.Room, lobby *Lobby) *RoomActor {
	return &RoomActor{
		roomID: roomID,
		room:   room,
		cmds:   make(chan Command, mailboxSize),
		lobby:  lobby,
	}
}

func (a *RoomActor) run() {
	for {
		if a.destroyed {
			select {
			case cmd := <-a.cmds:
				a.reply(cmd, ErrRoomNotFound)
				log.Printf("room %s: dropped %s for destroyed room", a.roomID, cmd.Event)
			case <-time.After(destroyGrace):
				return
			}
			continue
		}

		cmd := <-a.cmds
		err := a.apply(cmd)
		a.reply(cmd, err)
		if err != nil {
			log.Printf("room %s: %s failed: %v", a.roomID, cmd.Event, err)
		}
	}
}

func (a *RoomActor) reply(cmd Command, err error) {
	if cmd.Reply != nil {
		cmd.Reply <- err
	}
}

func (a *RoomActor) apply(cmd Command) error {
	if cmd.Event != protocol.EventCreateRoom && a.room == nil {
		return ErrRoomNotFound
	}

	switch cmd.Event {
	case protocol.EventCreateRoom:
		return a.handleCreate(cmd)
	case protocol.EventJoinRoom:
		return a.handleJoin(cmd)
	case protocol.EventMessage:
		a.toRoom(protocol.EventReceive, cmd.Message)
		return nil
	case protocol.EventInitialCardsOrder:
		return a.handleSetDecks(cmd)
	case protocol.EventCardsDistribution:
		return a.handleDeal(cmd)
	case protocol.EventCardsReplacement:
		return a.handleReplenish(cmd)
	case protocol.EventPlayerPickedWhiteCard:
		return a.handlePick(cmd)
	case protocol.EventWinnerGetsOnePoint:
		return a.handleWinner(cmd)
	case protocol.EventCurrentBlackCard:
		return a.handleBlackCard(cmd)
	case protocol.EventNextTurn:
		return a.handleNextTurn(cmd)
	case eventLeave:
		return a.handleLeave(cmd)
	default:
		return fmt.Errorf("unknown event %q", cmd.Event)
	}
}

// commit persists the candidate state and only then makes it
// authoritative. On failure the candidate is dropped, so the in-memory
// room never gets ahead of what was durably stored.
func (a *RoomActor) commit(next *game.Room) error {
	if err := a.lobby.store.Save(next); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	a.room = next
	return nil
}

func (a *RoomActor) handleCreate(cmd Command) error {
	if a.room != nil {
		// A duplicate create is a retry, not a new room: leave the
		// room untouched and resync the sender. The sender still gets
		// grouped and registered, otherwise a creator reviving a room
		// after a restart could not send implicit-room commands and
		// their disconnect would resolve to no leave.
		a.lobby.sessions.Add(cmd.ConnID, a.roomID)
		a.lobby.broadcaster.AddToRoom(a.roomID, cmd.ConnID)
		a.toConn(cmd.ConnID, protocol.EventRoomUpdated, protocol.RoomUpdate{Room: a.room})
		return nil
	}

	next := game.NewRoom(a.roomID, cmd.Player)
	if err := a.commit(next); err != nil {
		// the room never existed durably; give the id back
		a.destroyed = true
		a.lobby.remove(a.roomID)
		a.toConn(cmd.ConnID, protocol.EventError, protocol.Error{Error: "could not create room"})
		return err
	}

	a.lobby.sessions.Add(cmd.ConnID, a.roomID)
	a.lobby.broadcaster.AddToRoom(a.roomID, cmd.ConnID)
	a.toRoom(protocol.EventRoomUpdated, protocol.RoomUpdate{Room: a.room})
	return nil
}

func (a *RoomActor) handleJoin(cmd Command) error {
	next := a.room.Clone()
	if err := next.Join(cmd.Player, a.lobby.opts.Capacity); err != nil {
		if errors.Is(err, game.ErrRoomFull) {
			a.toConn(cmd.ConnID, protocol.EventRoomIsFull, true)
		}
		return err
	}

	if err := a.commit(next); err != nil {
		a.toConn(cmd.ConnID, protocol.EventError, protocol.Error{Error: "could not join room"})
		return err
	}

	a.lobby.sessions.Add(cmd.ConnID, a.roomID)
	a.lobby.broadcaster.AddToRoom(a.roomID, cmd.ConnID)
	a.toRoom(protocol.EventNewPlayer, protocol.NewPlayer{Room: a.room, Joiner: cmd.Player})
	return nil
}

func (a *RoomActor) handleSetDecks(cmd Command) error {
	next := a.room.Clone()
	if err := next.SetDecks(cmd.White, cmd.Black); err != nil {
		return err
	}
	if err := a.commit(next); err != nil {
		return err
	}
	a.toRoom(protocol.EventRoomUpdated, protocol.RoomUpdate{Room: a.room})
	return nil
}

func (a *RoomActor) handleDeal(cmd Command) error {
	next := a.room.Clone()
	if err := next.DealInitialHands(a.lobby.opts.HandSize); err != nil {
		a.toConn(cmd.ConnID, protocol.EventError, protocol.Error{Error: err.Error()})
		return err
	}
	if err := a.commit(next); err != nil {
		return err
	}
	a.toRoom(protocol.EventRoomUpdated, protocol.RoomUpdate{Room: a.room})
	return nil
}

func (a *RoomActor) handleReplenish(cmd Command) error {
	next := a.room.Clone()
	if err := next.Replenish(); err != nil {
		return err
	}
	if err := a.commit(next); err != nil {
		return err
	}
	a.toRoom(protocol.EventRoomUpdated, protocol.RoomUpdate{Room: a.room})
	return nil
}

func (a *RoomActor) handlePick(cmd Command) error {
	// validation only; a pick changes no state and is not persisted
	if err := a.room.RecordPick(cmd.PlayerID, cmd.CardIndex); err != nil {
		return err
	}
	a.toRoom(protocol.EventPlayerPickedWhiteCard, protocol.Pick{
		PlayerID:  cmd.PlayerID,
		CardIndex: cmd.CardIndex,
	})
	return nil
}

func (a *RoomActor) handleWinner(cmd Command) error {
	next := a.room.Clone()
	if err := next.AwardPoint(cmd.WinnerID); err != nil {
		return err
	}
	if err := a.commit(next); err != nil {
		return err
	}
	a.toRoom(protocol.EventWinnerGetsOnePoint, protocol.Winner{WinnerID: cmd.WinnerID})
	a.toRoom(protocol.EventRoomUpdated, protocol.RoomUpdate{Room: a.room})
	return nil
}

func (a *RoomActor) handleBlackCard(cmd Command) error {
	card, err := a.room.CurrentBlackCard()
	if errors.Is(err, game.ErrNoMoreBlackCards) {
		if !a.room.GameOver {
			next := a.room.Clone()
			next.EndGame()
			if err := a.commit(next); err != nil {
				return err
			}
		}
		a.toRoom(protocol.EventGameOver, protocol.RoomUpdate{Room: a.room})
		return nil
	}
	if err != nil {
		return err
	}

	a.toRoom(protocol.EventCurrentBlackCard, protocol.BlackCard{
		Card:  card,
		Round: a.room.Round,
	})
	return nil
}

func (a *RoomActor) handleNextTurn(cmd Command) error {
	next := a.room.Clone()
	if err := next.AdvanceTurn(); err != nil {
		return err
	}
	if err := a.commit(next); err != nil {
		return err
	}
	a.toRoom(protocol.EventNextTurn, protocol.Turn{
		ReaderID: a.room.ReaderID,
		Round:    a.room.Round,
	})
	return nil
}

func (a *RoomActor) handleLeave(cmd Command) error {
	next := a.room.Clone()
	_, empty, err := next.Leave(cmd.PlayerID)
	if err != nil {
		return err
	}

	if empty {
		if err := a.lobby.store.Delete(a.roomID); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		a.room = next
		a.destroyed = true
		a.lobby.remove(a.roomID)
		a.lobby.broadcaster.RemoveFromRoom(a.roomID, cmd.ConnID)
		return nil
	}

	if err := a.commit(next); err != nil {
		return err
	}

	a.lobby.broadcaster.RemoveFromRoom(a.roomID, cmd.ConnID)
	a.toRoom(protocol.EventUserDisconnected, protocol.Disconnected{
		PlayerID: cmd.PlayerID,
		Room:     a.room,
	})
	return nil
}

func (a *RoomActor) toRoom(event string, data interface{}) {
	frame, err := protocol.NewFrame(event, data)
	if err != nil {
		log.Printf("room %s: building %s frame: %v", a.roomID, event, err)
		return
	}
	a.lobby.broadcaster.ToRoom(a.roomID, frame)
}

func (a *RoomActor) toConn(connID, event string, data interface{}) {
	frame, err := protocol.NewFrame(event, data)
	if err != nil {
		log.Printf("room %s: building %s frame: %v", a.roomID, event, err)
		return
	}
	a.lobby.broadcaster.ToConn(connID, frame)
}
