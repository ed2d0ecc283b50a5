// Package server is the websocket transport. It decodes inbound
// frames into engine commands, owns connection lifecycle and room
// group membership, and delivers outbound frames.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"github.com/sosajseba/dirty-minded-socket/engine"
	"github.com/sosajseba/dirty-minded-socket/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewID constructs a connection ID. Player identity is derived from
// it: whatever id a client claims in its payloads is overwritten with
// the id of the connection that sent them.
func NewID() string {
	return uuid.NewV4().String()
}

// GameServer is the websocket game server.
type GameServer struct {
	http.Server
	lobby *engine.Lobby

	mu     sync.Mutex
	conns  map[string]*client
	groups map[string]map[string]bool
}

// NewServer creates a GameServer on top of a lobby. The caller still
// has to attach the server to the lobby as its broadcaster.
func NewServer(lobby *engine.Lobby, allowedOrigins []string) *GameServer {
	s := &GameServer{
		lobby:  lobby,
		conns:  map[string]*client{},
		groups: map[string]map[string]bool{},
	}

	router := http.NewServeMux()
	router.Handle("/health", http.HandlerFunc(s.handleHealth))
	router.Handle("/ws", http.HandlerFunc(s.handleWS))

	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
	)
	s.Handler = cors(handlers.LoggingHandler(os.Stdout, router))

	return s
}

func (s *GameServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler.ServeHTTP(w, r)
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *GameServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	c := newClient(NewID(), conn)
	s.addConn(c)
	log.Printf("connected: %s", c.id)

	go c.writePump()
	s.readLoop(c)
}

// readLoop pumps frames off one connection until it dies, then
// resolves the implicit leave.
func (s *GameServer) readLoop(c *client) {
	defer func() {
		s.removeConn(c.id)
		s.lobby.HandleDisconnect(c.id)
		c.conn.Close()
		log.Printf("disconnected: %s", c.id)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame protocol.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("conn %s: bad frame: %v", c.id, err)
			continue
		}

		cmd, err := s.decode(c.id, frame)
		if err != nil {
			log.Printf("conn %s: %s: %v", c.id, frame.Event, err)
			continue
		}

		if err := s.lobby.Dispatch(cmd); err != nil {
			// unknown room: dropped silently, logged
			log.Printf("conn %s: dropped %s: %v", c.id, frame.Event, err)
		}
	}
}

// decode turns a wire frame into an engine command. Events that carry
// no roomId are resolved against the session registry, never against
// ambient connection state.
func (s *GameServer) decode(connID string, frame protocol.Frame) (engine.Command, error) {
	cmd := engine.Command{Event: frame.Event, ConnID: connID}

	switch frame.Event {
	case protocol.EventCreateRoom:
		var payload protocol.CreateRoom
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return cmd, err
		}
		payload.Player.ID = connID
		cmd.RoomID = payload.RoomID
		cmd.Player = payload.Player

	case protocol.EventJoinRoom:
		var payload protocol.JoinRoom
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return cmd, err
		}
		payload.Player.ID = connID
		cmd.RoomID = payload.RoomID
		cmd.Player = payload.Player

	case protocol.EventMessage:
		var payload protocol.Chat
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return cmd, err
		}
		cmd.RoomID = payload.Room
		cmd.Message = payload.Message

	case protocol.EventInitialCardsOrder:
		var payload protocol.Decks
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return cmd, err
		}
		cmd.White = payload.WhiteCards
		cmd.Black = payload.BlackCards
		return s.resolveRoom(cmd)

	case protocol.EventPlayerPickedWhiteCard:
		var payload protocol.Pick
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return cmd, err
		}
		cmd.PlayerID = payload.PlayerID
		cmd.CardIndex = payload.CardIndex
		return s.resolveRoom(cmd)

	case protocol.EventWinnerGetsOnePoint:
		var payload protocol.Winner
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return cmd, err
		}
		cmd.WinnerID = payload.WinnerID
		return s.resolveRoom(cmd)

	case protocol.EventCardsDistribution,
		protocol.EventCardsReplacement,
		protocol.EventCurrentBlackCard,
		protocol.EventNextTurn:
		return s.resolveRoom(cmd)

	default:
		return cmd, fmt.Errorf("unknown event %q", frame.Event)
	}

	return cmd, nil
}

func (s *GameServer) resolveRoom(cmd engine.Command) (engine.Command, error) {
	roomID, ok := s.lobby.Sessions().Room(cmd.ConnID)
	if !ok {
		return cmd, fmt.Errorf("connection is in no room")
	}
	cmd.RoomID = roomID
	return cmd, nil
}

func (s *GameServer) addConn(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.id] = c
}

func (s *GameServer) removeConn(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conns[connID]
	if !ok {
		return
	}
	delete(s.conns, connID)
	for roomID, group := range s.groups {
		delete(group, connID)
		if len(group) == 0 {
			delete(s.groups, roomID)
		}
	}
	close(c.send)
}

// AddToRoom subscribes a connection to a room's broadcasts.
func (s *GameServer) AddToRoom(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.groups[roomID] == nil {
		s.groups[roomID] = map[string]bool{}
	}
	s.groups[roomID][connID] = true
}

// RemoveFromRoom unsubscribes a connection.
func (s *GameServer) RemoveFromRoom(roomID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.groups[roomID], connID)
	if len(s.groups[roomID]) == 0 {
		delete(s.groups, roomID)
	}
}

// ToRoom delivers a frame to every connection grouped under a room.
// Delivery is best-effort: a connection too slow to drain its queue
// misses the frame.
func (s *GameServer) ToRoom(roomID string, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for connID := range s.groups[roomID] {
		s.deliver(connID, frame)
	}
}

// ToConn delivers a frame to a single connection, best-effort.
func (s *GameServer) ToConn(connID string, frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deliver(connID, frame)
}

// deliver must be called with s.mu held.
func (s *GameServer) deliver(connID string, frame []byte) {
	c, ok := s.conns[connID]
	if !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		log.Printf("conn %s: send queue full, frame dropped", connID)
	}
}
