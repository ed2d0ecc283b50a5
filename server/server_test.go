package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sosajseba/dirty-minded-socket/engine"
	"github.com/sosajseba/dirty-minded-socket/game"
	"github.com/sosajseba/dirty-minded-socket/protocol"
	"github.com/sosajseba/dirty-minded-socket/store"
)

func newTestServer(t *testing.T, opts engine.Opts) (*httptest.Server, *GameServer) {
	t.Helper()

	lobby := engine.NewLobby(store.NewInMemoryRoomStore(), opts)
	srv := NewServer(lobby, nil)
	lobby.SetBroadcaster(srv)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, srv
}

func (s *GameServer) groupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()

	frame, err := protocol.NewFrame(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// readFrame reads the next frame, failing the test if none arrives in
// time.
func readFrame(t *testing.T, conn *websocket.Conn) protocol.Frame {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame protocol.Frame
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, engine.Opts{Capacity: 8, HandSize: 7})

	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
}

func TestCreateJoinAndChat(t *testing.T) {
	ts, _ := newTestServer(t, engine.Opts{Capacity: 8, HandSize: 7})

	creator := dialWS(t, ts)
	send(t, creator, protocol.EventCreateRoom, protocol.CreateRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Ana"},
	})

	frame := readFrame(t, creator)
	require.Equal(t, protocol.EventRoomUpdated, frame.Event)

	var update protocol.RoomUpdate
	require.NoError(t, json.Unmarshal(frame.Data, &update))
	require.Len(t, update.Room.Players, 1)
	assert.Equal(t, "Ana", update.Room.Players[0].Name)
	assert.True(t, update.Room.Players[0].IsAdmin)

	joiner := dialWS(t, ts)
	send(t, joiner, protocol.EventJoinRoom, protocol.JoinRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Bo"},
	})

	// both group members see the new player
	for _, conn := range []*websocket.Conn{creator, joiner} {
		frame = readFrame(t, conn)
		require.Equal(t, protocol.EventNewPlayer, frame.Event)

		var joined protocol.NewPlayer
		require.NoError(t, json.Unmarshal(frame.Data, &joined))
		assert.Len(t, joined.Room.Players, 2)
		assert.Equal(t, "Bo", joined.Joiner.Name)
	}

	send(t, creator, protocol.EventMessage, protocol.Chat{
		Room:    "R1",
		Message: "hello",
	})

	frame = readFrame(t, joiner)
	assert.Equal(t, protocol.EventReceive, frame.Event)

	var msg string
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	assert.Equal(t, "hello", msg)
}

func TestRoomIsFullGoesToTheJoinerOnly(t *testing.T) {
	ts, _ := newTestServer(t, engine.Opts{Capacity: 1, HandSize: 7})

	creator := dialWS(t, ts)
	send(t, creator, protocol.EventCreateRoom, protocol.CreateRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Ana"},
	})
	readFrame(t, creator) // room-updated

	joiner := dialWS(t, ts)
	send(t, joiner, protocol.EventJoinRoom, protocol.JoinRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Bo"},
	})

	frame := readFrame(t, joiner)
	assert.Equal(t, protocol.EventRoomIsFull, frame.Event)

	// the creator hears nothing about it
	creator.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := creator.ReadMessage()
	assert.Error(t, err, "expected a read timeout")
}

func TestDisconnectBroadcastsLeave(t *testing.T) {
	ts, _ := newTestServer(t, engine.Opts{Capacity: 8, HandSize: 7})

	creator := dialWS(t, ts)
	send(t, creator, protocol.EventCreateRoom, protocol.CreateRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Ana"},
	})
	readFrame(t, creator)

	joiner := dialWS(t, ts)
	send(t, joiner, protocol.EventJoinRoom, protocol.JoinRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Bo"},
	})
	readFrame(t, creator) // new-player
	readFrame(t, joiner)

	joiner.Close()

	frame := readFrame(t, creator)
	require.Equal(t, protocol.EventUserDisconnected, frame.Event)

	var gone protocol.Disconnected
	require.NoError(t, json.Unmarshal(frame.Data, &gone))
	require.Len(t, gone.Room.Players, 1)
	assert.Equal(t, "Ana", gone.Room.Players[0].Name)
}

func TestDisconnectPrunesEmptyGroups(t *testing.T) {
	ts, srv := newTestServer(t, engine.Opts{Capacity: 8, HandSize: 7})

	creator := dialWS(t, ts)
	send(t, creator, protocol.EventCreateRoom, protocol.CreateRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Ana"},
	})
	readFrame(t, creator)
	require.Equal(t, 1, srv.groupCount())

	creator.Close()

	assert.Eventually(t, func() bool {
		return srv.groupCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "empty group left behind after last member disconnected")
}

func TestGameFlowOverTheWire(t *testing.T) {
	ts, _ := newTestServer(t, engine.Opts{Capacity: 8, HandSize: 7})

	creator := dialWS(t, ts)
	send(t, creator, protocol.EventCreateRoom, protocol.CreateRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Ana"},
	})
	readFrame(t, creator)

	joiner := dialWS(t, ts)
	send(t, joiner, protocol.EventJoinRoom, protocol.JoinRoom{
		RoomID: "R1",
		Player: game.Player{Name: "Bo"},
	})
	readFrame(t, creator)
	readFrame(t, joiner)

	white := []int{}
	for i := 1; i <= 20; i++ {
		white = append(white, i)
	}
	send(t, creator, protocol.EventInitialCardsOrder, protocol.Decks{
		WhiteCards: white,
		BlackCards: []int{100, 101},
	})
	readFrame(t, creator) // room-updated
	readFrame(t, joiner)

	send(t, creator, protocol.EventCardsDistribution, nil)

	frame := readFrame(t, joiner)
	require.Equal(t, protocol.EventRoomUpdated, frame.Event)

	var update protocol.RoomUpdate
	require.NoError(t, json.Unmarshal(frame.Data, &update))
	assert.True(t, update.Room.GameStarted)
	for _, p := range update.Room.Players {
		assert.Len(t, p.Hand, 7, "player %s", p.Name)
	}
	assert.Len(t, update.Room.WhiteCards, 20)

	send(t, creator, protocol.EventNextTurn, nil)
	frame = readFrame(t, joiner)
	require.Equal(t, protocol.EventNextTurn, frame.Event)

	var turn protocol.Turn
	require.NoError(t, json.Unmarshal(frame.Data, &turn))
	assert.Equal(t, 1, turn.Round)
	assert.NotEmpty(t, turn.ReaderID)

	send(t, creator, protocol.EventCurrentBlackCard, nil)
	frame = readFrame(t, joiner)
	require.Equal(t, protocol.EventCurrentBlackCard, frame.Event)

	var black protocol.BlackCard
	require.NoError(t, json.Unmarshal(frame.Data, &black))
	assert.Equal(t, 101, black.Card)
}
