package netwrk

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airhockey/internal/hockey"
	"airhockey/internal/report"
)

// wireMessage covers every line the server can send: the init handshake, error
// lines and state snapshots.
type wireMessage struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
	Error    string `json:"error"`

	Status        string                 `json:"status"`
	Winner        any                    `json:"winner"`
	Countdown     int                    `json:"countdown"`
	IsPaused      bool                   `json:"is_paused"`
	PausedPlayers []int                  `json:"paused_players"`
	Paddles       map[string]hockey.Vec2 `json:"paddles"`
	Scores        map[string]int         `json:"scores"`
}

func startTestServer(t *testing.T) (*GameServer, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Settings.CountdownDuration = 100 * time.Millisecond
	s := NewGameServer(cfg)
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.Serve(ctx)
	return s, s.Addr().String()
}

func dialTestServer(t *testing.T, addr string) (net.Conn, *bufio.Scanner) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn, bufio.NewScanner(conn)
}

func readMessage(t *testing.T, scanner *bufio.Scanner) wireMessage {
	t.Helper()
	require.True(t, scanner.Scan(), "expected another server line: %v", scanner.Err())
	var msg wireMessage
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
	return msg
}

// readUntil consumes broadcast frames until pred matches one, failing the test
// when the read deadline runs out first.
func readUntil(t *testing.T, scanner *bufio.Scanner, pred func(wireMessage) bool) wireMessage {
	t.Helper()
	for {
		msg := readMessage(t, scanner)
		if pred(msg) {
			return msg
		}
	}
}

func sendCommand(t *testing.T, conn net.Conn, cmd Command) {
	t.Helper()
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	_, err = conn.Write(append(data, '\n'))
	require.NoError(t, err)
}

func TestHandshakeAndGameStart(t *testing.T) {
	_, addr := startTestServer(t)

	conn1, sc1 := dialTestServer(t, addr)
	defer conn1.Close()
	init1 := readMessage(t, sc1)
	assert.Equal(t, "init", init1.Type)
	assert.Equal(t, 1, init1.PlayerID)

	// Alone, player 1 only sees waiting frames.
	waiting := readMessage(t, sc1)
	assert.Equal(t, string(hockey.StatusWaiting), waiting.Status)

	conn2, sc2 := dialTestServer(t, addr)
	defer conn2.Close()
	init2 := readMessage(t, sc2)
	assert.Equal(t, "init", init2.Type)
	assert.Equal(t, 2, init2.PlayerID)

	readUntil(t, sc1, func(m wireMessage) bool {
		return m.Status == string(hockey.StatusStarting)
	})
	active := readUntil(t, sc2, func(m wireMessage) bool {
		return m.Status == string(hockey.StatusActive)
	})
	assert.Equal(t, map[string]int{"1": 0, "2": 0}, active.Scores)
}

func TestThirdClientRejected(t *testing.T) {
	_, addr := startTestServer(t)

	conn1, sc1 := dialTestServer(t, addr)
	defer conn1.Close()
	readMessage(t, sc1)
	conn2, sc2 := dialTestServer(t, addr)
	defer conn2.Close()
	readMessage(t, sc2)

	conn3, sc3 := dialTestServer(t, addr)
	defer conn3.Close()
	msg := readMessage(t, sc3)
	assert.Equal(t, "game is full", msg.Error)
	assert.False(t, sc3.Scan(), "connection closed after the error line")
}

func TestMalformedCommandTolerated(t *testing.T) {
	_, addr := startTestServer(t)

	conn1, sc1 := dialTestServer(t, addr)
	defer conn1.Close()
	readMessage(t, sc1)
	conn2, sc2 := dialTestServer(t, addr)
	defer conn2.Close()
	readMessage(t, sc2)

	_, err := conn1.Write([]byte("this is not json\n"))
	require.NoError(t, err)

	// The connection survives: a follow-up command still lands.
	sendCommand(t, conn1, Command{Type: CmdUpdatePaddle, Pos: []float64{150, 300}})
	readUntil(t, sc1, func(m wireMessage) bool {
		p, ok := m.Paddles["1"]
		return ok && p.X == 150 && p.Y == 300
	})
}

func TestOpponentDisconnect(t *testing.T) {
	_, addr := startTestServer(t)

	conn1, sc1 := dialTestServer(t, addr)
	defer conn1.Close()
	readMessage(t, sc1)
	conn2, sc2 := dialTestServer(t, addr)
	readMessage(t, sc2)

	readUntil(t, sc1, func(m wireMessage) bool {
		return m.Status == string(hockey.StatusStarting)
	})
	require.NoError(t, conn2.Close())

	msg := readUntil(t, sc1, func(m wireMessage) bool {
		return m.Status == string(hockey.StatusWaiting)
	})
	assert.Equal(t, hockey.WinnerDisconnected, msg.Winner)
}

func TestPauseAndResumeOverWire(t *testing.T) {
	_, addr := startTestServer(t)

	conn1, sc1 := dialTestServer(t, addr)
	defer conn1.Close()
	readMessage(t, sc1)
	conn2, sc2 := dialTestServer(t, addr)
	defer conn2.Close()
	readMessage(t, sc2)

	readUntil(t, sc1, func(m wireMessage) bool {
		return m.Status == string(hockey.StatusActive)
	})

	sendCommand(t, conn1, Command{Type: CmdPauseGame})
	paused := readUntil(t, sc2, func(m wireMessage) bool { return m.IsPaused })
	assert.Equal(t, []int{1}, paused.PausedPlayers)

	sendCommand(t, conn1, Command{Type: CmdResumeGame})
	readUntil(t, sc2, func(m wireMessage) bool { return !m.IsPaused })
}

func TestBuildResults(t *testing.T) {
	identities := map[int]Identity{
		1: {Name: "alice", Token: "tok-a"},
		2: {Name: "bob", Token: "tok-b"},
	}
	results := buildResults(1, map[int]int{1: 5, 2: 2}, identities)
	require.Len(t, results, 2)

	byToken := map[string]report.Result{}
	for _, r := range results {
		byToken[r.Token] = r
	}
	assert.Equal(t, report.Result{
		Token: "tok-a", Won: true, GoalsScored: 5, GoalsConceded: 2, ScoreChange: 3,
	}, byToken["tok-a"])
	assert.Equal(t, report.Result{
		Token: "tok-b", Won: false, GoalsScored: 2, GoalsConceded: 5, ScoreChange: -3,
	}, byToken["tok-b"])
}

func TestBuildResultsSkipsAnonymousPlayers(t *testing.T) {
	identities := map[int]Identity{2: {Name: "bob", Token: "tok-b"}}
	results := buildResults(2, map[int]int{1: 1, 2: 5}, identities)
	require.Len(t, results, 1)
	assert.Equal(t, "tok-b", results[0].Token)
	assert.True(t, results[0].Won)
}
