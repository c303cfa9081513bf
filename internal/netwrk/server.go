package netwrk

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"airhockey/internal/hockey"
	"airhockey/internal/report"
)

// Config carries everything one game server needs at construction.
type Config struct {
	Addr          string
	Settings      hockey.Settings
	PhysicsRate   int // game updates per second
	BroadcastRate int // state pushes per second
	Clock         clockwork.Clock  // nil means real clock
	Reporter      *report.Reporter // nil disables result reporting
}

// DefaultConfig returns the standard single-session server setup.
func DefaultConfig() Config {
	return Config{
		Addr:          "0.0.0.0:9999",
		Settings:      hockey.DefaultSettings(),
		PhysicsRate:   120,
		BroadcastRate: 60,
	}
}

// GameServer owns one Game and its up-to-two client connections. Five
// concurrent activities touch the game: the accept path, one reader goroutine
// per client, the physics loop and the broadcast loop. All of them serialize
// through mu, which also guards the client registry so membership changes and
// state transitions stay atomic.
type GameServer struct {
	cfg       Config
	clock     clockwork.Clock
	sessionID string

	mu         sync.Mutex
	game       *hockey.Game
	clients    map[int]net.Conn
	prevPos    map[int]hockey.Vec2
	identities map[int]Identity
	reported   bool

	listener net.Listener
}

// NewGameServer builds a server; call Run to start serving.
func NewGameServer(cfg Config) *GameServer {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &GameServer{
		cfg:        cfg,
		clock:      clock,
		sessionID:  uuid.New().String()[:8],
		game:       hockey.NewGame(cfg.Settings, clock),
		clients:    make(map[int]net.Conn),
		prevPos:    make(map[int]hockey.Vec2),
		identities: make(map[int]Identity),
	}
	s.resetPrevLocked()
	return s
}

// Listen binds the TCP listener. Split from Serve so callers (and tests) can
// learn the bound address before any client connects.
func (s *GameServer) Listen() error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = l
	return nil
}

// Addr returns the bound listener address. Only valid after Listen.
func (s *GameServer) Addr() net.Addr {
	return s.listener.Addr()
}

// Run binds and serves until ctx is cancelled.
func (s *GameServer) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve starts the physics and broadcast loops and accepts connections until
// ctx is cancelled or the listener fails.
func (s *GameServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	go s.physicsLoop(ctx)
	go s.broadcastLoop(ctx)

	log.Info().
		Str("session", s.sessionID).
		Str("addr", s.listener.Addr().String()).
		Msg("game server listening")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Warn().Err(err).Msg("accept failed")
			continue
		}
		s.register(conn)
	}
}

// register admits a connection as player 1 or 2, or rejects it with a JSON
// error line when the session is full.
func (s *GameServer) register(conn net.Conn) {
	s.mu.Lock()
	if len(s.clients) >= 2 {
		s.mu.Unlock()
		log.Warn().
			Str("remote", conn.RemoteAddr().String()).
			Msg("connection refused, game is full")
		writeLine(conn, ErrorMessage{Error: "game is full"})
		conn.Close()
		return
	}

	playerID := 1
	if _, taken := s.clients[1]; taken {
		playerID = 2
	}
	s.clients[playerID] = conn

	log.Info().
		Str("session", s.sessionID).
		Int("player", playerID).
		Str("remote", conn.RemoteAddr().String()).
		Msg("player connected")

	if err := writeLine(conn, InitMessage{Type: "init", PlayerID: playerID}); err != nil {
		delete(s.clients, playerID)
		s.mu.Unlock()
		conn.Close()
		return
	}

	if len(s.clients) == 2 {
		log.Info().Str("session", s.sessionID).Msg("two players connected, starting game")
		s.game.Reset()
		s.game.StartGame()
		s.reported = false
		s.resetPrevLocked()
	}
	s.mu.Unlock()

	go s.readLoop(conn, playerID)
}

// physicsLoop advances the game at a fixed rate, feeding in the per-tick
// paddle deltas that drive momentum transfer on hits.
func (s *GameServer) physicsLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(time.Second / time.Duration(s.cfg.PhysicsRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.tick()
		}
	}
}

func (s *GameServer) tick() {
	s.mu.Lock()
	p1 := s.game.PaddlePos(1)
	p2 := s.game.PaddlePos(2)
	wasOver := s.game.Status() == hockey.StatusGameOver

	s.game.Update(p1.Sub(s.prevPos[1]), p2.Sub(s.prevPos[2]))

	s.prevPos[1] = s.game.PaddlePos(1)
	s.prevPos[2] = s.game.PaddlePos(2)

	var results []report.Result
	if !wasOver && s.game.Status() == hockey.StatusGameOver && !s.reported {
		s.reported = true
		if winner, ok := s.game.Winner().(int); ok {
			results = buildResults(winner, s.game.Scores(), s.identities)
		}
	}
	s.mu.Unlock()

	for _, res := range results {
		go s.sendReport(res)
	}
}

// buildResults computes one result per logged-in player once a game finishes.
func buildResults(winner int, scores map[int]int, identities map[int]Identity) []report.Result {
	diff := scores[1] - scores[2]
	if diff < 0 {
		diff = -diff
	}

	var results []report.Result
	for playerID, ident := range identities {
		if ident.Token == "" {
			continue
		}
		won := playerID == winner
		change := diff
		if !won {
			change = -diff
		}
		results = append(results, report.Result{
			Token:         ident.Token,
			Won:           won,
			GoalsScored:   scores[playerID],
			GoalsConceded: scores[3-playerID],
			ScoreChange:   change,
		})
	}
	return results
}

func (s *GameServer) sendReport(res report.Result) {
	if s.cfg.Reporter == nil {
		return
	}
	if err := s.cfg.Reporter.Report(context.Background(), res); err != nil {
		log.Warn().Err(err).Str("session", s.sessionID).Msg("could not report game result")
	}
}

// broadcastLoop pushes one state snapshot per frame to every client. Writes
// that fail mark the player disconnected; teardown runs outside the lock to
// avoid reentrant locking.
func (s *GameServer) broadcastLoop(ctx context.Context) {
	ticker := s.clock.NewTicker(time.Second / time.Duration(s.cfg.BroadcastRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.broadcastState()
		}
	}
}

func (s *GameServer) broadcastState() {
	s.mu.Lock()
	if len(s.clients) == 0 {
		s.mu.Unlock()
		return
	}
	data, err := json.Marshal(s.game.Snapshot())
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Msg("could not marshal state snapshot")
		return
	}
	data = append(data, '\n')

	var failed []int
	for playerID, conn := range s.clients {
		if _, err := conn.Write(data); err != nil {
			failed = append(failed, playerID)
		}
	}
	s.mu.Unlock()

	for _, playerID := range failed {
		s.disconnect(playerID)
	}
}

// disconnect tears down one player. Safe to call from the reader and the
// broadcast path at once; the registry lookup makes it idempotent. The last
// player leaving discards the whole game for a fresh one.
func (s *GameServer) disconnect(playerID int) {
	s.mu.Lock()
	conn, ok := s.clients[playerID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.clients, playerID)
	delete(s.identities, playerID)
	conn.Close()

	log.Info().
		Str("session", s.sessionID).
		Int("player", playerID).
		Msg("player disconnected")

	s.game.ClearPlayerPause(playerID)
	s.game.RequesterDisconnected(playerID)

	if len(s.clients) == 0 {
		s.game = hockey.NewGame(s.cfg.Settings, s.clock)
		s.reported = false
	} else {
		s.game.OpponentLeft()
	}
	s.resetPrevLocked()
	s.mu.Unlock()
}

// resetPrevLocked realigns the paddle-velocity baseline with the current
// paddle positions so the first tick after a reset sees zero paddle motion.
// Caller holds mu (or has exclusive access during construction).
func (s *GameServer) resetPrevLocked() {
	s.prevPos[1] = s.game.PaddlePos(1)
	s.prevPos[2] = s.game.PaddlePos(2)
}

func writeLine(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}
